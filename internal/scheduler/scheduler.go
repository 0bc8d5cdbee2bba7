// Package scheduler deduplicates checkouts and defers their notification.
//
// Every new checkout id starts two unrelated tasks: a send task after the
// send delay and an expiry task after the dedup window. Neither cancels the
// other, and the outcome of the send never touches the pending set.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"checkout-notifier/internal/clock"
	"checkout-notifier/internal/metrics"
	"checkout-notifier/internal/model"
	"checkout-notifier/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultSendDelay = 15 * time.Minute
	DefaultWindow    = 12 * time.Hour
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusDuplicate Status = "duplicate"
)

// Notifier is the best-effort side channel to the messaging provider.
// Implementations must not block on the provider and report failures
// through their own logging only.
type Notifier interface {
	Register(ctx context.Context, c model.Checkout)
	Send(ctx context.Context, c model.Checkout)
}

type Config struct {
	SendDelay time.Duration
	Window    time.Duration
	// RegisterNumbers enables the sandbox number registration on submit.
	RegisterNumbers bool
}

type Scheduler struct {
	store    store.Store
	timers   clock.Scheduler
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
	cfg      Config
}

func New(cfg Config, s store.Store, timers clock.Scheduler, n Notifier, m *metrics.Metrics, logger *zap.Logger) *Scheduler {
	if cfg.SendDelay <= 0 {
		cfg.SendDelay = DefaultSendDelay
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	return &Scheduler{
		store:    s,
		timers:   timers,
		notifier: n,
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
	}
}

// Submit schedules c unless its id is already pending. The id is marked
// pending before any other work so a repeat arriving right behind it is
// reported as a duplicate.
func (s *Scheduler) Submit(ctx context.Context, c model.Checkout) (Status, error) {
	token := uuid.NewString()
	added, err := s.store.Add(ctx, c.ID, token, s.cfg.Window)
	if err != nil {
		return "", fmt.Errorf("mark checkout %s pending: %w", c.ID, err)
	}
	if !added {
		s.logger.Info("Message already scheduled", zap.String("checkout_id", c.ID))
		return StatusDuplicate, nil
	}
	s.metrics.Scheduled()

	if s.cfg.RegisterNumbers {
		s.notifier.Register(ctx, c)
	}

	s.timers.After(s.cfg.SendDelay, func() {
		s.notifier.Send(context.Background(), c)
	})
	s.timers.After(s.cfg.Window, func() {
		s.expire(c.ID, token)
	})

	s.logger.Info("Message scheduled",
		zap.String("checkout_id", c.ID),
		zap.String("phone", c.Phone),
		zap.Duration("send_delay", s.cfg.SendDelay),
		zap.Duration("window", s.cfg.Window),
	)
	return StatusScheduled, nil
}

// expire ends the window opened with token. If the id has already been
// re-added under a newer token, that entry is left alone.
func (s *Scheduler) expire(id, token string) {
	if err := s.store.Remove(context.Background(), id, token); err != nil {
		s.logger.Error("Failed to clear pending checkout", zap.String("checkout_id", id), zap.Error(err))
		return
	}
	s.metrics.Expired()
	s.logger.Info("Cache cleared", zap.String("checkout_id", id))
}

// Pending reports how many checkout ids are inside their dedup window.
func (s *Scheduler) Pending(ctx context.Context) (int, error) {
	return s.store.Len(ctx)
}
