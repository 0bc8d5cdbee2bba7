package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"checkout-notifier/internal/metrics"
	"checkout-notifier/internal/model"
	"checkout-notifier/internal/queue"
	"checkout-notifier/internal/whatsapp"

	"go.uber.org/zap"
)

// Messenger is the messaging provider as seen by the dispatcher.
type Messenger interface {
	RegisterTestNumber(ctx context.Context, phone string) (json.RawMessage, error)
	SendTemplate(ctx context.Context, phone, name string) (json.RawMessage, error)
}

// Dispatcher drains the queue with a fixed pool of workers. Each task is
// attempted once; the outcome is only logged.
type Dispatcher struct {
	WorkerPoolSize int
	Queue          queue.Queue
	Messenger      Messenger
	Metrics        *metrics.Metrics
	Logger         *zap.Logger

	wg sync.WaitGroup
}

func NewDispatcher(poolSize int, q queue.Queue, m Messenger, mt *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Dispatcher{
		WorkerPoolSize: poolSize,
		Queue:          q,
		Messenger:      m,
		Metrics:        mt,
		Logger:         logger,
	}
}

// Run starts the workers. They stop once ctx is done; Wait blocks until they have.
func (d *Dispatcher) Run(ctx context.Context) {
	for i := 0; i < d.WorkerPoolSize; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	d.Logger.Info("Dispatcher started", zap.Int("workers", d.WorkerPoolSize))
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for {
		task, err := d.Queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.Logger.Error("Dequeue failed", zap.Int("worker", id), zap.Error(err))
			continue
		}
		d.process(ctx, id, task)
	}
}

func (d *Dispatcher) process(ctx context.Context, workerID int, task *model.Task) {
	c := task.Checkout
	fields := []zap.Field{
		zap.Int("worker", workerID),
		zap.String("job_id", task.ID),
		zap.String("kind", string(task.Kind)),
		zap.String("checkout_id", c.ID),
		zap.String("phone", c.Phone),
	}

	var (
		resp json.RawMessage
		err  error
	)
	switch task.Kind {
	case model.TaskRegister:
		resp, err = d.Messenger.RegisterTestNumber(ctx, c.Phone)
	case model.TaskSend:
		d.Logger.Info("Sending WhatsApp message", append(fields, zap.String("checkout_url", c.URL))...)
		resp, err = d.Messenger.SendTemplate(ctx, c.Phone, c.DisplayName)
	default:
		d.Logger.Error("Unknown task kind, dropping", fields...)
		return
	}

	if err != nil {
		var apiErr *whatsapp.APIError
		if errors.As(err, &apiErr) {
			fields = append(fields, zap.Int("status", apiErr.StatusCode), zap.String("response", apiErr.Body))
		}
		d.Metrics.ProviderCall(string(task.Kind), metrics.ResultFailure)
		d.Logger.Error("Provider call failed", append(fields, zap.Error(err))...)
		return
	}

	d.Metrics.ProviderCall(string(task.Kind), metrics.ResultSuccess)
	d.Logger.Info("Provider call succeeded", append(fields, zap.ByteString("response", resp))...)
}
