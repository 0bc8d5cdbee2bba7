package worker

import (
	"context"
	"time"

	"checkout-notifier/internal/model"
	"checkout-notifier/internal/queue"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueueNotifier hands provider work to the dispatcher through a queue, so
// callers never wait on the provider. Enqueue failures are logged and dropped.
type QueueNotifier struct {
	queue  queue.Queue
	logger *zap.Logger
	now    func() time.Time
}

func NewQueueNotifier(q queue.Queue, logger *zap.Logger) *QueueNotifier {
	return &QueueNotifier{queue: q, logger: logger, now: time.Now}
}

func (n *QueueNotifier) Register(ctx context.Context, c model.Checkout) {
	n.enqueue(context.WithoutCancel(ctx), model.TaskRegister, c)
}

func (n *QueueNotifier) Send(ctx context.Context, c model.Checkout) {
	n.enqueue(ctx, model.TaskSend, c)
}

func (n *QueueNotifier) enqueue(ctx context.Context, kind model.TaskKind, c model.Checkout) {
	task := &model.Task{
		ID:        uuid.NewString(),
		Kind:      kind,
		Checkout:  c,
		CreatedAt: n.now(),
	}
	if err := n.queue.Enqueue(ctx, task); err != nil {
		n.logger.Error("Failed to enqueue provider task",
			zap.String("job_id", task.ID),
			zap.String("kind", string(kind)),
			zap.String("checkout_id", c.ID),
			zap.Error(err),
		)
		return
	}
	n.logger.Debug("Provider task enqueued",
		zap.String("job_id", task.ID),
		zap.String("kind", string(kind)),
		zap.String("checkout_id", c.ID),
	)
}
