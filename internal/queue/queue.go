package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"checkout-notifier/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrFull is returned by MemoryQueue.Enqueue when the buffer is full.
var ErrFull = errors.New("queue is full")

// Queue carries provider tasks from the scheduler to the dispatcher.
type Queue interface {
	Enqueue(ctx context.Context, task *model.Task) error
	// Dequeue blocks until a task is available or ctx is done.
	Dequeue(ctx context.Context) (*model.Task, error)
}

// MemoryQueue is a buffered channel.
type MemoryQueue struct {
	ch chan *model.Task
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{
		ch: make(chan *model.Task, size),
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, task *model.Task) error {
	select {
	case q.ch <- task:
		return nil
	default:
		return ErrFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*model.Task, error) {
	select {
	case task := <-q.ch:
		return task, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedisQueue is a Redis list: LPUSH on enqueue, BRPOP on dequeue.
type RedisQueue struct {
	client *redis.Client
	key    string
	logger *zap.Logger
	// pollTimeout bounds each BRPOP so cancellation is noticed.
	pollTimeout time.Duration
}

func NewRedisQueue(client *redis.Client, key string, logger *zap.Logger) *RedisQueue {
	return &RedisQueue{
		client:      client,
		key:         key,
		logger:      logger,
		pollTimeout: time.Second,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, task *model.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode task %s: %w", task.ID, err)
	}
	return q.client.LPush(ctx, q.key, data).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*model.Task, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			q.logger.Warn("Redis dequeue error, retrying in 1s", zap.String("key", q.key), zap.Error(err))
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		// result is [key, value]
		if len(result) < 2 {
			continue
		}

		var task model.Task
		if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
			q.logger.Error("Failed to decode task from Redis, dropping", zap.String("raw", result[1]), zap.Error(err))
			continue
		}
		return &task, nil
	}
}
