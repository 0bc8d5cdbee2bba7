// Package clock provides the deferred task facility used by the scheduler.
package clock

import (
	"sync"
	"time"
)

// Scheduler runs task once, d from now.
type Scheduler interface {
	After(d time.Duration, task func())
}

// Timers is a Scheduler on top of time.AfterFunc. Stop discards whatever
// has not fired yet.
type Timers struct {
	mu      sync.Mutex
	pending map[*time.Timer]struct{}
	stopped bool
}

func New() *Timers {
	return &Timers{pending: make(map[*time.Timer]struct{})}
}

func (t *Timers) After(d time.Duration, task func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.pending, timer)
		stopped := t.stopped
		t.mu.Unlock()
		if !stopped {
			task()
		}
	})
	t.pending[timer] = struct{}{}
}

// Pending reports how many tasks are still waiting to fire.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Stop cancels all pending tasks. Later calls to After are ignored.
func (t *Timers) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for timer := range t.pending {
		timer.Stop()
		delete(t.pending, timer)
	}
}
