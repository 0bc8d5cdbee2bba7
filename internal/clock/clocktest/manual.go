// Package clocktest provides a manually advanced clock.Scheduler.
package clocktest

import (
	"sort"
	"sync"
	"time"
)

type entry struct {
	at   time.Duration
	seq  int
	task func()
}

// Manual holds tasks until Advance moves its clock past their deadline.
// Tasks run synchronously on the goroutine calling Advance, in deadline
// order, ties broken by registration order.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	entries []entry
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) After(d time.Duration, task func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.entries = append(m.entries, entry{at: m.now + d, seq: m.seq, task: task})
}

// Advance moves the clock forward by d, running every task that comes due.
// Tasks registered by a running task fire too if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	for {
		next, ok := m.popDueLocked(target)
		if !ok {
			break
		}
		m.now = next.at
		m.mu.Unlock()
		next.task()
		m.mu.Lock()
	}
	m.now = target
	m.mu.Unlock()
}

func (m *Manual) popDueLocked(target time.Duration) (entry, bool) {
	if len(m.entries) == 0 {
		return entry{}, false
	}
	sort.Slice(m.entries, func(i, j int) bool {
		if m.entries[i].at == m.entries[j].at {
			return m.entries[i].seq < m.entries[j].seq
		}
		return m.entries[i].at < m.entries[j].at
	})
	first := m.entries[0]
	if first.at > target {
		return entry{}, false
	}
	m.entries = m.entries[1:]
	return first, true
}

// Pending reports how many tasks have not fired yet.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Elapsed is the total time advanced so far.
func (m *Manual) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}
