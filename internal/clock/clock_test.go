package clock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimers_After(t *testing.T) {
	timers := New()
	done := make(chan struct{})
	timers.After(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not fire")
	}
	assert.Eventually(t, func() bool { return timers.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestTimers_Stop(t *testing.T) {
	timers := New()
	var fired atomic.Int32
	timers.After(50*time.Millisecond, func() { fired.Add(1) })
	assert.Equal(t, 1, timers.Pending())

	timers.Stop()
	timers.After(time.Millisecond, func() { fired.Add(1) })

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
	assert.Equal(t, 0, timers.Pending())
}
