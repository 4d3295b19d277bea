//go:build test

package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/srg/gattop/internal/scheduler"
)

// ManualScheduler runs tasks on goroutines like the utility scheduler, but deferred
// calls only fire when the test says so. This makes timeout races deterministic.
type ManualScheduler struct {
	mu     sync.Mutex
	timers []*ManualTimer
	tasks  sync.WaitGroup
}

var _ scheduler.Scheduler = (*ManualScheduler)(nil)

// ManualTimer is a deferred call held by ManualScheduler.
type ManualTimer struct {
	owner   *ManualScheduler
	Delay   time.Duration
	fn      func()
	fired   bool
	stopped bool
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Go(name string, fn func(ctx context.Context)) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		fn(context.Background())
	}()
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) scheduler.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &ManualTimer{owner: s, Delay: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// FireTimers runs every pending deferred call and returns how many fired.
func (s *ManualScheduler) FireTimers() int {
	s.mu.Lock()
	var due []*ManualTimer
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
	return len(due)
}

// Timers returns all timers scheduled so far.
func (s *ManualScheduler) Timers() []*ManualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	timers := make([]*ManualTimer, len(s.timers))
	copy(timers, s.timers)
	return timers
}

// Wait blocks until every task started with Go has returned.
func (s *ManualScheduler) Wait() {
	s.tasks.Wait()
}

func (t *ManualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Stopped reports whether the timer was cancelled before firing.
func (t *ManualTimer) Stopped() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	return t.stopped
}
