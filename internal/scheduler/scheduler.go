// Package scheduler provides the execution contexts operations run their
// pipelines on, plus the timer facility the timeout guard races against.
package scheduler

import (
	"context"
	"runtime/pprof"
	"sync"
	"time"
)

type ctxKey string

const taskNameKey ctxKey = "task_name"

// Timer is a pending deferred call returned by AfterFunc.
type Timer interface {
	// Stop prevents the call from firing. It reports whether the call was stopped
	// before it fired.
	Stop() bool
}

// Scheduler runs tasks asynchronously and fires deferred calls.
type Scheduler interface {
	Go(name string, fn func(ctx context.Context))
	AfterFunc(d time.Duration, fn func()) Timer
}

// utility runs every task on its own goroutine labelled with the task name.
type utility struct{}

// Utility returns the default background scheduler: one goroutine per task,
// labelled for pprof so pipelines are identifiable in goroutine dumps.
func Utility() Scheduler {
	return utility{}
}

func (utility) Go(name string, fn func(ctx context.Context)) {
	run(context.Background(), name, fn)
}

func (utility) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// run starts fn on a new goroutine with the task name attached to its context and pprof labels.
func run(parent context.Context, name string, fn func(ctx context.Context)) {
	labels := pprof.Labels("task_name", name)

	go pprof.Do(parent, labels, func(ctx context.Context) {
		fn(context.WithValue(ctx, taskNameKey, name))
	})
}

// TaskName retrieves the task name from a context passed to a scheduled task.
func TaskName(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(taskNameKey).(string); ok {
		return v
	}
	return ""
}

type task struct {
	name string
	fn   func(ctx context.Context)
}

// Serial executes tasks one at a time, in submission order, on a single worker goroutine.
// Deferred calls scheduled with AfterFunc fire on their own timer goroutine and are
// not queued behind a blocked task.
type Serial struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []task
	closed bool
	done   chan struct{}
}

// NewSerial starts a serial scheduler whose worker goroutine is labelled with name.
func NewSerial(name string) *Serial {
	s := &Serial{done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)

	run(context.Background(), name, s.loop)
	return s
}

// Go enqueues fn. Tasks submitted after Close are dropped.
func (s *Serial) Go(name string, fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.queue = append(s.queue, task{name: name, fn: fn})
	s.cond.Signal()
}

// AfterFunc calls fn once d has elapsed.
func (s *Serial) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Close stops accepting tasks, lets queued tasks finish and waits for the worker to exit.
func (s *Serial) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.cond.Broadcast()
	}
	s.mu.Unlock()

	<-s.done
}

func (s *Serial) loop(ctx context.Context) {
	defer close(s.done)

	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		t := s.queue[0]
		s.queue[0] = task{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		t.fn(context.WithValue(ctx, taskNameKey, t.name))
	}
}
