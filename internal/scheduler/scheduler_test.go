//go:build test

package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtility_GoNamesTask(t *testing.T) {
	names := make(chan string, 1)

	Utility().Go("write-180f-2a19", func(ctx context.Context) {
		names <- TaskName(ctx)
	})

	select {
	case name := <-names:
		assert.Equal(t, "write-180f-2a19", name)
	case <-time.After(time.Second):
		t.Fatal("task MUST run")
	}
}

func TestUtility_AfterFunc(t *testing.T) {
	fired := make(chan struct{})

	Utility().AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("deferred call MUST fire")
	}

	stopped := Utility().AfterFunc(time.Hour, func() { t.Error("stopped timer MUST NOT fire") })
	assert.True(t, stopped.Stop())
}

func TestTaskName_NoName(t *testing.T) {
	assert.Equal(t, "", TaskName(context.Background()))
	assert.Equal(t, "", TaskName(nil)) //nolint:staticcheck // nil context is handled
}

func TestSerial_RunsTasksInOrder(t *testing.T) {
	s := NewSerial("serial-test")

	var mu sync.Mutex
	var order []int
	var active, maxActive int

	for i := 0; i < 20; i++ {
		s.Go("task", func(context.Context) {
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			order = append(order, i)
			active--
			mu.Unlock()
		})
	}

	s.Close()

	require.Len(t, order, 20, "all queued tasks MUST run before Close returns")
	for i, v := range order {
		assert.Equal(t, i, v, "tasks MUST run in submission order")
	}
	assert.Equal(t, 1, maxActive, "tasks MUST NOT overlap")
}

func TestSerial_DropsTasksAfterClose(t *testing.T) {
	s := NewSerial("serial-closed")
	s.Close()

	ran := make(chan struct{}, 1)
	s.Go("late", func(context.Context) { ran <- struct{}{} })

	select {
	case <-ran:
		t.Fatal("task submitted after Close MUST NOT run")
	case <-time.After(20 * time.Millisecond):
	}

	// Close is idempotent
	s.Close()
}

func TestSerial_AfterFuncNotBlockedByTask(t *testing.T) {
	s := NewSerial("serial-timer")
	defer s.Close()

	release := make(chan struct{})
	s.Go("blocked", func(context.Context) { <-release })
	defer close(release)

	fired := make(chan struct{})
	s.AfterFunc(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("deferred call MUST fire while the worker is busy")
	}
}
