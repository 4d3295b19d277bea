package operation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/srg/gattop/internal/device"
	"github.com/srg/gattop/internal/scheduler"
)

// State is the lifecycle position of an operation.
type State int32

const (
	// Constructed operations have a fixed target and payload but no peripheral yet.
	Constructed State = iota
	// Armed operations have been executed and their pipeline is running.
	Armed
	// Resolved operations have a final result.
	Resolved
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Armed:
		return "armed"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// GattOperation is a single logical request against one characteristic.
type GattOperation interface {
	// Execute supplies the peripheral and starts the pipeline. It may be called once;
	// further calls return device.ErrInvalidUsage and leave the operation untouched.
	Execute(p device.Peripheral) error
	State() State
	// Done is closed once the operation is resolved.
	Done() <-chan struct{}
	// Err is the failure the operation resolved to; nil while pending or on success.
	Err() error
}

// errAbandoned is returned by a pipeline that noticed its result was already resolved.
var errAbandoned = errors.New("pipeline abandoned")

type pipelineFunc[T any] func(ctx context.Context, p device.Peripheral) (T, error)

// operation carries the state machine, result slot and timeout guard shared by all
// operation kinds. Kinds supply the pipeline.
type operation[T any] struct {
	kind           string
	service        string
	characteristic string
	opts           Options
	logger         *logrus.Entry
	pipeline       pipelineFunc[T]

	state      atomic.Int32 // Constructed or Armed; Resolved is derived from the result
	resultOnce sync.Once
	result     *Result[T]

	timerMu sync.Mutex
	timer   scheduler.Timer
}

func (o *operation[T]) init(kind, service, characteristic string, opts []Option, pipeline pipelineFunc[T]) {
	o.kind = kind
	o.service = service
	o.characteristic = characteristic
	o.pipeline = pipeline

	o.opts = DefaultOptions()
	for _, opt := range opts {
		opt(&o.opts)
	}

	o.logger = o.opts.Logger.WithFields(logrus.Fields{
		"operation":      kind,
		"service":        service,
		"characteristic": characteristic,
	})
}

// Service returns the target service identifier.
func (o *operation[T]) Service() string { return o.service }

// Characteristic returns the target characteristic identifier.
func (o *operation[T]) Characteristic() string { return o.characteristic }

// State returns the current lifecycle state.
func (o *operation[T]) State() State {
	if o.Result().Resolved() {
		return Resolved
	}
	return State(o.state.Load())
}

// Result returns the shared result handle, creating it on first access.
// Obtaining it does not start the pipeline.
func (o *operation[T]) Result() *Result[T] {
	o.resultOnce.Do(func() {
		o.result = newResult[T]()
	})
	return o.result
}

func (o *operation[T]) Done() <-chan struct{} { return o.Result().Done() }

func (o *operation[T]) Err() error { return o.Result().Err() }

// Execute arms the operation with p and schedules the pipeline. The deadline starts
// counting when the scheduled pipeline begins, so time spent queued behind other work
// is not charged to it. The peripheral is only read from, never owned.
func (o *operation[T]) Execute(p device.Peripheral) error {
	if p == nil {
		return fmt.Errorf("%w: %s %s/%s executed without a peripheral", device.ErrInvalidUsage, o.kind, o.service, o.characteristic)
	}
	if !o.state.CompareAndSwap(int32(Constructed), int32(Armed)) {
		return fmt.Errorf("%w: %s %s/%s already executed (state %s)", device.ErrInvalidUsage, o.kind, o.service, o.characteristic, o.State())
	}

	result := o.Result()

	if o.opts.Timeout <= 0 {
		var zero T
		o.finish(zero, fmt.Errorf("%w: timeout must be positive, got %v", device.ErrInvalidConfiguration, o.opts.Timeout))
		return nil
	}

	o.logger.WithField("timeout", o.opts.Timeout).Debug("Executing operation")

	name := fmt.Sprintf("gatt-%s-%s-%s", o.kind, o.service, o.characteristic)
	o.opts.Scheduler.Go(name, func(ctx context.Context) {
		if result.Resolved() {
			return
		}
		o.armDeadline()

		value, err := o.run(ctx, p)
		if errors.Is(err, errAbandoned) {
			o.logger.Debug("Pipeline abandoned after resolution")
			return
		}
		o.finish(value, err)
	})

	return nil
}

// armDeadline starts the timeout. finish stops it under the same lock.
func (o *operation[T]) armDeadline() {
	o.timerMu.Lock()
	defer o.timerMu.Unlock()

	o.timer = o.opts.Scheduler.AfterFunc(o.opts.Timeout, func() {
		var zero T
		o.finish(zero, fmt.Errorf("%w: %s %s/%s after %v", device.ErrTimeout, o.kind, o.service, o.characteristic, o.opts.Timeout))
	})
}

// run invokes the pipeline, converting a panic into a failure so it never escapes the operation.
func (o *operation[T]) run(ctx context.Context, p device.Peripheral) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s %s/%s pipeline panic: %v", o.kind, o.service, o.characteristic, r)
		}
	}()
	return o.pipeline(ctx, p)
}

// finish resolves the result if it is still open. Only the first caller has any effect.
// The deadline is stopped first so it is never left pending once Done is observed.
func (o *operation[T]) finish(value T, err error) {
	o.timerMu.Lock()
	if o.timer != nil {
		o.timer.Stop()
	}
	o.timerMu.Unlock()

	if !o.Result().resolve(value, err) {
		return
	}

	if err != nil {
		o.logger.WithField("error", err).Warn("Operation failed")
		return
	}
	o.logger.Debug("Operation completed")
}

// abandoned reports whether the pipeline should stop issuing transport calls.
func (o *operation[T]) abandoned() bool {
	return o.Result().Resolved()
}
