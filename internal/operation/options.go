package operation

import (
	"io"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/gattop/internal/scheduler"
)

// DefaultTimeout bounds an operation when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Options configures an operation at construction time.
type Options struct {
	// Timeout bounds the whole pipeline, measured from Execute.
	Timeout time.Duration `default:"30s"`

	// Scheduler runs the pipeline and the timeout guard.
	Scheduler scheduler.Scheduler

	Logger *logrus.Logger

	// Progress, if set, is called after each acknowledged chunk with the bytes sent so far.
	Progress func(sent, total int)
}

// Option mutates Options.
type Option func(*Options)

// DefaultOptions returns the library defaults: DefaultTimeout, the utility
// scheduler and a silent logger.
func DefaultOptions() Options {
	opts := Options{
		Scheduler: scheduler.Utility(),
		Logger:    silentLogger(),
	}
	defaults.SetDefaults(&opts)
	return opts
}

// WithTimeout overrides the operation deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithScheduler selects the execution context for the pipeline.
func WithScheduler(s scheduler.Scheduler) Option {
	return func(o *Options) {
		if s != nil {
			o.Scheduler = s
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *logrus.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithProgress registers a per-chunk progress callback.
func WithProgress(fn func(sent, total int)) Option {
	return func(o *Options) { o.Progress = fn }
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
