package main

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

const (
	progressUpdateInterval = 100 * time.Millisecond
	clearLineSequence      = "\r\033[K"
)

// ProgressPrinter displays a single status line with the current phase and elapsed time.
//
// Usage:
//
//	p := NewProgressPrinter(os.Stdout, "Writing 512 bytes", "Connecting")
//	p.Start()
//	defer p.Stop()
//
// A ProgressPrinter is single-use. Stop is safe to call on a printer that was never started.
type ProgressPrinter struct {
	out       io.Writer
	prefix    string
	phase     atomic.Value // stores string - current phase name
	startTime time.Time
	ticker    atomic.Pointer[time.Ticker]
	stopChan  chan struct{}
	done      chan struct{} // closed when goroutine exits
	started   atomic.Bool
}

// NewProgressPrinter creates a progress printer writing to out.
func NewProgressPrinter(out io.Writer, prefix string, phase string) *ProgressPrinter {
	p := &ProgressPrinter{
		out:    out,
		prefix: prefix,
	}
	p.phase.Store(phase)
	return p
}

// progressEnabled reports whether out is an interactive terminal
func progressEnabled(out io.Writer) bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start begins displaying progress updates in a background goroutine.
// Panics if called more than once on the same ProgressPrinter instance.
func (p *ProgressPrinter) Start() {
	if !p.started.CompareAndSwap(false, true) {
		panic("ProgressPrinter.Start called more than once")
	}

	p.done = make(chan struct{})
	p.stopChan = make(chan struct{})
	p.startTime = time.Now()
	ticker := time.NewTicker(progressUpdateInterval)
	p.ticker.Store(ticker)

	_, _ = fmt.Fprintf(p.out, "\r%s (%s...)   ", p.prefix, p.Phase())

	go func() {
		defer close(p.done)

		for {
			select {
			case <-p.stopChan:
				return
			case <-ticker.C:
				seconds := int(time.Since(p.startTime).Seconds())
				if seconds > 0 {
					_, _ = fmt.Fprintf(p.out, "\r%s (%s %ds)   ", p.prefix, p.Phase(), seconds)
				} else {
					_, _ = fmt.Fprintf(p.out, "\r%s (%s...)   ", p.prefix, p.Phase())
				}
			}
		}
	}()
}

// SetPhase replaces the phase shown on the next tick. Safe for concurrent use.
func (p *ProgressPrinter) SetPhase(phase string) {
	p.phase.Store(phase)
}

// Phase returns the current phase.
func (p *ProgressPrinter) Phase() string {
	return p.phase.Load().(string)
}

// Chunks returns a write progress callback that renders "sent/total bytes" as the phase.
func (p *ProgressPrinter) Chunks() func(sent, total int) {
	return func(sent, total int) {
		p.SetPhase(fmt.Sprintf("%d/%d bytes", sent, total))
	}
}

// Stop stops the progress display and clears the line.
// This function is safe to call multiple times and from multiple goroutines.
func (p *ProgressPrinter) Stop() {
	ticker := p.ticker.Swap(nil)
	if ticker == nil {
		return // Never started or already stopped
	}

	ticker.Stop()
	close(p.stopChan)
	<-p.done

	_, _ = fmt.Fprint(p.out, clearLineSequence)
}
