// Package cancel provides the shared cancellation signal observed by every
// stage in a pipeline run. The signal is set exactly once, by pipeline-level
// shutdown logic; stages only ever sample it, at the throttled check points
// of their run loop, and never clear it.
package cancel

import (
	"context"
	"sync/atomic"
)

// Signal is the read side of the shared cancellation flag.
type Signal interface {
	// IsSet reports whether cancellation was requested. Once true it stays
	// true for the rest of the pipeline run.
	IsSet() bool
}

// Flag is the standard Signal implementation: a process-wide atomic
// boolean shared by all stages of one pipeline.
type Flag struct {
	set atomic.Bool
}

// NewFlag creates an unset Flag.
func NewFlag() *Flag {
	return &Flag{}
}

// Set requests cancellation. Calling it more than once is harmless.
func (f *Flag) Set() {
	f.set.Store(true)
}

// IsSet implements Signal.
func (f *Flag) IsSet() bool {
	return f.set.Load()
}

var _ Signal = (*Flag)(nil)

// contextSignal adapts a context's done state to the Signal contract.
type contextSignal struct {
	ctx context.Context
}

func (c contextSignal) IsSet() bool {
	return c.ctx.Err() != nil
}

// FromContext returns a Signal that reports set once ctx is cancelled.
// Useful when a pipeline's lifetime is already governed by a context.
func FromContext(ctx context.Context) Signal {
	return contextSignal{ctx: ctx}
}
