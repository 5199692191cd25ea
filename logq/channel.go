// Package logq implements the log-aggregation hand-off between stages and
// the pipeline's single log sink. Stages enqueue formatted entries onto a
// shared channel; one Collector drains the channel into a slog.Logger. A
// stage does not report itself stopped until the channel has been observed
// empty, so no entry is lost when the stage goes away.
package logq

import (
	"github.com/glimte/flowline-go/contracts"
)

// Channel is the stage-facing side of the shared log queue.
type Channel interface {
	// Push enqueues one entry. Bounded implementations may block briefly
	// when the consumer falls behind.
	Push(entry contracts.LogEntry)
	// IsEmpty reports whether every pushed entry has been consumed. Stages
	// poll this during shutdown to honor the drain-before-stop guarantee.
	IsEmpty() bool
}

// Buffered is a channel-backed Channel shared by all stages of a pipeline.
type Buffered struct {
	entries chan contracts.LogEntry
}

// DefaultCapacity is the entry buffer size used by NewBuffered when the
// caller passes a non-positive capacity.
const DefaultCapacity = 1024

// NewBuffered creates a Buffered log channel.
func NewBuffered(capacity int) *Buffered {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffered{
		entries: make(chan contracts.LogEntry, capacity),
	}
}

// Push implements Channel. It blocks when the buffer is full; the collector
// normally keeps the channel close to empty.
func (b *Buffered) Push(entry contracts.LogEntry) {
	b.entries <- entry
}

// IsEmpty implements Channel.
func (b *Buffered) IsEmpty() bool {
	return len(b.entries) == 0
}

// TryPop removes the oldest entry without blocking. Consumers use it to
// drain the channel.
func (b *Buffered) TryPop() (contracts.LogEntry, bool) {
	select {
	case entry := <-b.entries:
		return entry, true
	default:
		return contracts.LogEntry{}, false
	}
}

var _ Channel = (*Buffered)(nil)
