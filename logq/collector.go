package logq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/glimte/flowline-go/contracts"
)

// Collector is the single consumer of a pipeline's log channel. It runs as
// a background goroutine, draining entries into a slog.Logger with the
// originating component attached as an attribute.
type Collector struct {
	source       *Buffered
	logger       *slog.Logger
	pollInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithCollectorLogger sets the sink logger. Defaults to slog.Default().
func WithCollectorLogger(logger *slog.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithPollInterval sets how long the collector sleeps when the channel is
// empty.
func WithPollInterval(interval time.Duration) CollectorOption {
	return func(c *Collector) {
		c.pollInterval = interval
	}
}

// NewCollector creates a collector for source.
func NewCollector(source *Buffered, opts ...CollectorOption) *Collector {
	c := &Collector{
		source:       source,
		logger:       slog.Default(),
		pollInterval: 20 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start launches the drain goroutine. Starting an already running collector
// is a no-op.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	c.running = true

	go c.drain(ctx)
}

// Stop drains whatever is still queued, then stops the goroutine and waits
// for it to exit. Stages block on the channel being empty before reporting
// stopped, so Stop must not abandon queued entries.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.running = false
	c.mu.Unlock()

	cancel()
	<-done
}

func (c *Collector) drain(ctx context.Context) {
	defer close(c.done)

	for {
		entry, ok := c.source.TryPop()
		if !ok {
			select {
			case <-ctx.Done():
				// Final sweep: anything pushed between the last pop and
				// the cancellation still has to reach the sink.
				c.flush()
				return
			case <-time.After(c.pollInterval):
			}
			continue
		}

		c.emit(entry)
	}
}

func (c *Collector) flush() {
	for {
		entry, ok := c.source.TryPop()
		if !ok {
			return
		}
		c.emit(entry)
	}
}

func (c *Collector) emit(entry contracts.LogEntry) {
	c.logger.Log(context.Background(), entry.Level, entry.Message,
		"component", entry.Component,
		"timestamp", entry.Timestamp)
}
