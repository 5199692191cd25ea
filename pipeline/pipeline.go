// Package pipeline assembles worker stages into a runnable linear chain.
// It owns the shared collaborators of one run: the state store, the
// cancellation flag, the log channel and its collector, and the bounded
// queues between consecutive stages. Each stage's runner executes in its
// own goroutine; beyond the four shared paths the stages have no common
// mutable state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/glimte/flowline-go/cancel"
	"github.com/glimte/flowline-go/contracts"
	"github.com/glimte/flowline-go/logq"
	"github.com/glimte/flowline-go/pipestate"
	"github.com/glimte/flowline-go/queue"
	"github.com/glimte/flowline-go/worker"
)

// Pipeline is a linear chain of stages wired through bounded queues.
type Pipeline struct {
	id        string
	store     *pipestate.InMemoryStore
	states    *pipestate.Accessor
	quit      *cancel.Flag
	logs      *logq.Buffered
	collector *logq.Collector

	stages   []worker.Stage
	queues   []*queue.Buffered
	queueCap int
	cfg      worker.Config
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the sink logger for the pipeline's log collector.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithQueueCapacity sets the capacity of the inter-stage queues.
func WithQueueCapacity(capacity int) Option {
	return func(p *Pipeline) {
		p.queueCap = capacity
	}
}

// WithWorkerConfig sets the tuning constants applied to every stage runner.
func WithWorkerConfig(cfg worker.Config) Option {
	return func(p *Pipeline) {
		p.cfg = cfg
	}
}

// New creates an empty pipeline with a fresh instance ID.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		id:       uuid.New().String(),
		store:    pipestate.NewInMemoryStore(),
		quit:     cancel.NewFlag(),
		queueCap: 256,
		cfg:      worker.DefaultConfig(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.states = pipestate.NewAccessor(p.store)
	p.logs = logq.NewBuffered(0)
	p.collector = logq.NewCollector(p.logs,
		logq.WithCollectorLogger(p.logger.With("pipeline", p.id)))

	return p
}

// Append adds a stage to the tail of the chain and returns the pipeline for
// chaining. The first appended stage reads the feed queue; every stage's
// output queue is the next stage's input.
func (p *Pipeline) Append(stage worker.Stage) *Pipeline {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queues) == 0 {
		p.queues = append(p.queues, queue.NewBuffered(p.queueCap))
	}
	p.queues = append(p.queues, queue.NewBuffered(p.queueCap))
	p.stages = append(p.stages, stage)

	return p
}

// Feed pushes items onto the head stage's input queue. Stages with no
// upstream stop on their first empty poll, so the head queue is normally
// seeded before Run.
func (p *Pipeline) Feed(ctx context.Context, items ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queues) == 0 {
		return fmt.Errorf("pipeline %s has no stages to feed", p.id)
	}

	for _, item := range items {
		if err := p.queues[0].Push(ctx, item); err != nil {
			return fmt.Errorf("feed pipeline %s: %w", p.id, err)
		}
	}
	return nil
}

// InstanceID returns the unique ID of this pipeline run.
func (p *Pipeline) InstanceID() string { return p.id }

// States exposes the shared state accessor, mainly for inspection after a
// run.
func (p *Pipeline) States() *pipestate.Accessor { return p.states }

// Shutdown requests cooperative cancellation of every stage. The flag is
// never cleared for the rest of the run.
func (p *Pipeline) Shutdown() {
	p.quit.Set()
}

// Run executes every stage to completion and returns the joined errors of
// any runners that failed. The log collector is started before the first
// stage and stopped only after the last stage has drained and stopped.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("pipeline %s is already running", p.id)
	}
	if len(p.stages) == 0 {
		p.mu.Unlock()
		return fmt.Errorf("pipeline %s has no stages", p.id)
	}
	p.running = true

	runners := make([]*worker.Runner, len(p.stages))
	for i, stage := range p.stages {
		runners[i] = worker.NewRunner(stage, p.states,
			p.queues[i], p.queues[i+1], p.logs, p.quit,
			worker.WithConfig(p.cfg))
	}

	// Seed every stage's phase before any goroutine starts. A downstream
	// stage's first idle poll may read its upstream's phase before that
	// upstream's goroutine has been scheduled; without the seed that read
	// is a missing record and kills the stage. Setup happens before
	// concurrency begins, so the per-key single-writer rule holds.
	for _, stage := range p.stages {
		p.states.SetPhase(stage.ComponentName(), contracts.PhaseRunning)
	}
	p.mu.Unlock()

	p.logger.Info("pipeline starting",
		"pipeline", p.id,
		"stages", len(runners))

	p.collector.Start(ctx)
	defer p.collector.Stop()

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)

	for i := range runners {
		wg.Add(1)
		go func(r *worker.Runner) {
			defer wg.Done()

			if err := r.Run(ctx); err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
			}
		}(runners[i])
	}

	wg.Wait()

	p.logger.Info("pipeline terminated", "pipeline", p.id)

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return errors.Join(errs...)
}
