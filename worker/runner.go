package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/flowline-go/cancel"
	"github.com/glimte/flowline-go/contracts"
	"github.com/glimte/flowline-go/logq"
	"github.com/glimte/flowline-go/pipestate"
	"github.com/glimte/flowline-go/queue"
)

// Runner drives one Stage through its lifecycle. It owns no collaborators:
// queues, store, signal, and log channel are supplied at construction and
// remain valid for the runner's whole lifetime.
type Runner struct {
	stage  Stage
	states *pipestate.Accessor
	input  queue.Queue
	output queue.Queue
	logs   logq.Channel
	quit   cancel.Signal
	cfg    Config

	tick          int64
	readCount     int
	pushCount     int
	lastQuitCheck time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConfig replaces the default tuning constants.
func WithConfig(cfg Config) RunnerOption {
	return func(r *Runner) {
		cfg.validate()
		r.cfg = cfg
	}
}

// NewRunner creates a runner for stage. The output queue may be nil for
// sink stages; every other collaborator is required.
func NewRunner(stage Stage, states *pipestate.Accessor, input, output queue.Queue, logs logq.Channel, quit cancel.Signal, opts ...RunnerOption) *Runner {
	r := &Runner{
		stage:  stage,
		states: states,
		input:  input,
		output: output,
		logs:   logs,
		quit:   quit,
		cfg:    DefaultConfig(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Tick returns the loop's monotonically increasing iteration counter.
func (r *Runner) Tick() int64 { return r.tick }

// ReadCount returns the number of items consumed from the input queue.
func (r *Runner) ReadCount() int { return r.readCount }

// PushCount returns the number of items pushed downstream so far.
func (r *Runner) PushCount() int { return r.pushCount }

// Log formats template with args and enqueues the entry on the shared log
// channel under this stage's component name. Nothing is written to a sink
// here; the pipeline's collector is the single consumer.
func (r *Runner) Log(level slog.Level, template string, args ...any) {
	r.logs.Push(contracts.NewLogEntry(r.stage.ComponentName(), level, template, args...))
}

// PushOutput forwards one item downstream and counts it toward the
// completion record.
func (r *Runner) PushOutput(ctx context.Context, item any) error {
	if r.output == nil {
		return fmt.Errorf("component %s has no output queue", r.stage.ComponentName())
	}
	if err := r.output.Push(ctx, item); err != nil {
		return fmt.Errorf("push from %s: %w", r.stage.ComponentName(), err)
	}
	r.pushCount++
	return nil
}

// MarkFinished publishes the completion record (the total push count) and
// records the FINISHED phase. The record is written before the phase so
// that any reader who observes FINISHED can also read the count.
//
// It is called by the default post-loop behavior; stages that finish early
// may call it sooner but must then supply their own PostLoop. Calling it
// twice, or with a zero push count, is a contract violation and panics.
func (r *Runner) MarkFinished() {
	name := r.stage.ComponentName()

	r.Log(slog.LevelInfo, "component [%s] is being marked as finished", name)

	phase, err := r.states.Phase(name)
	if err != nil {
		panic(fmt.Sprintf("finishing %s before it started: %s", name, err))
	}
	if !phase.CanTransition(contracts.PhaseFinished) {
		panic(fmt.Sprintf("component %s can not finish from phase %q", name, phase))
	}
	if r.pushCount == 0 {
		panic(fmt.Sprintf("component %s finish count must be greater than zero", name))
	}

	r.states.SetCompletionCount(name, r.pushCount)
	r.states.SetPhase(name, contracts.PhaseFinished)
}

// Run executes the stage until end-of-input, a stop request, or
// cancellation, then walks the finish/drain/stop shutdown path. It returns
// an error when the stage contract was violated (store failures, hook
// failures); routine termination returns nil.
func (r *Runner) Run(ctx context.Context) error {
	name := r.stage.ComponentName()

	r.states.SetPhase(name, contracts.PhaseRunning)
	r.Log(slog.LevelInfo, "[%s] component running", name)

	if pre, ok := r.stage.(PreLoopHook); ok {
		if err := pre.PreLoop(ctx, r); err != nil {
			return fmt.Errorf("pre-loop hook of %s: %w", name, err)
		}
	}

	var runErr error
	for {
		item, ok := r.input.TryPop()
		if !ok {
			stop, err := r.handleQueueIdle(ctx)
			if err != nil {
				// Programming error in the coordination protocol. The
				// normal shutdown path must not be reachable from here.
				return err
			}
			if stop {
				break
			}
			r.advanceTick()
			continue
		}

		r.readCount++

		if r.checkQuit() {
			break
		}

		if r.tick%r.cfg.ProgressLogTickInterval == 0 {
			r.Log(slog.LevelDebug, "component [%s] progress: (%d)", name, r.tick)
		}

		if err := r.stage.ProcessItem(ctx, r, item); err != nil {
			if errors.Is(err, ErrStop) {
				r.Log(slog.LevelInfo, "item processing for component [%s] has requested loop termination", name)
			} else {
				r.Log(slog.LevelError, "item processing for component [%s] failed: %s", name, err)
				runErr = fmt.Errorf("process item in %s: %w", name, err)
			}
			break
		}

		r.advanceTick()
	}

	if post, ok := r.stage.(PostLoopHook); ok {
		if err := post.PostLoop(ctx, r); err != nil && runErr == nil {
			runErr = fmt.Errorf("post-loop hook of %s: %w", name, err)
		}
	} else {
		r.MarkFinished()
	}

	r.Log(slog.LevelInfo, "component [%s] loop has terminated", name)

	r.waitForLogDrain()

	r.states.SetPhase(name, contracts.PhaseStopped)

	return runErr
}

// advanceTick moves the iteration counter forward. It is the single tick
// mechanism: exactly one call per loop iteration, on both the item path and
// the idle path.
func (r *Runner) advanceTick() {
	r.tick++
}

// checkQuit samples the shared cancellation signal, throttled so that a
// potentially expensive read does not run on every tick: it samples only on
// a tick-interval boundary, on the very first check, or when the wall-clock
// interval has elapsed since the last sample.
func (r *Runner) checkQuit() bool {
	due := r.tick%r.cfg.QuitCheckTickInterval == 0 ||
		r.lastQuitCheck.IsZero() ||
		time.Since(r.lastQuitCheck) > r.cfg.QuitCheckInterval
	if !due {
		return false
	}

	if r.quit.IsSet() {
		r.Log(slog.LevelInfo, "[%s] component terminated", r.stage.ComponentName())
		return true
	}

	r.lastQuitCheck = time.Now()
	return false
}

// waitForLogDrain blocks until the shared log channel reports empty, so a
// consumer has had the opportunity to observe every entry this stage
// produced before the stage announces it is gone.
func (r *Runner) waitForLogDrain() {
	for !r.logs.IsEmpty() {
		time.Sleep(r.cfg.LogDrainPollInterval)
	}
}
