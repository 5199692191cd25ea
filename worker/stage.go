package worker

import (
	"context"
	"errors"
)

// ErrStop is returned by ProcessItem or LoopIdle to request a clean end of
// the run loop. It is a request, not a failure; the runner logs it at info
// level and proceeds through the normal shutdown path.
var ErrStop = errors.New("stage requested stop")

// Stage is the contract a concrete pipeline stage must implement. The
// runner operates purely over this interface plus the optional hook
// interfaces below.
type Stage interface {
	// ComponentName returns the stage's unique name within the pipeline.
	// Phase and completion-record entries in the state store are keyed by
	// this name.
	ComponentName() string

	// UpstreamComponentName returns the name of the component feeding this
	// stage's input queue. Stages with no upstream return
	// contracts.ErrNoUpstream; the termination protocol then stops the
	// stage on its first empty poll.
	UpstreamComponentName() (string, error)

	// ProcessItem handles one item from the input queue. Returning nil
	// continues the loop, ErrStop requests termination, and any other
	// error is logged at error level and also ends the loop.
	ProcessItem(ctx context.Context, r *Runner, item any) error
}

// PreLoopHook runs once before the first queue poll. Setup work such as
// seeding counters or opening resources belongs here.
type PreLoopHook interface {
	PreLoop(ctx context.Context, r *Runner) error
}

// IdleHook runs on every idle poll that did not already decide to stop.
// Returning ErrStop breaks the loop; any other error is fatal to the stage.
type IdleHook interface {
	LoopIdle(ctx context.Context, r *Runner) error
}

// PostLoopHook runs once after the loop exits, for any exit reason. Stages
// that do not implement it get the default behavior: r.MarkFinished(),
// which publishes the completion record and records the FINISHED phase.
// Stages that push nothing downstream (sinks) must implement PostLoop,
// since finishing with a zero push count is a contract violation.
type PostLoopHook interface {
	PostLoop(ctx context.Context, r *Runner) error
}
