package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/flowline-go/contracts"
)

// handleQueueIdle is the termination detection protocol, invoked only when
// the input queue came up empty. It reports whether the stage should stop.
//
// Decision order: a stage with no upstream stops immediately; otherwise the
// upstream's phase decides. While the upstream is alive the stage keeps
// waiting. Once the upstream has STOPPED, its completion record tells this
// stage exactly how many items must have arrived: equality means full drain
// and a stop, a shortfall means items are still in flight in the queue, and
// an overrun is reported as an accounting anomaly without by itself
// stopping the stage. Every "keep waiting" branch still runs the throttled
// cancellation check and the idle hook before the back-off sleep.
func (r *Runner) handleQueueIdle(ctx context.Context) (bool, error) {
	name := r.stage.ComponentName()

	upstream, err := r.stage.UpstreamComponentName()
	if err != nil {
		if !errors.Is(err, contracts.ErrNoUpstream) {
			return false, fmt.Errorf("resolve upstream of %s: %w", name, err)
		}

		r.Log(slog.LevelInfo, "component [%s] is idle and there's no upstream component, stopping", name)
		return true, nil
	}

	phase, err := r.states.Phase(upstream)
	if err != nil {
		return false, fmt.Errorf("read phase of upstream %s: %w", upstream, err)
	}

	if phase == contracts.PhaseStopped {
		expected, err := r.states.CompletionCount(upstream)
		if err != nil {
			return false, fmt.Errorf("read completion record of upstream %s: %w", upstream, err)
		}

		switch {
		case r.readCount == expected:
			r.Log(slog.LevelInfo, "component [%s] is idle, upstream [%s] has ended, and we have consumed all items (%d), stopping", name, upstream, r.readCount)
			return true, nil
		case r.readCount > expected:
			// Overrun usually means duplicate delivery somewhere upstream.
			// Reported, not a termination cause on its own.
			r.Log(slog.LevelError, "component [%s] has received more items than were pushed by upstream [%s]: (%d) > (%d)", name, upstream, r.readCount, expected)
		default:
			r.Log(slog.LevelDebug, "upstream component [%s] has ended, but downstream component [%s] is not caught up yet: have (%d) != need (%d)", upstream, name, r.readCount, expected)
		}
	}

	if r.checkQuit() {
		return true, nil
	}

	if idle, ok := r.stage.(IdleHook); ok {
		if err := idle.LoopIdle(ctx, r); err != nil {
			if errors.Is(err, ErrStop) {
				r.Log(slog.LevelInfo, "component [%s] is idle and we've been told to break", name)
				return true, nil
			}
			return false, fmt.Errorf("idle hook of %s: %w", name, err)
		}
	}

	time.Sleep(r.cfg.IdleSleep)

	return false, nil
}
