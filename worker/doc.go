// Package worker provides the run-loop skeleton shared by every stage of a
// flowline pipeline.
//
// A stage is an independently scheduled unit that reads items from an input
// queue, processes them, and pushes results downstream. Stages do not talk
// to each other directly: items travel through bounded queues, lifecycle
// metadata through a shared state store, shutdown through a shared
// cancellation signal, and diagnostics through a shared log channel. Those
// four paths are the only cross-stage communication.
//
// The Runner drives a Stage through its three lifecycle phases:
//
//	RUNNING -> FINISHED -> STOPPED
//
// On start the runner records RUNNING, then polls the input queue without
// blocking. Each item increments the read count and is handed to the
// stage's ProcessItem. When the queue is empty the runner consults the
// termination protocol: a stage with no upstream stops immediately; a stage
// whose upstream has STOPPED stops once its read count matches the
// upstream's published completion record; otherwise it backs off and polls
// again. On loop exit the post-loop hook (by default MarkFinished, which
// publishes the completion record and records FINISHED) runs, the runner
// blocks until the log channel is drained, and only then records STOPPED.
//
// Basic usage:
//
//	r := worker.NewRunner(stage, states, input, output, logs, quit)
//	if err := r.Run(ctx); err != nil {
//	    // contract violation or store failure
//	}
//
// Cancellation is cooperative: the shared signal is sampled at throttled
// check points and never interrupts an in-progress ProcessItem call, and a
// cancelled stage walks the same finish/drain/stop path as a normal
// end-of-input.
package worker
