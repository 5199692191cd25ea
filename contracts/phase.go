package contracts

// Phase represents the lifecycle phase of a pipeline stage.
type Phase string

const (
	// PhaseRunning is the initial phase, entered when the run loop starts.
	PhaseRunning Phase = "running"
	// PhaseFinished means the stage has published its completion record
	// and will produce no further items.
	PhaseFinished Phase = "finished"
	// PhaseStopped means the stage has drained its log entries and is gone.
	// Downstream stages key their own termination off this phase.
	PhaseStopped Phase = "stopped"
)

// CanTransition reports whether moving from p to next is a legal forward
// transition. Phases are strictly monotonic: RUNNING -> FINISHED -> STOPPED,
// never revisited.
func (p Phase) CanTransition(next Phase) bool {
	switch p {
	case PhaseRunning:
		return next == PhaseFinished || next == PhaseStopped
	case PhaseFinished:
		return next == PhaseStopped
	default:
		return false
	}
}

// Valid reports whether p is one of the three defined phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseRunning, PhaseFinished, PhaseStopped:
		return true
	}
	return false
}

func (p Phase) String() string {
	return string(p)
}
