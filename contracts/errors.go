package contracts

import (
	"errors"
	"fmt"
)

// ErrNoUpstream is returned by Stage.UpstreamComponentName when the stage
// has no upstream component. The termination protocol treats it as "stop as
// soon as the input queue is empty".
var ErrNoUpstream = errors.New("no upstream component")

// MissingRecordError indicates a read of a state-store key that was never
// written. This is a programming error (querying a component that does not
// exist or has not reached the expected phase yet) and must not be silently
// defaulted by callers.
type MissingRecordError struct {
	Key string
}

func (e *MissingRecordError) Error() string {
	return fmt.Sprintf("no record for key %q", e.Key)
}

// IsMissingRecord reports whether err wraps a MissingRecordError.
func IsMissingRecord(err error) bool {
	var m *MissingRecordError
	return errors.As(err, &m)
}
