package pipestate

import (
	"fmt"

	"github.com/glimte/flowline-go/contracts"
)

// CompletionCountKey is the data key under which a finishing stage records
// the total number of items it pushed downstream.
const CompletionCountKey = "count"

// Accessor wraps a Store with the key scheme shared by all stages:
// "running_<name>" for phases and "data_<name>_<key>" for per-component
// data such as the completion record. The two prefixes keep phase and data
// entries from colliding.
type Accessor struct {
	store Store
}

// NewAccessor creates an accessor over store.
func NewAccessor(store Store) *Accessor {
	return &Accessor{store: store}
}

func phaseKey(component string) string {
	return "running_" + component
}

func dataKey(component, key string) string {
	return "data_" + component + "_" + key
}

// SetPhase records the lifecycle phase of component. Only the owning stage
// may call this for its own name.
func (a *Accessor) SetPhase(component string, phase contracts.Phase) {
	a.store.Set(phaseKey(component), phase)
}

// Phase returns the recorded lifecycle phase of component. Reading a
// component that never started is a MissingRecordError.
func (a *Accessor) Phase(component string) (contracts.Phase, error) {
	v, err := get(a.store, phaseKey(component))
	if err != nil {
		return "", err
	}

	phase, ok := v.(contracts.Phase)
	if !ok {
		return "", fmt.Errorf("phase record for %q holds %T, not a phase", component, v)
	}
	if !phase.Valid() {
		return "", fmt.Errorf("phase record for %q holds unknown phase %q", component, phase)
	}
	return phase, nil
}

// SetData records an arbitrary per-component value. Only the owning stage
// may call this for its own name.
func (a *Accessor) SetData(component, key string, value any) {
	a.store.Set(dataKey(component, key), value)
}

// Data returns a per-component value written with SetData.
func (a *Accessor) Data(component, key string) (any, error) {
	return get(a.store, dataKey(component, key))
}

// SetCompletionCount publishes the completion record for component: the
// total number of items it ever pushed downstream. It is written exactly
// once, immediately before the transition to FINISHED, and is immutable
// thereafter.
func (a *Accessor) SetCompletionCount(component string, count int) {
	a.SetData(component, CompletionCountKey, count)
}

// CompletionCount reads the completion record of component.
func (a *Accessor) CompletionCount(component string) (int, error) {
	v, err := a.Data(component, CompletionCountKey)
	if err != nil {
		return 0, err
	}

	count, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("completion record for %q holds %T, not an int", component, v)
	}
	return count, nil
}
