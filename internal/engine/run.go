package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunState tracks a generation run through its lifecycle. States advance
// strictly forward, one step at a time.
type RunState int

const (
	RunPlanned RunState = iota
	RunScheduled
	RunExecuting
	RunProjected
	RunDone
)

var runStateNames = [...]string{"planned", "scheduled", "executing", "projected", "done"}

func (s RunState) String() string {
	if s < 0 || int(s) >= len(runStateNames) {
		return fmt.Sprintf("unknown(%d)", int(s))
	}
	return runStateNames[s]
}

// TransitionError reports an attempt to move a run somewhere other than the
// next state in the chain.
type TransitionError struct {
	From RunState
	To   RunState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("engine: illegal run transition %s -> %s", e.From, e.To)
}

// Run is the bookkeeping record for one generation run.
type Run struct {
	ID        string
	State     RunState
	StartedAt time.Time
	UpdatedAt time.Time
}

// NewRun returns a planned run with a fresh id.
func NewRun() *Run {
	now := time.Now().UTC()
	return &Run{
		ID:        uuid.New().String(),
		State:     RunPlanned,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the run to the given state. Only the immediate successor of
// the current state is legal; anything else returns a TransitionError and
// leaves the run untouched.
func (r *Run) Advance(to RunState) error {
	if to != r.State+1 || to > RunDone {
		return &TransitionError{From: r.State, To: to}
	}
	r.State = to
	r.UpdatedAt = time.Now().UTC()
	return nil
}
