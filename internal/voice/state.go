package voice

import (
	"fmt"
	"slices"
)

// State is a phase of the recording session.
type State string

const (
	Idle      State = "IDLE"
	Armed     State = "ARMED"
	Recording State = "RECORDING"
	Stopping  State = "STOPPING"
)

var validTransitions = map[State][]State{
	Idle:      {Armed},
	Armed:     {Recording, Idle},
	Recording: {Stopping, Idle},
	Stopping:  {Idle},
}

func checkTransition(from, to State) error {
	if !slices.Contains(validTransitions[from], to) {
		return fmt.Errorf("invalid voice transition from %s to %s", from, to)
	}
	return nil
}

// StateChange is the payload of voice.state_changed events. Err is set when
// the session fell back to idle because of a failure.
type StateChange struct {
	From State
	To   State
	Err  error
}
