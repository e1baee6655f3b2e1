package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/chatline/internal/bus"
)

// State represents the client's connection state.
type State string

const (
	Booting      State = "BOOTING"
	AuthRequired State = "AUTH_REQUIRED"
	Ready        State = "READY"
	Degraded     State = "DEGRADED"
	Error        State = "ERROR"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Booting:      {AuthRequired, Ready, Error},
	AuthRequired: {Ready, Error},
	Ready:        {Degraded, AuthRequired, Error},
	Degraded:     {Ready, AuthRequired, Error},
	Error:        {Booting},
}

// Machine tracks and enforces client state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Booting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Booting,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitionLocked(to)
}

func (m *Machine) transitionLocked(to State) error {
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.bus.Emit(bus.KindStatusChanged, StatusChange{From: from, To: to})
	return nil
}

// Observe folds the outcome of a backend call into the state. Failures move
// READY to DEGRADED, a success recovers DEGRADED, and an unauthorized
// response from a logged-in state asks for credentials again. States outside
// the READY/DEGRADED pair are left alone.
func (m *Machine) Observe(err error, unauthorized bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.current != Ready && m.current != Degraded:
		return
	case unauthorized:
		_ = m.transitionLocked(AuthRequired)
	case err != nil && m.current == Ready:
		_ = m.transitionLocked(Degraded)
	case err == nil && m.current == Degraded:
		_ = m.transitionLocked(Ready)
	}
}

// StatusChange is the payload for status change events.
type StatusChange struct {
	From State
	To   State
}
