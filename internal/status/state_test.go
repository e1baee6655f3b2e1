package status

import (
	"errors"
	"testing"

	"github.com/matheus3301/chatline/internal/bus"
)

func TestInitialState(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Booting {
		t.Errorf("initial state = %s, want BOOTING", m.Current())
	}
}

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
	}{
		{Booting, AuthRequired},
		{Booting, Ready},
		{Booting, Error},
		{AuthRequired, Ready},
		{Ready, Degraded},
		{Ready, AuthRequired},
		{Degraded, Ready},
		{Error, Booting},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			m := NewMachine(nil)
			walkTo(t, m, tt.from)
			if err := m.Transition(tt.to); err != nil {
				t.Errorf("Transition(%s -> %s) error = %v", tt.from, tt.to, err)
			}
			if m.Current() != tt.to {
				t.Errorf("state = %s, want %s", m.Current(), tt.to)
			}
		})
	}
}

func TestInvalidTransition(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Transition(Degraded); err == nil {
		t.Error("Transition(BOOTING -> DEGRADED) should fail")
	}
	if m.Current() != Booting {
		t.Errorf("state = %s, want BOOTING", m.Current())
	}
}

func TestTransitionEmitsEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("client.", 10)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(AuthRequired); err != nil {
		t.Fatal(err)
	}

	evt := <-ch
	if evt.Kind != bus.KindStatusChanged {
		t.Errorf("event kind = %q, want %s", evt.Kind, bus.KindStatusChanged)
	}
	change, ok := evt.Payload.(StatusChange)
	if !ok {
		t.Fatalf("payload type = %T, want StatusChange", evt.Payload)
	}
	if change.From != Booting || change.To != AuthRequired {
		t.Errorf("change = %v -> %v, want BOOTING -> AUTH_REQUIRED", change.From, change.To)
	}
}

func TestObserveDegradesAndRecovers(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Ready)

	m.Observe(errors.New("connection refused"), false)
	if m.Current() != Degraded {
		t.Fatalf("after failure state = %s, want DEGRADED", m.Current())
	}
	m.Observe(errors.New("still down"), false)
	if m.Current() != Degraded {
		t.Fatalf("after second failure state = %s, want DEGRADED", m.Current())
	}
	m.Observe(nil, false)
	if m.Current() != Ready {
		t.Errorf("after success state = %s, want READY", m.Current())
	}
}

func TestObserveUnauthorized(t *testing.T) {
	m := NewMachine(nil)
	walkTo(t, m, Degraded)

	m.Observe(errors.New("401"), true)
	if m.Current() != AuthRequired {
		t.Errorf("state = %s, want AUTH_REQUIRED", m.Current())
	}
}

func TestObserveIgnoredWhileBooting(t *testing.T) {
	m := NewMachine(nil)
	m.Observe(errors.New("boom"), false)
	m.Observe(errors.New("401"), true)
	if m.Current() != Booting {
		t.Errorf("state = %s, want BOOTING", m.Current())
	}
}

// walkTo is a helper that transitions the machine to a target state.
func walkTo(t *testing.T, m *Machine, target State) {
	t.Helper()
	paths := map[State][]State{
		Booting:      {},
		AuthRequired: {AuthRequired},
		Ready:        {Ready},
		Degraded:     {Ready, Degraded},
		Error:        {Error},
	}
	for _, s := range paths[target] {
		if err := m.Transition(s); err != nil {
			t.Fatalf("walkTo(%s): %v", target, err)
		}
	}
}
