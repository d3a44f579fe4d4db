package status

import (
	"fmt"
	"slices"
	"sync"
)

// State represents the push channel connection state.
type State string

const (
	Idle         State = "IDLE"
	Connecting   State = "CONNECTING"
	Connected    State = "CONNECTED"
	Reconnecting State = "RECONNECTING"
	Failed       State = "FAILED"
	Closed       State = "CLOSED"
)

// validTransitions defines allowed state transitions. Failed is terminal for
// the session apart from shutdown.
var validTransitions = map[State][]State{
	Idle:         {Connecting, Closed},
	Connecting:   {Connected, Reconnecting, Failed, Closed},
	Connected:    {Reconnecting, Failed, Closed},
	Reconnecting: {Connecting, Failed, Closed},
	Failed:       {Closed},
	Closed:       {},
}

// Label returns the short text shown in the status bar.
func (s State) Label() string {
	switch s {
	case Connected:
		return "live"
	case Connecting:
		return "connecting"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "offline"
	case Closed:
		return "closed"
	default:
		return "idle"
	}
}

// StatusChange is passed to the change listener.
type StatusChange struct {
	From State
	To   State
}

// Machine tracks and enforces push channel state transitions.
type Machine struct {
	mu       sync.RWMutex
	current  State
	onChange func(StatusChange)
}

// NewMachine creates a new state machine starting in Idle. onChange may be
// nil; it is called outside the machine's lock after every transition.
func NewMachine(onChange func(StatusChange)) *Machine {
	return &Machine{
		current:  Idle,
		onChange: onChange,
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
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	m.mu.Unlock()

	if m.onChange != nil {
		m.onChange(StatusChange{From: from, To: to})
	}
	return nil
}
