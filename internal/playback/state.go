// Package playback tracks the per-stream playback lifecycle the egress
// side exposes to callers deciding whether it's safe to start a new
// playout stream or must wait for the current one to finish draining.
package playback

import "sync"

// State is a playback lifecycle state.
type State string

const (
	Idle        State = "idle"
	Playing     State = "playing"
	Draining    State = "draining"
	Interrupted State = "interrupted"
)

// transitions enumerates the legal State -> State edges.
var transitions = map[State]map[State]bool{
	Idle:        {Playing: true},
	Playing:     {Draining: true, Interrupted: true},
	Draining:    {Idle: true, Interrupted: true},
	Interrupted: {Idle: true},
}

// Machine is a small mutex-guarded playback state machine. Illegal
// transitions are rejected rather than silently coerced.
type Machine struct {
	mu    sync.Mutex
	state State
}

// New constructs a Machine starting in Idle.
func New() *Machine {
	return &Machine{state: Idle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transition attempts to move to next, returning whether it was legal. An
// illegal transition leaves the state unchanged.
func (m *Machine) Transition(next State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !transitions[m.state][next] {
		return false
	}
	m.state = next
	return true
}
