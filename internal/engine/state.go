package engine

import "fmt"

// State is a step of the per-unit retry loop.
type State int

const (
	StatePending State = iota
	StateComposing
	StateRequesting
	StateValidating
	StateAccepted
	StateRejected
	StateExhausted
)

var stateNames = [...]string{
	StatePending:    "PENDING",
	StateComposing:  "COMPOSING",
	StateRequesting: "REQUESTING",
	StateValidating: "VALIDATING",
	StateAccepted:   "ACCEPTED",
	StateRejected:   "REJECTED",
	StateExhausted:  "EXHAUSTED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateAccepted || s == StateExhausted
}

var transitions = map[State][]State{
	StatePending:    {StateComposing},
	StateComposing:  {StateRequesting},
	StateRequesting: {StateValidating, StateRejected},
	StateValidating: {StateAccepted, StateRejected},
	StateRejected:   {StateComposing, StateExhausted},
}

// machine tracks one unit through the retry loop.
type machine struct {
	state       State
	attempt     int
	maxAttempts int
}

func newMachine(maxAttempts int) *machine {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &machine{state: StatePending, maxAttempts: maxAttempts}
}

// to moves to next. An illegal transition is a bug in the loop.
func (m *machine) to(next State) {
	for _, s := range transitions[m.state] {
		if s == next {
			if next == StateComposing {
				m.attempt++
			}
			m.state = next
			return
		}
	}
	panic(fmt.Sprintf("engine: illegal transition %s -> %s", m.state, next))
}

// reject records a failed attempt and returns the follow-up state:
// COMPOSING while attempts remain, EXHAUSTED otherwise.
func (m *machine) reject() State {
	m.to(StateRejected)
	if m.attempt < m.maxAttempts {
		return StateComposing
	}
	m.to(StateExhausted)
	return StateExhausted
}
