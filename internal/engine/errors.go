package engine

import (
	"fmt"
	"strings"

	"github.com/abhisek/prepgen/internal/problemgen"
)

// TransportError is a network, timeout or availability failure talking to
// a model. It rejects the attempt and never aborts the run.
type TransportError struct {
	Attempt int
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("attempt %d: transport: %v", e.Attempt, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExhaustionError reports a unit that used its whole attempt budget.
type ExhaustionError struct {
	Task     string
	Attempts int
	History  []problemgen.Attempt
}

func (e *ExhaustionError) Error() string {
	reasons := make([]string, len(e.History))
	for i, a := range e.History {
		reasons[i] = string(a.Reason)
	}
	msg := fmt.Sprintf("%s: no acceptable question after %d attempts", e.Task, e.Attempts)
	if len(reasons) > 0 {
		msg += " (" + strings.Join(reasons, ", ") + ")"
	}
	return msg
}

// PersistenceError is a store failure. It ends the current section; other
// sections still run.
type PersistenceError struct {
	Task string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Task, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
