// Package dedup decides whether a candidate question duplicates one already
// in the bank: exact text first, then a category rule, then semantic
// adjudication by a secondary model.
package dedup

import "fmt"

// Scope selects which prior questions a candidate is compared against.
type Scope string

const (
	// ScopeCurrentMode compares against the same sub-skill in the mode
	// being generated.
	ScopeCurrentMode Scope = "current_mode"

	// ScopeAllModes compares against the sub-skill across every mode.
	ScopeAllModes Scope = "all_modes"
)

// ParseScope validates a scope name. Empty selects ScopeCurrentMode.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeCurrentMode:
		return ScopeCurrentMode, nil
	case ScopeAllModes:
		return ScopeAllModes, nil
	}
	return "", fmt.Errorf("unknown search scope %q (want current_mode or all_modes)", s)
}

// Verdict is the outcome of comparing a candidate with one prior question.
type Verdict int

const (
	Undecided Verdict = iota
	Distinct
	Duplicate
)

func (v Verdict) String() string {
	switch v {
	case Distinct:
		return "distinct"
	case Duplicate:
		return "duplicate"
	default:
		return "undecided"
	}
}

// Item is the part of a question the duplicate rules look at.
type Item struct {
	Text      string
	PassageID string
}
