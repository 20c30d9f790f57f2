// Package report collects per-section outcomes of a gap-fill run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// Outcome is the result of one generation unit.
type Outcome string

const (
	OutcomeGenerated Outcome = "generated"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Unit is the outcome of one question slot.
type Unit struct {
	Task       string  `json:"task"`
	Mode       string  `json:"mode"`
	Difficulty int     `json:"difficulty"`
	Outcome    Outcome `json:"outcome"`
	Attempts   int     `json:"attempts"`

	// QuestionID is set for generated units.
	QuestionID string `json:"question_id,omitempty"`

	// Reasons lists the rejection reason of every failed attempt.
	Reasons []string `json:"reasons,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Section aggregates the units of one product section.
type Section struct {
	QuestionsGenerated int      `json:"questions_generated"`
	PassagesGenerated  int      `json:"passages_generated"`
	Failed             int      `json:"failed"`
	Skipped            int      `json:"skipped"`
	Errors             []string `json:"errors"`
	Warnings           []string `json:"warnings"`
	Duration           string   `json:"duration"`
	Units              []Unit   `json:"units"`

	elapsed time.Duration
}

// Elapsed returns the time spent on the section.
func (s *Section) Elapsed() time.Duration { return s.elapsed }

// SetElapsed records the time spent on the section.
func (s *Section) SetElapsed(d time.Duration) {
	s.elapsed = d
	s.Duration = d.Round(time.Millisecond).String()
}

// AddUnit records a unit outcome and updates the counters.
func (s *Section) AddUnit(u Unit) {
	switch u.Outcome {
	case OutcomeGenerated:
		s.QuestionsGenerated++
	case OutcomeFailed:
		s.Failed++
	case OutcomeSkipped:
		s.Skipped++
	}
	s.Units = append(s.Units, u)
}

func (s *Section) AddError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

func (s *Section) AddWarning(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// Surplus is a bucket over target. Surpluses are never deleted by a run.
type Surplus struct {
	Bucket   string `json:"bucket"`
	Expected int    `json:"expected"`
	Actual   int    `json:"actual"`
	Orphan   bool   `json:"orphan,omitempty"`
}

// Report is the structured summary of one run.
type Report struct {
	RunID             string              `json:"run_id"`
	CurriculumVersion string              `json:"curriculum_version"`
	StartedAt         time.Time           `json:"started_at"`
	FinishedAt        time.Time           `json:"finished_at"`
	Cancelled         bool                `json:"cancelled,omitempty"`
	Sections          map[string]*Section `json:"sections"`
	Surpluses         []Surplus           `json:"surpluses,omitempty"`

	// Skipped lists curriculum targets that could not be processed at all.
	Skipped []string `json:"skipped,omitempty"`
}

// New starts a report.
func New(runID, curriculumVersion string) *Report {
	return &Report{
		RunID:             runID,
		CurriculumVersion: curriculumVersion,
		StartedAt:         time.Now().UTC(),
		Sections:          make(map[string]*Section),
	}
}

// Section returns the section entry for name, creating it on first use.
func (r *Report) Section(name string) *Section {
	s, ok := r.Sections[name]
	if !ok {
		s = &Section{Errors: []string{}, Warnings: []string{}, Units: []Unit{}}
		r.Sections[name] = s
	}
	return s
}

// SectionNames returns the section names in sorted order.
func (r *Report) SectionNames() []string {
	names := make([]string, 0, len(r.Sections))
	for name := range r.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Finish stamps the end time.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// Totals sums the section counters.
type Totals struct {
	Generated int
	Passages  int
	Failed    int
	Skipped   int
	Errors    int
}

// Totals returns run-wide counters.
func (r *Report) Totals() Totals {
	var t Totals
	for _, s := range r.Sections {
		t.Generated += s.QuestionsGenerated
		t.Passages += s.PassagesGenerated
		t.Failed += s.Failed
		t.Skipped += s.Skipped
		t.Errors += len(s.Errors)
	}
	return t
}

// Complete reports whether every unit of the run was generated.
func (r *Report) Complete() bool {
	t := r.Totals()
	return !r.Cancelled && t.Failed == 0 && t.Skipped == 0 && t.Errors == 0 && len(r.Skipped) == 0
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
