package problemgen

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

const (
	maxQuestionChars = 2000
	maxSolutionChars = 3000
)

// visualReferencePattern matches references to images that are not part of
// the question text.
var visualReferencePattern = regexp.MustCompile(`(?i)\b(see|refer\s+to|look\s+at|shown\s+in|use)\s+the\s+(diagram|figure|picture|image|graph|chart|illustration|map)\b|\b(diagram|figure|picture|image|graph|chart)\s+(below|above)\b`)

// StructuralValidator checks required fields, the answer format of the
// section, and the answer key.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(_ context.Context, q *Question, input GenerateInput) error {
	fail := func(format string, args ...any) error {
		return &ValidationError{
			Validator: v.Name(),
			Reason:    ReasonStructural,
			Message:   fmt.Sprintf(format, args...),
			Retryable: true,
		}
	}

	if q.Text == "" {
		return fail("question_text is empty")
	}
	if len(q.Text) > maxQuestionChars {
		return fail("question_text exceeds %d characters", maxQuestionChars)
	}
	if q.Solution == "" {
		return fail("solution is empty")
	}
	if len(q.Solution) > maxSolutionChars {
		return fail("solution exceeds %d characters", maxSolutionChars)
	}
	if m := visualReferencePattern.FindString(q.Text); m != "" {
		return fail("question refers to a visual that is not described: %q", m)
	}

	if input.Unit.IsWriting() {
		if len(q.Options) > 0 {
			return fail("extended-response prompt must have no answer options, got %d", len(q.Options))
		}
		if q.Rubric == "" {
			return fail("extended-response prompt requires a rubric")
		}
		return nil
	}

	want := input.Unit.Section.OptionCount
	if len(q.Options) != want {
		return fail("expected %d answer options, got %d", want, len(q.Options))
	}
	seen := make(map[string]bool, len(q.Options))
	for i, o := range q.Options {
		if o == "" {
			return fail("option %d is empty", i+1)
		}
		key := strings.ToLower(o)
		if seen[key] {
			return fail("duplicate option %q", o)
		}
		seen[key] = true
	}
	if q.CorrectAnswer == "" {
		return fail("correct_answer is empty")
	}
	matches := 0
	for _, o := range q.Options {
		if strings.EqualFold(o, q.CorrectAnswer) {
			matches++
		}
	}
	if matches != 1 {
		return fail("correct answer %q not found among options", q.CorrectAnswer)
	}
	return nil
}
