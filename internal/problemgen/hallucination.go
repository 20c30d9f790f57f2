package problemgen

import (
	"context"
	"fmt"
	"regexp"
)

// selfCorrectionPatterns match the artifacts a model leaves when it
// revises its own reasoning mid-answer.
var selfCorrectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwait,?\s+(let\s+me|i\s+(made|need|think))`),
	regexp.MustCompile(`(?i)\blet\s+me\s+(re-?calculate|re-?check|re-?do|re-?consider|try\s+again|double[- ]check|fix)`),
	regexp.MustCompile(`(?i)\bmy\s+(mistake|apologies|error)\b`),
	regexp.MustCompile(`(?i)\bi\s+apologi[sz]e\b`),
	regexp.MustCompile(`(?i)\bhold\s+on\b`),
	regexp.MustCompile(`(?i)\bcorrection\s*:`),
	regexp.MustCompile(`(?i)\bactually,?\s+the\s+(correct\s+)?answer\b`),
	regexp.MustCompile(`(?i)\bi\s+made\s+an?\s+(error|mistake)\b`),
	regexp.MustCompile(`(?i)\boops\b`),
	regexp.MustCompile(`(?i)\bon\s+second\s+thought\b`),
}

// ScanHallucination returns the first self-correction artifact in text, or
// "" when the text is clean.
func ScanHallucination(text string) string {
	for _, re := range selfCorrectionPatterns {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

// HallucinationValidator rejects candidates whose text shows signs of an
// unreliable reasoning trace.
type HallucinationValidator struct{}

func (v *HallucinationValidator) Name() string { return "hallucination" }

func (v *HallucinationValidator) Validate(_ context.Context, q *Question, _ GenerateInput) error {
	fields := []struct {
		name, text string
	}{
		{"solution", q.Solution},
		{"question_text", q.Text},
		{"correct_answer", q.CorrectAnswer},
		{"rubric", q.Rubric},
	}
	for _, f := range fields {
		if m := ScanHallucination(f.text); m != "" {
			return &ValidationError{
				Validator: v.Name(),
				Reason:    ReasonHallucination,
				Message:   fmt.Sprintf("self-correction %q in %s", m, f.name),
				Retryable: true,
			}
		}
	}
	for i, o := range q.Options {
		if m := ScanHallucination(o); m != "" {
			return &ValidationError{
				Validator: v.Name(),
				Reason:    ReasonHallucination,
				Message:   fmt.Sprintf("self-correction %q in option %d", m, i+1),
				Retryable: true,
			}
		}
	}
	return nil
}
