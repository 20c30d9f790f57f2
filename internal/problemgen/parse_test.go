package problemgen

import (
	"errors"
	"testing"
)

const candidateJSON = `{"question_text":"What is 12 + 8?","answer_options":["20","18","22","24"],"correct_answer":"20","solution":"12 + 8 = 20.","rubric":""}`

func TestParseCandidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bare object", candidateJSON},
		{"code fence", "```json\n" + candidateJSON + "\n```"},
		{"surrounding prose", "Here is your question:\n" + candidateJSON + "\nGood luck!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseCandidate([]byte(tt.raw))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Text != "What is 12 + 8?" {
				t.Errorf("unexpected text %q", q.Text)
			}
			if len(q.Options) != 4 || q.CorrectAnswer != "20" {
				t.Errorf("unexpected options %v / answer %q", q.Options, q.CorrectAnswer)
			}
		})
	}
}

func TestParseCandidate_BracesInStrings(t *testing.T) {
	raw := `{"question_text":"Which set {a, b} is shown?","answer_options":["x}","y","z","w"],"correct_answer":"x}","solution":"\"quoted\" {","rubric":""}`
	q, err := ParseCandidate([]byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Options[0] != "x}" {
		t.Errorf("unexpected option %q", q.Options[0])
	}
}

func TestParseCandidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no object", "I cannot help with that."},
		{"unterminated", `{"question_text":"What`},
		{"unknown field", `{"question_text":"q","answer_options":[],"correct_answer":"","solution":"s","rubric":"","hint":"h"}`},
		{"wrong type", `{"question_text":7,"answer_options":[],"correct_answer":"","solution":"s","rubric":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseCandidate([]byte(tt.raw))
			if err == nil {
				t.Fatalf("expected error, got %+v", q)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Reason != ReasonStructural {
				t.Errorf("expected structural_invalid, got %s", verr.Reason)
			}
		})
	}
}
