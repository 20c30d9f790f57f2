package problemgen

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// candidateOutput is the wire shape of a question response.
type candidateOutput struct {
	QuestionText  string   `json:"question_text"`
	AnswerOptions []string `json:"answer_options"`
	CorrectAnswer string   `json:"correct_answer"`
	Solution      string   `json:"solution"`
	Rubric        string   `json:"rubric"`
}

// ParseCandidate extracts the JSON object from a model response and decodes
// it strictly. Code fences and surrounding prose are tolerated; unknown
// fields, trailing data and missing objects are structural_invalid.
func ParseCandidate(raw []byte) (*Question, error) {
	obj, err := ExtractObject(raw)
	if err != nil {
		return nil, parseError(raw, err)
	}

	dec := json.NewDecoder(bytes.NewReader(obj))
	dec.DisallowUnknownFields()

	var out candidateOutput
	if err := dec.Decode(&out); err != nil {
		return nil, parseError(raw, err)
	}
	if dec.More() {
		return nil, parseError(raw, fmt.Errorf("trailing data after object"))
	}

	return &Question{
		Text:          strings.TrimSpace(out.QuestionText),
		Options:       trimAll(out.AnswerOptions),
		CorrectAnswer: strings.TrimSpace(out.CorrectAnswer),
		Solution:      strings.TrimSpace(out.Solution),
		Rubric:        strings.TrimSpace(out.Rubric),
	}, nil
}

// ExtractObject returns the outermost balanced JSON object in raw.
func ExtractObject(raw []byte) ([]byte, error) {
	start := bytes.IndexByte(raw, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], nil
			}
		}
	}
	return nil, fmt.Errorf("unterminated JSON object")
}

func parseError(raw []byte, err error) *ValidationError {
	return &ValidationError{
		Validator: "parse",
		Reason:    ReasonStructural,
		Message:   fmt.Sprintf("unparseable response: %v", err),
		Retryable: true,
		Candidate: excerpt(string(raw), 200),
	}
}

func trimAll(ss []string) []string {
	if len(ss) == 0 {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// excerpt collapses whitespace and truncates s to max runes.
func excerpt(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if max > 0 && len(r) > max {
		return string(r[:max]) + "..."
	}
	return s
}
