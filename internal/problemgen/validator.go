package problemgen

import (
	"context"
	"errors"
	"fmt"
)

// Validator checks a parsed candidate. Implementations should be safe for
// concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator (for error messages
	// and logging), e.g. "structural", "hallucination", "duplicate".
	Name() string

	// Validate returns nil if the candidate passes, a *ValidationError if
	// it is rejected, or any other error if the check itself could not run
	// (for example a failed adjudication call).
	Validate(ctx context.Context, q *Question, input GenerateInput) error
}

// ValidationError describes why a candidate was rejected.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Reason    Reason
	Message   string // Human-readable description of the failure
	Retryable bool   // Whether regeneration is likely to fix this

	// Candidate is the rejected question text, or a raw excerpt when the
	// response could not be parsed.
	Candidate string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q (%s): %s", e.Validator, e.Reason, e.Message)
}

// Chain runs validators in order and returns the first failure.
func Chain(ctx context.Context, validators []Validator, q *Question, input GenerateInput) error {
	for _, v := range validators {
		if err := v.Validate(ctx, q, input); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) && verr.Candidate == "" {
				verr.Candidate = q.Text
			}
			return err
		}
	}
	return nil
}
