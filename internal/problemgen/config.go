package problemgen

// Config controls prompt composition and candidate validation.
type Config struct {
	// Validators is the ordered list of local validators run on every
	// parsed candidate. The first failure stops the pipeline.
	Validators []Validator

	// MaxTokens is the token budget for the LLM response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// MaxPriorQuestions is the maximum number of bank questions listed in
	// the prompt as questions to avoid.
	MaxPriorQuestions int

	// MaxExampleChars truncates the condensed worked example.
	MaxExampleChars int

	// MaxRejectedChars truncates each rejected candidate in the retry block.
	MaxRejectedChars int
}

// DefaultConfig returns a Config with the standard validator chain
// and recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&HallucinationValidator{},
			&StructuralValidator{},
			&AnswerKeyValidator{},
		},
		MaxTokens:         1024,
		Temperature:       0.8,
		MaxPriorQuestions: 30,
		MaxExampleChars:   400,
		MaxRejectedChars:  240,
	}
}
