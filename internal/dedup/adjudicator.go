package dedup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/abhisek/prepgen/internal/llm"
)

// Judgement is the secondary model's verdict on a candidate.
type Judgement struct {
	Duplicate bool
	// Match is the 1-based index of the matching prior, 0 for none.
	Match      int
	Confidence float64
	Reasoning  string
}

// AdjudicationRequest is the input for a semantic duplicate check.
type AdjudicationRequest struct {
	Section   string
	SubSkill  string
	Candidate string
	Priors    []string
}

// Adjudicator decides whether a candidate is semantically the same
// assessment item as one of a few prior questions.
type Adjudicator interface {
	Adjudicate(ctx context.Context, req *AdjudicationRequest) (*Judgement, error)
}

// AdjudicatorConfig holds configuration for the LLM adjudicator.
type AdjudicatorConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultAdjudicatorConfig returns sensible defaults.
func DefaultAdjudicatorConfig() AdjudicatorConfig {
	return AdjudicatorConfig{
		MaxTokens:   256,
		Temperature: 0,
	}
}

// LLMAdjudicator asks a lightweight model for a bounded yes/no verdict.
type LLMAdjudicator struct {
	provider llm.Provider
	cfg      AdjudicatorConfig
}

// NewLLMAdjudicator creates an adjudicator backed by the secondary model.
func NewLLMAdjudicator(provider llm.Provider, cfg AdjudicatorConfig) *LLMAdjudicator {
	return &LLMAdjudicator{provider: provider, cfg: cfg}
}

// adjudicationOutput is the raw LLM response.
type adjudicationOutput struct {
	Duplicate  bool    `json:"duplicate"`
	Match      int     `json:"match"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// AdjudicationSchema defines the JSON schema for duplicate verdicts.
var AdjudicationSchema = &llm.Schema{
	Name:        "duplicate-verdict",
	Description: "Whether a candidate exam question duplicates one of the listed questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duplicate": map[string]any{
				"type":        "boolean",
				"description": "True if the candidate assesses the same item as one of the listed questions",
			},
			"match": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Number of the matching listed question, or 0 if none",
			},
			"confidence": map[string]any{
				"type":        "number",
				"minimum":     0.0,
				"maximum":     1.0,
				"description": "Confidence score (0.0-1.0) in the verdict",
			},
			"reasoning": map[string]any{
				"type":        "string",
				"description": "One sentence explaining the verdict",
			},
		},
		"required":             []any{"duplicate", "match", "confidence", "reasoning"},
		"additionalProperties": false,
	},
}

// Adjudicate sends the candidate and the nearest priors to the model.
func (a *LLMAdjudicator) Adjudicate(ctx context.Context, req *AdjudicationRequest) (*Judgement, error) {
	ctx = llm.WithPurpose(ctx, "duplicate-check")

	userMsg, err := buildAdjudicationMessage(req)
	if err != nil {
		return nil, fmt.Errorf("build duplicate-check prompt: %w", err)
	}

	resp, err := a.provider.Generate(ctx, llm.Request{
		System: adjudicationSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      AdjudicationSchema,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM duplicate check failed: %w", err)
	}

	var raw adjudicationOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse duplicate-check response: %w", err)
	}

	// A match outside the list is treated as no match.
	if raw.Match < 0 || raw.Match > len(req.Priors) {
		raw.Match = 0
	}
	if raw.Duplicate && raw.Match == 0 && len(req.Priors) == 1 {
		raw.Match = 1
	}

	return &Judgement{
		Duplicate:  raw.Duplicate,
		Match:      raw.Match,
		Confidence: raw.Confidence,
		Reasoning:  raw.Reasoning,
	}, nil
}

const adjudicationSystemPrompt = `You review exam question banks for repeated items. Two questions are the same assessment item when a student who answered one would gain an unfair advantage on the other: the same target word and task, the same numbers in the same calculation, or the same question about the same text.

Instructions:
- Rewording, reordering options or changing names alone does NOT make a new item.
- Same topic with a different target, different numbers or a different task IS a new item.
- Answer duplicate=true only if the candidate matches one listed question; give its number in match.
- Provide a confidence score (0.0-1.0).
- Keep reasoning to one sentence.`

var adjudicationUserTemplate = template.Must(template.New("adjudication").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`Section: {{.Section}}
Sub-skill: {{.SubSkill}}

Candidate:
{{.Candidate}}

Existing questions:
{{range $i, $p := .Priors}}{{inc $i}}. {{$p}}
{{end}}`))

func buildAdjudicationMessage(req *AdjudicationRequest) (string, error) {
	var buf bytes.Buffer
	if err := adjudicationUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
