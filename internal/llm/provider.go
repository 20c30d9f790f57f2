package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one structured completion per call. Implementations
// never retry; the caller owns the attempt budget.
type Provider interface {
	// Generate returns JSON conforming to req.Schema when one is set.
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single-turn prompt: a system prompt, the user message and
// the schema the answer must satisfy.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64 // zero leaves the vendor default
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema. Name keys the compiled-schema cache and
// is sent to vendors that label structured output.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	Content json.RawMessage
	Usage   Usage
	Model   string

	// StopReason is "end" for every Response; truncation surfaces as
	// *ErrMaxTokensExceeded instead.
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
