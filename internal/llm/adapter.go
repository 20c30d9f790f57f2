package llm

import (
	"encoding/json"
	"net/http"
)

// reply is what a vendor adapter extracted from its SDK response, before
// the shared truncation and schema checks.
type reply struct {
	content   json.RawMessage
	usage     Usage
	model     string
	truncated bool
}

// finish turns a vendor reply into a Response. Truncated output and output
// that fails the request schema are content failures, never transport ones.
func finish(req Request, r reply) (*Response, error) {
	if r.truncated {
		return nil, &ErrMaxTokensExceeded{Content: r.content}
	}
	if err := validateResponse(req.Schema, r.content); err != nil {
		return nil, err
	}
	if r.usage.TotalTokens == 0 {
		r.usage.TotalTokens = r.usage.InputTokens + r.usage.OutputTokens
	}
	return &Response{
		Content:    r.content,
		Usage:      r.usage,
		Model:      r.model,
		StopReason: "end",
	}, nil
}

// classifyStatus maps a vendor HTTP status to a transport error. Anything
// that is not a rate limit reads as the provider being unavailable.
func classifyStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// resolveModel maps a friendly model name to a vendor model ID. Unknown
// names are passed through so full IDs work as-is.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
