package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: &client, model: "claude-sonnet-4-5-20250929"}
}

// anthropicMessage answers every request with a single text block.
func anthropicMessage(text, stop string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": text}},
			"model":       "claude-sonnet-4-5-20250929",
			"stop_reason": stop,
			"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
		})
	}
}

func TestAnthropicProviderGenerate(t *testing.T) {
	var body map[string]any
	reply := anthropicMessage(`{"duplicate":true,"matched":2,"confidence":"high"}`, "end_turn")
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		reply(w, r)
	})

	resp, err := p.Generate(context.Background(), Request{
		System: "You compare exam questions.",
		Messages: []Message{
			{Role: RoleUser, Content: "Candidate: Which word means the opposite of BRAVE?"},
		},
		Schema:    verdictSchema(),
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, 50, resp.Usage.InputTokens)
	assert.Equal(t, 80, resp.Usage.TotalTokens)
	assert.Equal(t, "end", resp.StopReason)
	assert.Equal(t, "claude-sonnet-4-5-20250929", resp.Model)

	system := body["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "You compare exam questions.", system[0].(map[string]any)["text"])
	assert.EqualValues(t, 256, body["max_tokens"])
}

func TestAnthropicProviderErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		errType   string
		rateLimit bool
	}{
		{"rate limited", http.StatusTooManyRequests, "rate_limit_error", true},
		{"server error", http.StatusInternalServerError, "api_error", false},
		{"overloaded", 529, "overloaded_error", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"type":  "error",
					"error": map[string]any{"type": tt.errType, "message": tt.name},
				})
			})
			_, err := p.Generate(context.Background(), Request{
				Messages:  []Message{{Role: RoleUser, Content: "test"}},
				MaxTokens: 100,
			})
			require.Error(t, err)
			assert.True(t, IsTransport(err))

			var rl *ErrRateLimit
			assert.Equal(t, tt.rateLimit, errors.As(err, &rl))
		})
	}
}

func TestAnthropicProviderTruncated(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicMessage(`{"question_text":"Which word`, "max_tokens"))
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		MaxTokens: 100,
	})
	var maxTok *ErrMaxTokensExceeded
	require.ErrorAs(t, err, &maxTok)
	assert.Equal(t, `{"question_text":"Which word`, string(maxTok.Content))
	assert.False(t, IsTransport(err), "truncation is a content failure")
}

func TestAnthropicProviderSchemaMismatch(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicMessage(`{"matched":1}`, "end_turn"))
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "test"}},
		Schema:    verdictSchema(),
		MaxTokens: 100,
	})
	var invalid *ErrInvalidResponse
	require.ErrorAs(t, err, &invalid)
	assert.False(t, IsTransport(err))
}

func TestAnthropicModelMapping(t *testing.T) {
	assert.Equal(t, "claude-sonnet-4-5-20250929", resolveModel("claude-sonnet", anthropicModels))
	assert.Equal(t, "claude-haiku-4-5-20251001", resolveModel("claude-haiku", anthropicModels))
	assert.Equal(t, "claude-opus-4-1", resolveModel("claude-opus-4-1", anthropicModels), "unknown names pass through")
}
