package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config selects a vendor and holds the settings for every supported one.
type Config struct {
	// Provider is "anthropic", "openai", "gemini", "openrouter" or "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Backoff    BackoffConfig

	// SecondaryModel is the lighter model of the same vendor used for
	// duplicate adjudication. Empty selects the vendor default.
	SecondaryModel string

	// Timeout bounds a single request. Zero disables the bound.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // OpenAI-compatible gateway
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string // default https://openrouter.ai/api/v1
}

// vendor describes one provider: where its key lives in Config and in the
// environment, and which model adjudicates duplicates by default.
type vendor struct {
	name      string
	envKey    string
	secondary string
	key       func(*Config) *string
	model     func(*Config) *string
}

// vendors is in API key discovery order.
var vendors = []vendor{
	{"gemini", "GEMINI_API_KEY", "gemini-flash",
		func(c *Config) *string { return &c.Gemini.APIKey },
		func(c *Config) *string { return &c.Gemini.Model }},
	{"openai", "OPENAI_API_KEY", "gpt-4o-mini",
		func(c *Config) *string { return &c.OpenAI.APIKey },
		func(c *Config) *string { return &c.OpenAI.Model }},
	{"anthropic", "ANTHROPIC_API_KEY", "claude-haiku",
		func(c *Config) *string { return &c.Anthropic.APIKey },
		func(c *Config) *string { return &c.Anthropic.Model }},
	{"openrouter", "OPENROUTER_API_KEY", "google/gemini-2.0-flash-exp",
		func(c *Config) *string { return &c.OpenRouter.APIKey },
		func(c *Config) *string { return &c.OpenRouter.Model }},
}

func lookupVendor(name string) (vendor, bool) {
	for _, v := range vendors {
		if v.name == name {
			return v, true
		}
	}
	return vendor{}, false
}

func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		Anthropic:  AnthropicConfig{Model: "claude-sonnet"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o"},
		Gemini:     GeminiConfig{Model: "gemini-pro"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Backoff: BackoffConfig{
			InitialWait: 2 * time.Second,
			MaxWait:     30 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// Secondary returns a copy of c whose selected vendor uses the
// adjudication model.
func (c Config) Secondary() Config {
	v, ok := lookupVendor(c.Provider)
	if !ok {
		return c
	}
	model := c.SecondaryModel
	if model == "" {
		model = v.secondary
	}
	out := c
	*v.model(&out) = model
	return out
}

// DiscoverConfig selects the first vendor whose standard API key variable
// is set, probing Gemini, OpenAI, Anthropic, then OpenRouter.
func DiscoverConfig(cfg Config) (Config, bool) {
	for _, v := range vendors {
		if k := os.Getenv(v.envKey); k != "" {
			cfg.Provider = v.name
			*v.key(&cfg) = k
			return cfg, true
		}
	}
	return cfg, false
}

// Validate checks that the selected vendor has an API key.
func (c Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("LLM timeout must not be negative")
	}
	if c.Provider == "mock" {
		return nil
	}
	v, ok := lookupVendor(c.Provider)
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if *v.key(&c) == "" {
		return fmt.Errorf("PREPGEN_LLM_%s_API_KEY is required for the %s provider", strings.ToUpper(v.name), v.name)
	}
	return nil
}

