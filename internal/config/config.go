// Package config loads prepgen settings from an optional YAML file and
// PREPGEN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abhisek/prepgen/internal/llm"
	"github.com/abhisek/prepgen/internal/logger"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "PREPGEN"

// Config is the resolved configuration of one prepgen invocation.
type Config struct {
	// DB is the SQLite path. Empty selects the XDG data directory.
	DB string
	// Curriculum is a YAML file path. Empty selects the embedded default.
	Curriculum string

	Log    logger.Config
	Engine EngineConfig
	Dedup  DedupConfig
	LLM    llm.Config

	// File is the config file that was read, if any.
	File string
}

// EngineConfig tunes the retry loop and run pacing.
type EngineConfig struct {
	MaxAttempts       int
	SectionPause      time.Duration
	SearchScope       string // current_mode or all_modes
	MaxPriorQuestions int
}

// DedupConfig tunes semantic duplicate adjudication.
type DedupConfig struct {
	Semantic         bool
	MaxComparisons   int
	ConfidenceCutoff float64
}

// Load reads configuration. path may be empty, in which case prepgen.yaml is
// looked up in the working directory and the user config directory; a
// missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("prepgen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "prepgen"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	llmDefaults := llm.DefaultConfig()

	v.SetDefault("db", "")
	v.SetDefault("curriculum", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("engine.max_attempts", 3)
	v.SetDefault("engine.section_pause", 2*time.Second)
	v.SetDefault("engine.search_scope", "current_mode")
	v.SetDefault("engine.max_prior_questions", 30)

	v.SetDefault("dedup.semantic", true)
	v.SetDefault("dedup.max_comparisons", 10)
	v.SetDefault("dedup.confidence_cutoff", 0.8)

	// An empty provider falls through to API key discovery.
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.timeout", llmDefaults.Timeout)
	v.SetDefault("llm.secondary_model", "")
	v.SetDefault("llm.backoff.initial_wait", llmDefaults.Backoff.InitialWait)
	v.SetDefault("llm.backoff.max_wait", llmDefaults.Backoff.MaxWait)
	v.SetDefault("llm.backoff.multiplier", llmDefaults.Backoff.Multiplier)

	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", llmDefaults.Anthropic.Model)
	v.SetDefault("llm.anthropic.base_url", "")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", llmDefaults.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", llmDefaults.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", llmDefaults.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		DB:         v.GetString("db"),
		Curriculum: v.GetString("curriculum"),
		Log: logger.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Engine: EngineConfig{
			MaxAttempts:       v.GetInt("engine.max_attempts"),
			SectionPause:      v.GetDuration("engine.section_pause"),
			SearchScope:       v.GetString("engine.search_scope"),
			MaxPriorQuestions: v.GetInt("engine.max_prior_questions"),
		},
		Dedup: DedupConfig{
			Semantic:         v.GetBool("dedup.semantic"),
			MaxComparisons:   v.GetInt("dedup.max_comparisons"),
			ConfidenceCutoff: v.GetFloat64("dedup.confidence_cutoff"),
		},
		File: v.ConfigFileUsed(),
	}

	cfg.LLM = llm.Config{
		Provider: v.GetString("llm.provider"),
		Anthropic: llm.AnthropicConfig{
			APIKey:  v.GetString("llm.anthropic.api_key"),
			Model:   v.GetString("llm.anthropic.model"),
			BaseURL: v.GetString("llm.anthropic.base_url"),
		},
		OpenAI: llm.OpenAIConfig{
			APIKey:  v.GetString("llm.openai.api_key"),
			Model:   v.GetString("llm.openai.model"),
			BaseURL: v.GetString("llm.openai.base_url"),
		},
		Gemini: llm.GeminiConfig{
			APIKey: v.GetString("llm.gemini.api_key"),
			Model:  v.GetString("llm.gemini.model"),
		},
		OpenRouter: llm.OpenRouterConfig{
			APIKey:  v.GetString("llm.openrouter.api_key"),
			Model:   v.GetString("llm.openrouter.model"),
			BaseURL: v.GetString("llm.openrouter.base_url"),
		},
		Backoff: llm.BackoffConfig{
			InitialWait: v.GetDuration("llm.backoff.initial_wait"),
			MaxWait:     v.GetDuration("llm.backoff.max_wait"),
			Multiplier:  v.GetFloat64("llm.backoff.multiplier"),
		},
		SecondaryModel: v.GetString("llm.secondary_model"),
		Timeout:        v.GetDuration("llm.timeout"),
	}
	if cfg.LLM.Provider == "" {
		if discovered, ok := llm.DiscoverConfig(cfg.LLM); ok {
			cfg.LLM = discovered
		}
	}
	return cfg
}

// Validate checks engine and dedup settings. LLM settings are validated
// only when a command needs a provider.
func (c *Config) Validate() error {
	var problems []string
	if c.Engine.MaxAttempts < 1 {
		problems = append(problems, "engine.max_attempts must be at least 1")
	}
	if c.Engine.SectionPause < 0 {
		problems = append(problems, "engine.section_pause must not be negative")
	}
	switch c.Engine.SearchScope {
	case "current_mode", "all_modes":
	default:
		problems = append(problems, fmt.Sprintf("engine.search_scope %q must be current_mode or all_modes", c.Engine.SearchScope))
	}
	if c.Engine.MaxPriorQuestions < 0 {
		problems = append(problems, "engine.max_prior_questions must not be negative")
	}
	if c.Dedup.MaxComparisons < 0 {
		problems = append(problems, "dedup.max_comparisons must not be negative")
	}
	if c.Dedup.ConfidenceCutoff < 0 || c.Dedup.ConfidenceCutoff > 1 {
		problems = append(problems, "dedup.confidence_cutoff must be between 0 and 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
