package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearDiscoveryEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearDiscoveryEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Engine.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Engine.SectionPause)
	assert.Equal(t, "current_mode", cfg.Engine.SearchScope)
	assert.True(t, cfg.Dedup.Semantic)
	assert.Equal(t, 10, cfg.Dedup.MaxComparisons)
	assert.InDelta(t, 0.8, cfg.Dedup.ConfidenceCutoff, 1e-9)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Empty(t, cfg.LLM.Provider, "no provider without keys")
	assert.Empty(t, cfg.File)
}

func TestLoadFileAndEnv(t *testing.T) {
	clearDiscoveryEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "prepgen.yaml")
	content := `
db: /tmp/bank.db
engine:
  max_attempts: 5
  search_scope: all_modes
dedup:
  max_comparisons: 4
llm:
  provider: openai
  openai:
    api_key: from-file
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("PREPGEN_ENGINE_MAX_ATTEMPTS", "2")
	t.Setenv("PREPGEN_LLM_OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "/tmp/bank.db", cfg.DB)
	assert.Equal(t, 2, cfg.Engine.MaxAttempts, "env overrides file")
	assert.Equal(t, "all_modes", cfg.Engine.SearchScope)
	assert.Equal(t, 4, cfg.Dedup.MaxComparisons)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "from-file", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)
}

func TestLoadDiscoversProvider(t *testing.T) {
	clearDiscoveryEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.Anthropic.APIKey)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearDiscoveryEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("PREPGEN_ENGINE_SEARCH_SCOPE", "everywhere")
	t.Setenv("PREPGEN_DEDUP_CONFIDENCE_CUTOFF", "1.5")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.search_scope")
	assert.Contains(t, err.Error(), "dedup.confidence_cutoff")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
