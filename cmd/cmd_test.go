package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/store"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCmd() *cobra.Command {
	c := &cobra.Command{Use: "test"}
	for _, name := range []string{"config", "db", "curriculum", "log-level", "log-format"} {
		c.Flags().String(name, "", "")
	}
	addFilterFlags(c)
	return c
}

func TestFilterFromFlags(t *testing.T) {
	c := newFlagCmd()
	require.NoError(t, c.Flags().Set("product", "exam"))
	require.NoError(t, c.Flags().Set("section", "verbal"))
	require.NoError(t, c.Flags().Set("mode", "drill"))
	require.NoError(t, c.Flags().Set("mode", "practice_2"))

	f, err := filterFromFlags(c)
	require.NoError(t, err)
	assert.Equal(t, "exam", f.Product)
	assert.Equal(t, "verbal", f.Section)
	assert.Empty(t, f.SubSkill)
	assert.Equal(t, []curriculum.Mode{curriculum.ModeDrill, curriculum.PracticeMode(2)}, f.Modes)

	bad := newFlagCmd()
	require.NoError(t, bad.Flags().Set("mode", "practice_9"))
	_, err = filterFromFlags(bad)
	assert.ErrorContains(t, err, "unknown mode")
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prepgen.yaml")
	body := "db: " + filepath.Join(dir, "file.db") + "\n" +
		"log:\n  level: warn\n" +
		"engine:\n  max_attempts: 5\n  section_pause: 0s\n" +
		"llm:\n  provider: mock\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	c := newFlagCmd()
	require.NoError(t, c.Flags().Set("config", path))
	require.NoError(t, c.Flags().Set("db", filepath.Join(dir, "flag.db")))

	cfg, err := loadConfig(c)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flag.db"), cfg.DB, "flag wins over file")
	assert.Equal(t, "warn", cfg.Log.Level, "file value kept without a flag")
	assert.Equal(t, 5, cfg.Engine.MaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.Engine.SectionPause)
	assert.Equal(t, "mock", cfg.LLM.Provider)
}

func TestPrintCost(t *testing.T) {
	var buf bytes.Buffer
	printCost(&buf, []store.LLMUsage{
		{Model: "claude-sonnet-4-5-20250929", Calls: 2, InputTokens: 1_000_000, OutputTokens: 100_000},
		{Model: "homegrown-model", Calls: 1, InputTokens: 10, OutputTokens: 10},
	})
	out := buf.String()
	assert.Contains(t, out, "$4.50")
	assert.Contains(t, out, "TOTAL (partial)")
	assert.Contains(t, out, "Pricing unavailable for: homegrown-model")
}

func TestPrintEventsEmpty(t *testing.T) {
	var buf bytes.Buffer
	printEvents(&buf, nil)
	assert.Equal(t, "No LLM events found.\n", buf.String())
}
