package cmd

import (
	"context"
	"fmt"

	"github.com/abhisek/prepgen/internal/config"
	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/logger"
	"github.com/abhisek/prepgen/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "prepgen",
	Short: "Curriculum-driven exam question generator",
	Long: "prepgen fills a question bank up to the counts a curriculum specifies,\n" +
		"generating, validating and de-duplicating each question with a language model.",
	SilenceUsage: true,
}

// ExecuteContext runs the root command. Cancelling ctx stops a gap-fill
// between questions.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (default: ./prepgen.yaml, then the user config dir)")
	pf.String("db", "", "Path to SQLite database file (overrides PREPGEN_DB env var)")
	pf.String("curriculum", "", "Path to curriculum YAML (default: built-in curriculum)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: console or json")

	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(curriculumCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and environment, then applies the
// persistent flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"db", &cfg.DB},
		{"curriculum", &cfg.Curriculum},
		{"log-level", &cfg.Log.Level},
		{"log-format", &cfg.Log.Format},
	}
	for _, o := range overrides {
		if v, _ := cmd.Flags().GetString(o.flag); v != "" {
			*o.dst = v
		}
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	return log, nil
}

// resolveDBPath returns the database path from config (--db, PREPGEN_DB or
// the config file), falling back to the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

func openStore(cfg *config.Config) (*store.Store, error) {
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func loadCurriculum(cfg *config.Config) (*curriculum.Curriculum, error) {
	if cfg.Curriculum == "" {
		return curriculum.Default()
	}
	return curriculum.Load(cfg.Curriculum)
}
