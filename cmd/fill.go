package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/dedup"
	"github.com/abhisek/prepgen/internal/engine"
	"github.com/abhisek/prepgen/internal/gaps"
	"github.com/abhisek/prepgen/internal/llm"
	"github.com/abhisek/prepgen/internal/passage"
	"github.com/abhisek/prepgen/internal/problemgen"
	"github.com/abhisek/prepgen/internal/report"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Generate the questions missing from the bank",
	Long: "fill diffs the question bank against the curriculum and generates every\n" +
		"missing question, section by section. Surplus questions are reported, never deleted.",
	RunE: runFill,
}

func runFill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-attempts") {
		cfg.Engine.MaxAttempts, _ = cmd.Flags().GetInt("max-attempts")
	}
	if cmd.Flags().Changed("pause") {
		cfg.Engine.SectionPause, _ = cmd.Flags().GetDuration("pause")
	}
	if cmd.Flags().Changed("scope") {
		cfg.Engine.SearchScope, _ = cmd.Flags().GetString("scope")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	scope, err := dedup.ParseScope(cfg.Engine.SearchScope)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	cur, err := loadCurriculum(cfg)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	providers, err := llm.NewProviders(ctx, cfg.LLM, st.EventRepo(), log.Named("llm"))
	if err != nil {
		return fmt.Errorf("LLM provider not configured: %w", err)
	}

	dcfg := dedup.DefaultConfig()
	dcfg.Scope = scope
	dcfg.Semantic = cfg.Dedup.Semantic
	dcfg.MaxComparisons = cfg.Dedup.MaxComparisons
	dcfg.ConfidenceCutoff = cfg.Dedup.ConfidenceCutoff
	adjudicator := dedup.NewLLMAdjudicator(providers.Secondary, dedup.DefaultAdjudicatorConfig())

	gen := problemgen.DefaultConfig()
	gen.MaxPriorQuestions = cfg.Engine.MaxPriorQuestions

	pcfg := passage.DefaultConfig()
	pcfg.Backoff = cfg.LLM.Backoff

	opts := engine.DefaultOptions()
	opts.MaxAttempts = cfg.Engine.MaxAttempts
	opts.SectionPause = cfg.Engine.SectionPause
	opts.PromptScope = scope
	opts.Backoff = cfg.LLM.Backoff
	opts.Filter = filter

	runner := engine.New(engine.Deps{
		Curriculum: cur,
		Questions:  st.QuestionRepo(),
		Provider:   providers.Primary,
		Passages:   passage.NewManager(st.PassageRepo(), providers.Primary, pcfg, log.Named("passage")),
		Duplicates: dedup.New(st.QuestionRepo(), adjudicator, dcfg, log.Named("dedup")),
		Generation: gen,
		Log:        log.Named("engine"),
	}, opts)

	log.Info("starting gap-fill",
		zap.String("curriculum", cur.Version),
		zap.String("primary_model", providers.Primary.ModelID()),
		zap.String("secondary_model", providers.Secondary.ModelID()),
		zap.String("scope", string(scope)))

	rep, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		if err := writeReport(rep, path); err != nil {
			return err
		}
	}
	if err := rep.Render(cmd.OutOrStdout()); err != nil {
		return err
	}

	if !rep.Complete() {
		t := rep.Totals()
		return fmt.Errorf("run incomplete: %d failed, %d skipped, %d section errors", t.Failed, t.Skipped, t.Errors)
	}
	return nil
}

func writeReport(rep *report.Report, path string) error {
	if path == "-" {
		return rep.WriteJSON(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := rep.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// filterFromFlags builds the plan filter shared by fill and gaps.
func filterFromFlags(cmd *cobra.Command) (gaps.Filter, error) {
	var f gaps.Filter
	f.Product, _ = cmd.Flags().GetString("product")
	f.Section, _ = cmd.Flags().GetString("section")
	f.SubSkill, _ = cmd.Flags().GetString("sub-skill")

	modes, _ := cmd.Flags().GetStringSlice("mode")
	for _, s := range modes {
		m, err := curriculum.ParseMode(s)
		if err != nil {
			return f, err
		}
		f.Modes = append(f.Modes, m)
	}
	return f, nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("product", "", "Only this product")
	cmd.Flags().String("section", "", "Only this section")
	cmd.Flags().String("sub-skill", "", "Only this sub-skill")
	cmd.Flags().StringSlice("mode", nil, "Only these modes (diagnostic, practice_N, drill); repeatable")
}

func init() {
	addFilterFlags(fillCmd)
	fillCmd.Flags().String("report", "", "Write the JSON run report to this file (- for stdout)")
	fillCmd.Flags().Int("max-attempts", 3, "Attempts per question before giving up")
	fillCmd.Flags().Duration("pause", 2*time.Second, "Pause between sections")
	fillCmd.Flags().String("scope", "current_mode", "Duplicate search scope: current_mode or all_modes")
}
