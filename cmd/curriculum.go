package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/spf13/cobra"
)

var curriculumCmd = &cobra.Command{
	Use:   "curriculum",
	Short: "Inspect the curriculum",
}

var curriculumListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every sub-skill with its target counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cur, err := loadCurriculum(cfg)
		if err != nil {
			return err
		}
		product, _ := cmd.Flags().GetString("product")

		// Header.
		fmt.Printf("%-56s  %-8s  %-7s  %10s  %8s  %5s  %s\n",
			"Unit", "Category", "Levels", "Diagnostic", "Practice", "Drill", "Passage")
		fmt.Println(strings.Repeat("─", 112))

		units, total := 0, 0
		for _, u := range cur.Units() {
			if product != "" && u.Product != product {
				continue
			}
			var diag, practice, drill int
			for _, q := range curriculum.ExpectedCounts(u) {
				switch {
				case q.Mode == curriculum.ModeDiagnostic:
					diag += q.Count
				case q.Mode.IsPractice():
					practice += q.Count
				case q.Mode == curriculum.ModeDrill:
					drill += q.Count
				}
			}
			passage := "-"
			if u.RequiresPassage() {
				passage = fmt.Sprintf("%d per %dw", u.QuestionsPerPassage(curriculum.PracticeMode(1)), u.PassageWordCount(curriculum.PracticeMode(1)))
			}
			fmt.Printf("%-56s  %-8s  %-7s  %10d  %8d  %5d  %s\n",
				truncate(u.Key(), 56), u.Category(), levels(u.Difficulties()), diag, practice, drill, passage)
			units++
			total += diag + practice + drill
		}

		fmt.Printf("\n%d sub-skills, %d questions in total (curriculum %s)\n", units, total, cur.Version)
		return nil
	},
}

var curriculumValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a curriculum file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			cfg.Curriculum = args[0]
		}
		cur, err := loadCurriculum(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("curriculum %s OK: %d products, %d sub-skills\n",
			cur.Version, len(cur.ProductNames()), len(cur.Units()))
		return nil
	},
}

func levels(ds []int) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = fmt.Sprint(d)
	}
	return strings.Join(parts, ",")
}

func init() {
	curriculumListCmd.Flags().String("product", "", "Only this product")

	curriculumCmd.AddCommand(curriculumListCmd)
	curriculumCmd.AddCommand(curriculumValidateCmd)
}
