package cmd

import (
	"fmt"
	"strings"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/gaps"
	"github.com/spf13/cobra"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Show deficits and surpluses without generating",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		cur, err := loadCurriculum(cfg)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		inv, err := st.QuestionRepo().Inventory(cmd.Context())
		if err != nil {
			return fmt.Errorf("load inventory: %w", err)
		}
		plan := gaps.Analyze(cur, inv, filter)

		for _, s := range plan.Skipped {
			fmt.Printf("skipped: %v\n", s)
		}

		if len(plan.Tasks) == 0 {
			fmt.Println("No gaps: every bucket is at target.")
		} else {
			fmt.Printf("%-56s  %-12s  %3s  %8s  %6s  %7s\n",
				"Unit", "Mode", "D", "Expected", "Actual", "Deficit")
			fmt.Println(strings.Repeat("─", 100))
			for _, t := range plan.Tasks {
				fmt.Printf("%-56s  %-12s  %3d  %8d  %6d  %7d\n",
					truncate(t.Unit.Key(), 56), t.Mode, t.Difficulty, t.Expected, t.Actual, t.Deficit)
			}
			fmt.Println(strings.Repeat("─", 100))
			for _, s := range plan.BySection() {
				fmt.Printf("%-56s  %d questions\n", s.Name(), s.Deficit())
			}
			fmt.Printf("\n%d questions missing across %d buckets (%d at target)\n",
				plan.TotalDeficit(), len(plan.Tasks), plan.Satisfied)
		}

		if len(plan.Surpluses) > 0 {
			fmt.Println()
			fmt.Println("Over target (not deleted)")
			fmt.Println(strings.Repeat("─", 100))
			for _, s := range plan.Surpluses {
				note := ""
				if s.Orphan {
					note = "  not in curriculum"
				}
				b := s.Bucket
				unit := b.Product + "/" + b.Section + "/" + b.SubSkill
				fmt.Printf("%-56s  %-12s  %3d  %8d  %6d  %+7d%s\n",
					truncate(unit, 56), curriculum.Mode(b.Mode), b.Difficulty, s.Expected, s.Actual, s.Excess(), note)
			}
		}
		return nil
	},
}

func init() {
	addFilterFlags(gapsCmd)
}
