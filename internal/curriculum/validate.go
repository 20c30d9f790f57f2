package curriculum

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/mod/semver"
)

// supportedMajor lists the curriculum format versions this build reads.
var supportedMajor = []string{"v1"}

// Validate performs all structural checks on the curriculum.
// Returns a SpecificationError listing every problem found, or nil.
func (c *Curriculum) Validate() error {
	var errs []string

	v := c.Version
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	switch {
	case c.Version == "":
		errs = append(errs, "version is required")
	case !semver.IsValid(v):
		errs = append(errs, fmt.Sprintf("version %q is not a semantic version", c.Version))
	case !slices.Contains(supportedMajor, semver.Major(v)):
		errs = append(errs, fmt.Sprintf("unsupported curriculum version %q", c.Version))
	}

	if len(c.Products) == 0 {
		errs = append(errs, "no products defined")
	}

	products := make(map[string]bool)
	for _, p := range c.Products {
		if p.Name == "" {
			errs = append(errs, "product with empty name")
		}
		if products[p.Name] {
			errs = append(errs, fmt.Sprintf("duplicate product: %q", p.Name))
		}
		products[p.Name] = true

		sections := make(map[string]bool)
		for _, s := range p.Sections {
			where := p.Name + "/" + s.Name
			if s.Name == "" {
				errs = append(errs, fmt.Sprintf("product %q has a section with empty name", p.Name))
			}
			if sections[s.Name] {
				errs = append(errs, fmt.Sprintf("duplicate section: %q", where))
			}
			sections[s.Name] = true
			errs = append(errs, validateSection(where, s)...)
		}
	}

	if len(errs) > 0 {
		return &SpecificationError{Problems: errs}
	}
	return nil
}

func validateSection(where string, s Section) []string {
	var errs []string

	if !s.Category.Valid() {
		errs = append(errs, fmt.Sprintf("%s: invalid category %q", where, s.Category))
	}
	if s.Category == CategoryWriting {
		if s.OptionCount != 0 {
			errs = append(errs, fmt.Sprintf("%s: writing sections must not declare option_count", where))
		}
	} else if s.OptionCount < 2 {
		errs = append(errs, fmt.Sprintf("%s: option_count must be at least 2", where))
	}
	if s.PracticeTests < 0 || s.PracticeTests > MaxPracticeTests {
		errs = append(errs, fmt.Sprintf("%s: practice_tests must be between 0 and %d", where, MaxPracticeTests))
	}
	if s.PracticeQuestions < 0 {
		errs = append(errs, fmt.Sprintf("%s: practice_questions must not be negative", where))
	}
	if p := s.Passage; p != nil {
		if p.QuestionsPerPassage < 1 {
			errs = append(errs, fmt.Sprintf("%s: questions_per_passage must be positive", where))
		}
		if p.WordCount < 1 {
			errs = append(errs, fmt.Sprintf("%s: passage word_count must be positive", where))
		}
		if p.DrillQuestionsPerPassage < 0 || p.DrillWordCount < 0 {
			errs = append(errs, fmt.Sprintf("%s: drill passage settings must not be negative", where))
		}
	}
	if len(s.SubSkills) == 0 {
		errs = append(errs, fmt.Sprintf("%s: no sub-skills defined", where))
	}

	names := make(map[string]bool)
	for _, k := range s.SubSkills {
		at := where + "/" + k.Name
		if k.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: sub-skill with empty name", where))
		}
		if names[k.Name] {
			errs = append(errs, fmt.Sprintf("duplicate sub-skill: %q", at))
		}
		names[k.Name] = true

		if len(k.DifficultyRange) == 0 {
			errs = append(errs, fmt.Sprintf("%s: difficulty_range is empty", at))
		}
		seen := make(map[int]bool)
		for _, d := range k.DifficultyRange {
			if d < MinDifficulty || d > MaxDifficulty {
				errs = append(errs, fmt.Sprintf("%s: difficulty %d outside %d..%d", at, d, MinDifficulty, MaxDifficulty))
			}
			if seen[d] {
				errs = append(errs, fmt.Sprintf("%s: difficulty %d listed twice", at, d))
			}
			seen[d] = true
		}
		if k.VisualRequired {
			errs = append(errs, fmt.Sprintf("%s: visual_required must be false; describe visuals in text", at))
		}
		overrides := []struct {
			name string
			n    *int
		}{
			{"diagnostic", k.TargetCounts.Diagnostic},
			{"practice", k.TargetCounts.Practice},
			{"drill", k.TargetCounts.Drill},
		}
		for _, o := range overrides {
			if o.n != nil && *o.n < 0 {
				errs = append(errs, fmt.Sprintf("%s: target_counts.%s must not be negative", at, o.name))
			}
		}
	}
	return errs
}

func sortedLevels(levels []int) []int {
	out := slices.Clone(levels)
	slices.Sort(out)
	return slices.Compact(out)
}
