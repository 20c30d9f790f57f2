package curriculum

import (
	"fmt"
	"strconv"
	"strings"
)

// Category selects the duplicate rule and answer format of a section.
type Category string

const (
	CategoryVerbal  Category = "verbal"
	CategoryMaths   Category = "maths"
	CategoryReading Category = "reading"
	CategoryWriting Category = "writing"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryVerbal, CategoryMaths, CategoryReading, CategoryWriting:
		return true
	}
	return false
}

// Mode is the test context a question belongs to.
type Mode string

const (
	ModeDiagnostic Mode = "diagnostic"
	ModeDrill      Mode = "drill"
)

// MaxPracticeTests is the highest practice test number a section may declare.
const MaxPracticeTests = 5

// PracticeMode returns the mode for practice test n (1-based).
func PracticeMode(n int) Mode {
	return Mode(fmt.Sprintf("practice_%d", n))
}

// PracticeIndex returns the practice test number, or 0 if m is not a
// practice mode.
func (m Mode) PracticeIndex() int {
	s, ok := strings.CutPrefix(string(m), "practice_")
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > MaxPracticeTests {
		return 0
	}
	return n
}

// IsPractice reports whether m is one of practice_1..practice_5.
func (m Mode) IsPractice() bool { return m.PracticeIndex() > 0 }

// Order returns the sort rank of a mode: diagnostic, practice_1..N, drill.
func (m Mode) Order() int {
	switch {
	case m == ModeDiagnostic:
		return 0
	case m.IsPractice():
		return m.PracticeIndex()
	case m == ModeDrill:
		return MaxPracticeTests + 1
	default:
		return MaxPracticeTests + 2
	}
}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if m == ModeDiagnostic || m == ModeDrill || m.IsPractice() {
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// Difficulty domain. Every stored question uses one of these three levels.
const (
	MinDifficulty = 1
	MaxDifficulty = 3

	// NominalPassageDifficulty is the single difficulty that diagnostic
	// questions in passage-anchored sections are counted and generated at.
	NominalPassageDifficulty = 2
)

// Curriculum is the declarative generation target for every product. It is
// loaded once per run and never mutated; pass it by pointer.
type Curriculum struct {
	Version  string    `yaml:"version"`
	Products []Product `yaml:"products"`

	units []UnitSpec
	index map[unitKey]int
}

// Product is a standardized-test product, e.g. a selective-entry exam.
type Product struct {
	Name     string    `yaml:"name"`
	Sections []Section `yaml:"sections"`
}

// Section is one paper of a product.
type Section struct {
	Name     string   `yaml:"name"`
	Category Category `yaml:"category"`

	// OptionCount is the number of answer options per question. Zero for
	// writing sections, which use extended responses.
	OptionCount int `yaml:"option_count"`

	// PracticeQuestions is the flat question count of one practice test
	// for the whole section.
	PracticeQuestions int `yaml:"practice_questions"`
	PracticeTests     int `yaml:"practice_tests"`

	// Passage is set for sections whose questions hang off shared
	// reading stimuli.
	Passage *PassagePolicy `yaml:"passage,omitempty"`

	SubSkills []SubSkill `yaml:"sub_skills"`
}

// PassagePolicy controls passage size and sharing for a section.
type PassagePolicy struct {
	QuestionsPerPassage      int  `yaml:"questions_per_passage"`
	WordCount                int  `yaml:"word_count"`
	DrillQuestionsPerPassage int  `yaml:"drill_questions_per_passage"`
	DrillWordCount           int  `yaml:"drill_word_count"`
	ShareDiagnosticPractice  bool `yaml:"share_diagnostic_practice"`
}

// SubSkill is the finest-grained curriculum unit a question targets.
type SubSkill struct {
	Name            string       `yaml:"name"`
	Description     string       `yaml:"description"`
	DifficultyRange []int        `yaml:"difficulty_range"`
	TargetCounts    TargetCounts `yaml:"target_counts,omitempty"`
	VisualRequired  bool         `yaml:"visual_required"`
	Style           string       `yaml:"style"`
	Examples        []Example    `yaml:"examples,omitempty"`
}

// TargetCounts overrides the computed per-mode totals of a sub-skill.
// Practice applies to each practice test.
type TargetCounts struct {
	Diagnostic *int `yaml:"diagnostic,omitempty"`
	Practice   *int `yaml:"practice,omitempty"`
	Drill      *int `yaml:"drill,omitempty"`
}

// Example is a condensed worked example used for style guidance.
type Example struct {
	QuestionText string `yaml:"question_text"`
	Explanation  string `yaml:"explanation"`
}

type unitKey struct {
	product, section, subSkill string
}

// UnitSpec is the resolved, read-only view of one (product, section,
// sub-skill) combination.
type UnitSpec struct {
	Product  string
	Section  *Section
	SubSkill *SubSkill

	// position of the sub-skill within its section, used for the
	// practice-count split.
	index int
}

// Key returns a "product/section/sub-skill" label.
func (u UnitSpec) Key() string {
	return u.Product + "/" + u.Section.Name + "/" + u.SubSkill.Name
}

// Category returns the section category.
func (u UnitSpec) Category() Category { return u.Section.Category }

// IsWriting reports whether the unit belongs to a writing section.
func (u UnitSpec) IsWriting() bool { return u.Section.Category == CategoryWriting }

// RequiresPassage reports whether questions hang off shared passages.
func (u UnitSpec) RequiresPassage() bool { return u.Section.Passage != nil }

// QuestionsPerPassage returns the passage capacity for the given mode.
func (u UnitSpec) QuestionsPerPassage(mode Mode) int {
	p := u.Section.Passage
	if p == nil {
		return 0
	}
	if mode == ModeDrill {
		if p.DrillQuestionsPerPassage > 0 {
			return p.DrillQuestionsPerPassage
		}
		return 1
	}
	return p.QuestionsPerPassage
}

// PassageWordCount returns the target passage length for the given mode.
func (u UnitSpec) PassageWordCount(mode Mode) int {
	p := u.Section.Passage
	if p == nil {
		return 0
	}
	if mode == ModeDrill && p.DrillWordCount > 0 {
		return p.DrillWordCount
	}
	return p.WordCount
}

// Difficulties returns the sub-skill's difficulty levels in ascending order.
func (u UnitSpec) Difficulties() []int {
	return sortedLevels(u.SubSkill.DifficultyRange)
}

// Modes returns the modes a section generates for, in canonical order.
func (s *Section) Modes() []Mode {
	modes := []Mode{ModeDiagnostic}
	for i := 1; i <= s.PracticeTests; i++ {
		modes = append(modes, PracticeMode(i))
	}
	return append(modes, ModeDrill)
}
