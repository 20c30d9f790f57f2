package curriculum

import (
	"errors"
	"strings"
	"testing"
)

const testYAML = `
version: "1.0.0"
products:
  - name: p
    sections:
      - name: verbal
        category: verbal
        option_count: 4
        practice_questions: 10
        practice_tests: 2
        sub_skills:
          - name: a
            difficulty_range: [1, 2, 3]
          - name: b
            difficulty_range: [3, 1, 2]
          - name: c
            difficulty_range: [1, 2, 3]
            target_counts:
              drill: 4
      - name: reading
        category: reading
        option_count: 4
        practice_questions: 6
        practice_tests: 1
        passage:
          questions_per_passage: 5
          word_count: 300
        sub_skills:
          - name: main-idea
            difficulty_range: [1, 2, 3]
      - name: writing
        category: writing
        practice_questions: 1
        practice_tests: 1
        sub_skills:
          - name: persuasive
            difficulty_range: [1, 2, 3]
`

func mustParse(t *testing.T, src string) *Curriculum {
	t.Helper()
	c, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return c
}

func lookup(t *testing.T, c *Curriculum, product, section, sub string) UnitSpec {
	t.Helper()
	u, err := c.Lookup(product, section, sub)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	return u
}

func TestDefaultCurriculumIsValid(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default curriculum: %v", err)
	}
	if len(c.Units()) == 0 {
		t.Fatal("default curriculum has no units")
	}
	for _, u := range c.Units() {
		if u.SubSkill.VisualRequired {
			t.Errorf("%s: visual_required must be false", u.Key())
		}
	}
}

func TestDrillQuotas(t *testing.T) {
	c := mustParse(t, testYAML)

	tests := []struct {
		name    string
		section string
		sub     string
		want    int
	}{
		{"non-writing", "verbal", "a", 10},
		{"writing", "writing", "persuasive", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := lookup(t, c, "p", tt.section, tt.sub)
			total := 0
			for d := MinDifficulty; d <= MaxDifficulty; d++ {
				got := Expected(u, ModeDrill, d)
				if got != tt.want {
					t.Errorf("drill difficulty %d = %d, want %d", d, got, tt.want)
				}
				total += got
			}
			if total != 3*tt.want {
				t.Errorf("drill total = %d, want %d", total, 3*tt.want)
			}
		})
	}
}

func TestWritingDrillIsSixNotThirty(t *testing.T) {
	c := mustParse(t, testYAML)
	u := lookup(t, c, "p", "writing", "persuasive")

	total := 0
	for _, q := range ExpectedCounts(u) {
		if q.Mode == ModeDrill {
			total += q.Count
		}
	}
	if total != 6 {
		t.Fatalf("writing drill total = %d, want 6", total)
	}
}

func TestDiagnosticQuotas(t *testing.T) {
	c := mustParse(t, testYAML)

	u := lookup(t, c, "p", "verbal", "a")
	for d := 1; d <= 3; d++ {
		if got := Expected(u, ModeDiagnostic, d); got != 1 {
			t.Errorf("diagnostic difficulty %d = %d, want 1", d, got)
		}
	}

	// Passage-anchored: all diagnostic questions under the nominal level.
	r := lookup(t, c, "p", "reading", "main-idea")
	if got := Expected(r, ModeDiagnostic, NominalPassageDifficulty); got != 3 {
		t.Errorf("reading diagnostic at nominal difficulty = %d, want 3", got)
	}
	if got := Expected(r, ModeDiagnostic, 1); got != 0 {
		t.Errorf("reading diagnostic at difficulty 1 = %d, want 0", got)
	}
}

func TestPracticeSplit(t *testing.T) {
	c := mustParse(t, testYAML)

	// 10 questions over 3 sub-skills: 4, 3, 3.
	// Sub-skill a gets 4 over 3 levels: 2, 1, 1.
	a := lookup(t, c, "p", "verbal", "a")
	want := map[int]int{1: 2, 2: 1, 3: 1}
	for d, n := range want {
		if got := Expected(a, PracticeMode(1), d); got != n {
			t.Errorf("a practice_1 difficulty %d = %d, want %d", d, got, n)
		}
	}

	// Sub-skill b gets 3: one per level, regardless of declared order.
	b := lookup(t, c, "p", "verbal", "b")
	for d := 1; d <= 3; d++ {
		if got := Expected(b, PracticeMode(2), d); got != 1 {
			t.Errorf("b practice_2 difficulty %d = %d, want 1", d, got)
		}
	}

	// Only two practice tests are declared.
	if got := Expected(a, PracticeMode(3), 1); got != 0 {
		t.Errorf("practice_3 = %d, want 0", got)
	}
}

func TestTargetCountOverride(t *testing.T) {
	c := mustParse(t, testYAML)
	u := lookup(t, c, "p", "verbal", "c")

	want := map[int]int{1: 2, 2: 1, 3: 1}
	for d, n := range want {
		if got := Expected(u, ModeDrill, d); got != n {
			t.Errorf("drill difficulty %d = %d, want %d", d, got, n)
		}
	}
}

func TestExpectedCountsOrder(t *testing.T) {
	c := mustParse(t, testYAML)
	u := lookup(t, c, "p", "verbal", "a")

	qs := ExpectedCounts(u)
	for i := 1; i < len(qs); i++ {
		prev, cur := qs[i-1], qs[i]
		if prev.Mode.Order() > cur.Mode.Order() {
			t.Fatalf("quotas out of mode order: %v before %v", prev.Mode, cur.Mode)
		}
	}
	if qs[0].Mode != ModeDiagnostic || qs[len(qs)-1].Mode != ModeDrill {
		t.Errorf("expected diagnostic first and drill last, got %v ... %v", qs[0].Mode, qs[len(qs)-1].Mode)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"difficulty out of range",
			`version: "1.0.0"
products:
  - name: p
    sections:
      - name: s
        category: maths
        option_count: 4
        sub_skills:
          - name: k
            difficulty_range: [1, 2, 6]`,
			"outside",
		},
		{
			"visual required",
			`version: "1.0.0"
products:
  - name: p
    sections:
      - name: s
        category: maths
        option_count: 4
        sub_skills:
          - name: k
            difficulty_range: [1]
            visual_required: true`,
			"visual_required",
		},
		{
			"duplicate sub-skill",
			`version: "1.0.0"
products:
  - name: p
    sections:
      - name: s
        category: maths
        option_count: 4
        sub_skills:
          - name: k
            difficulty_range: [1]
          - name: k
            difficulty_range: [1]`,
			"duplicate",
		},
		{
			"unsupported version",
			`version: "3.0.0"
products:
  - name: p
    sections:
      - name: s
        category: maths
        option_count: 4
        sub_skills:
          - name: k
            difficulty_range: [1]`,
			"unsupported",
		},
		{
			"unknown key",
			`version: "1.0.0"
colour: blue
products: []`,
			"decode",
		},
		{
			"bad category",
			`version: "1.0.0"
products:
  - name: p
    sections:
      - name: s
        category: science
        option_count: 4
        sub_skills:
          - name: k
            difficulty_range: [1]`,
			"category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var specErr *SpecificationError
			if !errors.As(err, &specErr) {
				t.Fatalf("expected *SpecificationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error should mention %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestLookupMissing(t *testing.T) {
	c := mustParse(t, testYAML)
	_, err := c.Lookup("p", "verbal", "nope")
	var specErr *SpecificationError
	if !errors.As(err, &specErr) {
		t.Fatalf("expected *SpecificationError, got %v", err)
	}
	if specErr.Unit != "p/verbal/nope" {
		t.Errorf("unit = %q", specErr.Unit)
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"diagnostic", "practice_1", "practice_5", "drill"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "practice_0", "practice_6", "exam"} {
		if _, err := ParseMode(s); err == nil {
			t.Errorf("ParseMode(%q) should fail", s)
		}
	}
}

func TestQuestionsPerPassage(t *testing.T) {
	c := mustParse(t, testYAML)
	u := lookup(t, c, "p", "reading", "main-idea")
	if got := u.QuestionsPerPassage(PracticeMode(1)); got != 5 {
		t.Errorf("practice capacity = %d, want 5", got)
	}
	if got := u.QuestionsPerPassage(ModeDrill); got != 1 {
		t.Errorf("drill capacity = %d, want 1", got)
	}
	if got := u.PassageWordCount(ModeDrill); got != 300 {
		t.Errorf("drill word count without override = %d, want 300", got)
	}
}
