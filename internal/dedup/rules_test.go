package dedup

import (
	"slices"
	"testing"

	"github.com/abhisek/prepgen/internal/curriculum"
)

func TestVerbalRule(t *testing.T) {
	prior := Item{Text: "Which word is most opposite in meaning to ABUNDANT?"}

	tests := []struct {
		name      string
		candidate string
		want      Verdict
	}{
		{"same word, synonym type", "Which word is most similar in meaning to ABUNDANT?", Distinct},
		{"same word, antonym reworded", "Choose the antonym of ABUNDANT.", Duplicate},
		{"same word, antonym phrased differently", "Select the word that means the OPPOSITE of ABUNDANT.", Duplicate},
		{"different word, same type", "Which word is most opposite in meaning to TIMID?", Distinct},
		{"quoted target", "Which word is opposite in meaning to 'abundant'?", Duplicate},
		{"no target", "Which of these is a noun?", Undecided},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerbalRule(Item{Text: tt.candidate}, prior); got != tt.want {
				t.Errorf("VerbalRule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestVerbalTarget_IgnoresEmphasis(t *testing.T) {
	targets, kind := VerbalTarget("Which word does NOT belong with the others: RED, BLUE, TALL?")
	if kind != "odd-one-out" {
		t.Errorf("kind = %q, want odd-one-out", kind)
	}
	want := []string{"blue", "red", "tall"}
	if len(targets) != len(want) {
		t.Fatalf("targets = %v, want %v", targets, want)
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Errorf("targets = %v, want %v", targets, want)
		}
	}
}

func TestMathsRule(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want Verdict
	}{
		{"same operands reworded", "What is 12 + 8?", "Calculate 12 + 8", Duplicate},
		{"operands reordered", "What is 12 + 8?", "Find 8 + 12.", Duplicate},
		{"different operands", "What is 12 + 8?", "What is 15 + 10?", Distinct},
		{"same numbers different structure", "What is 12 + 8?", "A rectangle is 12 cm long and 8 cm wide. What is its area?", Distinct},
		{"same numbers different operation", "What is 12 + 8?", "What is 12 × 8?", Distinct},
		{"no numbers", "Which shape has four equal sides?", "Which shape has three sides?", Undecided},
		{"times spelled out", "What is 12 × 8?", "What is 12 times 8?", Duplicate},
		{"time setting around the same sum", "What is 45 + 30?", "A film lasts 45 minutes and the trailers 30 minutes. How long is that in total?", Duplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MathsRule(Item{Text: tt.b}, Item{Text: tt.a}); got != tt.want {
				t.Errorf("MathsRule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMathsSignatureMatchesWholeWords(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"What is 12 times 8?", []string{"multiplication"}},
		{"What is the meaning of 12 ÷ 4?", []string{"division"}},
		{"Write the address 12 Oak Road in words.", nil},
		{"Ben leaves at 3 o'clock and walks for 2 hours. What time does he arrive?", []string{"time"}},
		{"Find the mean of 4, 6 and 8.", []string{"average"}},
	}
	for _, tt := range tests {
		_, kinds := MathsSignature(tt.text)
		if !slices.Equal(kinds, tt.want) {
			t.Errorf("MathsSignature(%q) kinds = %v, want %v", tt.text, kinds, tt.want)
		}
	}
}

func TestReadingRule(t *testing.T) {
	tests := []struct {
		name string
		a, b Item
		want Verdict
	}{
		{
			"different passages",
			Item{Text: "What is the main idea of the passage?", PassageID: "p1"},
			Item{Text: "What is the main idea of the passage?", PassageID: "p2"},
			Distinct,
		},
		{
			"main idea twice on one passage",
			Item{Text: "What is the main idea of the passage?", PassageID: "p1"},
			Item{Text: "Which would be the best title for this passage?", PassageID: "p1"},
			Duplicate,
		},
		{
			"same vocabulary term",
			Item{Text: `What does the word "reluctant" mean in paragraph 2?`, PassageID: "p1"},
			Item{Text: `In paragraph 2, the word "reluctant" is closest in meaning to`, PassageID: "p1"},
			Duplicate,
		},
		{
			"different vocabulary terms",
			Item{Text: `What does the word "reluctant" mean?`, PassageID: "p1"},
			Item{Text: `What does the word "eager" mean?`, PassageID: "p1"},
			Distinct,
		},
		{
			"different focus",
			Item{Text: "What is the main idea of the passage?", PassageID: "p1"},
			Item{Text: "What can you infer about the keeper?", PassageID: "p1"},
			Distinct,
		},
		{
			"two unanchored inferences",
			Item{Text: "What can you infer about the keeper?", PassageID: "p1"},
			Item{Text: "What can you infer about the storm?", PassageID: "p1"},
			Undecided,
		},
		{
			"no passage",
			Item{Text: "What is the main idea?"},
			Item{Text: "What is the main idea?"},
			Undecided,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadingRule(tt.b, tt.a); got != tt.want {
				t.Errorf("ReadingRule = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRuleFor_Writing(t *testing.T) {
	rule := RuleFor(curriculum.CategoryWriting)
	if got := rule(Item{Text: "a"}, Item{Text: "a"}); got != Undecided {
		t.Errorf("writing rule = %s, want undecided", got)
	}
}

func TestParseScope(t *testing.T) {
	if s, err := ParseScope(""); err != nil || s != ScopeCurrentMode {
		t.Errorf("empty scope = %q, %v", s, err)
	}
	if s, err := ParseScope("all_modes"); err != nil || s != ScopeAllModes {
		t.Errorf("all_modes = %q, %v", s, err)
	}
	if _, err := ParseScope("everything"); err == nil {
		t.Error("expected error for unknown scope")
	}
}
