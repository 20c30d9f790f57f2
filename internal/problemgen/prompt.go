package problemgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/llm"
)

const systemPrompt = `You write original questions for standardized selective-entry and scholarship exams taken by students aged 9 to 14.

Rules:
- Generate exactly one question for the given section, sub-skill, difficulty and test mode.
- Difficulty 1 is accessible, 2 is typical exam standard, 3 is the hardest items on the paper.
- The question must be self-contained. Describe any diagram, table or picture fully in words; never refer to an image that is not there.
- For multiple choice, provide exactly the requested number of options. Exactly one option is correct and correct_answer repeats its text verbatim. Distractors reflect common mistakes.
- For extended-response writing prompts, leave answer_options empty and correct_answer empty, and provide a scoring rubric.
- The solution explains the answer clearly and confidently in final form. Do not show second-guessing or corrections.
- Never repeat or lightly reword a question from the "avoid" lists.
- Respond with a single JSON object and nothing else.`

// Compose builds the generation request for one attempt. The rejected
// attempt block is included only when input.History is non-empty.
func Compose(input GenerateInput, cfg Config) llm.Request {
	return llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input, cfg)},
		},
		Schema:      QuestionSchema,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

// buildUserMessage constructs the user message from GenerateInput and Config limits.
func buildUserMessage(input GenerateInput, cfg Config) string {
	u := input.Unit
	var b strings.Builder

	fmt.Fprintf(&b, "Product: %s\n", u.Product)
	fmt.Fprintf(&b, "Section: %s (%s)\n", u.Section.Name, u.Category())
	fmt.Fprintf(&b, "Sub-skill: %s\n", u.SubSkill.Name)
	if u.SubSkill.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", u.SubSkill.Description)
	}
	fmt.Fprintf(&b, "Difficulty: %d of %d\n", input.Difficulty, curriculum.MaxDifficulty)
	fmt.Fprintf(&b, "Test mode: %s\n", modeLabel(input.Mode))

	if u.IsWriting() {
		b.WriteString("Answer format: extended response with a scoring rubric\n")
	} else {
		fmt.Fprintf(&b, "Answer format: multiple choice with exactly %d options\n", u.Section.OptionCount)
	}

	if style := strings.TrimSpace(u.SubSkill.Style); style != "" {
		b.WriteString("\nStyle guidance:\n")
		b.WriteString(style)
		b.WriteString("\n")
	}

	if len(u.SubSkill.Examples) > 0 {
		ex := u.SubSkill.Examples[0]
		b.WriteString("\nCondensed example (match the pattern, not the content):\n")
		fmt.Fprintf(&b, "Q: %s\n", excerpt(ex.QuestionText, cfg.MaxExampleChars))
		if ex.Explanation != "" {
			fmt.Fprintf(&b, "Why: %s\n", excerpt(ex.Explanation, cfg.MaxExampleChars))
		}
	}

	if p := input.Passage; p != nil {
		fmt.Fprintf(&b, "\nPassage: %s\n", p.Title)
		b.WriteString(p.Content)
		b.WriteString("\n\nThe question must be answerable from this passage alone.\n")
		b.WriteString("\nQuestions already asked about this passage (ask something different):\n")
		b.WriteString(numberedList(p.Questions, 0))
		b.WriteString("\n")
	}

	b.WriteString("\nExisting questions to avoid:\n")
	b.WriteString(numberedList(input.PriorQuestions, cfg.MaxPriorQuestions))
	b.WriteString("\n")

	if len(input.History) > 0 {
		b.WriteString(buildRejected(input.History, cfg.MaxRejectedChars))
	}

	return b.String()
}

// buildRejected formats the retry block listing every rejected attempt.
func buildRejected(history []Attempt, maxChars int) string {
	var b strings.Builder
	b.WriteString("\nPreviously rejected attempts for this question:\n")
	for _, a := range history {
		fmt.Fprintf(&b, "Attempt %d was rejected (%s", a.Number, a.Reason)
		if a.Detail != "" {
			fmt.Fprintf(&b, ": %s", excerpt(a.Detail, maxChars))
		}
		b.WriteString(")\n")
		if a.CandidateText != "" {
			fmt.Fprintf(&b, "  Rejected text: %s\n", excerpt(a.CandidateText, maxChars))
		}
	}
	b.WriteString("Do not repeat these mistakes. Use a different target word, different numbers and a different structure.\n")
	return b.String()
}

// numberedList formats items for the prompt, keeping the first max items.
// Returns "None" if there are no items.
func numberedList(items []string, max int) string {
	if len(items) == 0 {
		return "None"
	}
	if max > 0 && len(items) > max {
		items = items[:max]
	}

	var b strings.Builder
	for i, q := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, excerpt(q, 300))
	}
	return strings.TrimRight(b.String(), "\n")
}

func modeLabel(m curriculum.Mode) string {
	switch {
	case m == curriculum.ModeDiagnostic:
		return "diagnostic test"
	case m == curriculum.ModeDrill:
		return "skill drill"
	case m.IsPractice():
		return fmt.Sprintf("practice test %d", m.PracticeIndex())
	}
	return string(m)
}
