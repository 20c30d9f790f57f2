package problemgen

import (
	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/store"
)

// Question is a parsed model candidate. It becomes a store.Question once
// every validator accepts it.
type Question struct {
	// Text is the question stem. Visual content is described in words.
	Text string

	// Options holds the answer options. Empty for extended-response
	// (writing) items.
	Options []string

	// CorrectAnswer is the text of the correct option. Empty for
	// extended-response items.
	CorrectAnswer string

	// Solution is the worked explanation, or a model response outline for
	// writing prompts.
	Solution string

	// Rubric is the scoring rubric reference for extended-response items.
	Rubric string
}

// Reason classifies a rejected candidate.
type Reason string

const (
	ReasonHallucination     Reason = "hallucination_pattern"
	ReasonExactDuplicate    Reason = "exact_duplicate"
	ReasonCategoryDuplicate Reason = "category_duplicate"
	ReasonSemanticDuplicate Reason = "semantic_duplicate"
	ReasonStructural        Reason = "structural_invalid"
)

// Attempt records one rejected generation attempt for a task unit. The
// history of attempts is fed back into the next prompt.
type Attempt struct {
	TaskRef       string
	Number        int
	CandidateText string
	Reason        Reason
	Detail        string
}

// PassageContext is the shared stimulus a reading question hangs off.
type PassageContext struct {
	ID      string
	Title   string
	Content string

	// Questions holds the texts of questions already attached.
	Questions []string
}

// GenerateInput holds all context needed to compose and validate one
// question.
type GenerateInput struct {
	Unit       curriculum.UnitSpec
	Mode       curriculum.Mode
	Difficulty int

	// Passage is set for passage-anchored sections.
	Passage *PassageContext

	// PriorQuestions holds recent bank questions for the same sub-skill,
	// newest first. Listed in the prompt as questions to avoid.
	PriorQuestions []string

	// History lists the rejected attempts for this unit so far, oldest
	// first. Empty on the first attempt.
	History []Attempt
}

// ToStore converts an accepted candidate into a row for the bank.
func (q *Question) ToStore(input GenerateInput) *store.Question {
	row := &store.Question{
		Product:       input.Unit.Product,
		Section:       input.Unit.Section.Name,
		SubSkill:      input.Unit.SubSkill.Name,
		Difficulty:    input.Difficulty,
		Mode:          string(input.Mode),
		Text:          q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
		Solution:      q.Solution,
		Rubric:        q.Rubric,
	}
	if input.Passage != nil {
		row.PassageID = input.Passage.ID
	}
	return row
}
