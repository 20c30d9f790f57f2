package problemgen

import "github.com/abhisek/prepgen/internal/llm"

// QuestionSchema defines the JSON schema for question generation responses.
var QuestionSchema = &llm.Schema{
	Name:        "exam-question",
	Description: "A single exam question with its answer key and worked solution",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{
				"type":        "string",
				"description": "The question stem. Any visual is fully described in words.",
			},
			"answer_options": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
				"description": "The answer options in display order. Empty array for extended-response prompts.",
			},
			"correct_answer": map[string]any{
				"type":        "string",
				"description": "The exact text of the correct option. Empty string for extended-response prompts.",
			},
			"solution": map[string]any{
				"type":        "string",
				"description": "Worked solution explaining why the answer is correct, or a model response outline for writing prompts",
			},
			"rubric": map[string]any{
				"type":        "string",
				"description": "Scoring rubric for extended-response prompts. Empty string otherwise.",
			},
		},
		"required":             []any{"question_text", "answer_options", "correct_answer", "solution", "rubric"},
		"additionalProperties": false,
	},
}
