package passage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/prepgen/internal/curriculum"
	"github.com/abhisek/prepgen/internal/llm"
	"github.com/abhisek/prepgen/internal/problemgen"
)

const passageSystemPrompt = `You write original reading passages for standardized selective-entry exams taken by students aged 9 to 14.

Rules:
- Write one self-contained passage: fiction, narrative non-fiction, an informational article or a poem.
- Stay close to the requested word count.
- Difficulty 1 uses familiar vocabulary and simple structure; 3 uses rich vocabulary, figurative language and implied meaning.
- The passage must support several distinct questions: main idea, inference, vocabulary in context and detail.
- Write the passage in final form. Do not include questions, notes, or corrections.
- Respond with a single JSON object and nothing else.`

// PassageSchema defines the JSON schema for passage generation responses.
var PassageSchema = &llm.Schema{
	Name:        "reading-passage",
	Description: "A reading comprehension passage with a title",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"description": "Short title of the passage",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "The passage text. Paragraphs separated by blank lines.",
			},
		},
		"required":             []any{"title", "content"},
		"additionalProperties": false,
	},
}

type passageOutput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func composePassage(req Request, words int, history []problemgen.Attempt, cfg Config) llm.Request {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", req.Unit.Product)
	fmt.Fprintf(&b, "Section: %s\n", req.Unit.Section.Name)
	fmt.Fprintf(&b, "Difficulty: %d of %d\n", req.Difficulty, curriculum.MaxDifficulty)
	fmt.Fprintf(&b, "Target length: about %d words\n", words)
	if req.Mode == curriculum.ModeDrill {
		b.WriteString("Use: a short extract for a single skill-drill question\n")
	} else {
		fmt.Fprintf(&b, "Use: shared by %d questions in a %s\n", req.Unit.QuestionsPerPassage(req.Mode), req.Mode)
	}

	if len(history) > 0 {
		b.WriteString("\nPreviously rejected attempts:\n")
		for _, a := range history {
			fmt.Fprintf(&b, "Attempt %d was rejected (%s: %s)\n", a.Number, a.Reason, a.Detail)
		}
		b.WriteString("Fix these problems in this attempt.\n")
	}

	return llm.Request{
		System: passageSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: b.String()},
		},
		Schema:      PassageSchema,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}

// parsePassage decodes a passage response strictly.
func parsePassage(raw []byte) (*passageOutput, error) {
	obj, err := problemgen.ExtractObject(raw)
	if err != nil {
		return nil, structural(fmt.Sprintf("unparseable passage: %v", err))
	}
	dec := json.NewDecoder(bytes.NewReader(obj))
	dec.DisallowUnknownFields()
	var out passageOutput
	if err := dec.Decode(&out); err != nil {
		return nil, structural(fmt.Sprintf("unparseable passage: %v", err))
	}
	out.Title = strings.TrimSpace(out.Title)
	out.Content = strings.TrimSpace(out.Content)
	return &out, nil
}
