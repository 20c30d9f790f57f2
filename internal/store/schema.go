package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names.
const (
	passagesTable  = "passages"
	questionsTable = "questions"
	eventsTable    = "llm_request_events"
)

var (
	// PassagesColumns holds the columns for the "passages" table.
	PassagesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "product", Type: field.TypeString},
		{Name: "section", Type: field.TypeString},
		{Name: "mode", Type: field.TypeString},
		{Name: "title", Type: field.TypeString},
		{Name: "content", Type: field.TypeString, Size: 2147483647},
		{Name: "word_count", Type: field.TypeInt},
		{Name: "difficulty", Type: field.TypeInt},
		{Name: "capacity", Type: field.TypeInt},
		{Name: "attached_count", Type: field.TypeInt, Default: 0},
		{Name: "created_at", Type: field.TypeTime},
	}
	// PassagesTable holds the schema information for the "passages" table.
	PassagesTable = &schema.Table{
		Name:       passagesTable,
		Columns:    PassagesColumns,
		PrimaryKey: []*schema.Column{PassagesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "passage_product_section_difficulty",
				Unique:  false,
				Columns: []*schema.Column{PassagesColumns[1], PassagesColumns[2], PassagesColumns[7]},
			},
		},
	}

	// QuestionsColumns holds the columns for the "questions" table.
	QuestionsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Unique: true},
		{Name: "product", Type: field.TypeString},
		{Name: "section", Type: field.TypeString},
		{Name: "sub_skill", Type: field.TypeString},
		{Name: "difficulty", Type: field.TypeInt},
		{Name: "mode", Type: field.TypeString},
		{Name: "question_text", Type: field.TypeString, Size: 2147483647},
		{Name: "answer_options", Type: field.TypeJSON},
		{Name: "correct_answer", Type: field.TypeString, Size: 2147483647},
		{Name: "solution_text", Type: field.TypeString, Size: 2147483647},
		{Name: "rubric", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "content_key", Type: field.TypeString},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "passage_id", Type: field.TypeString, Nullable: true},
	}
	// QuestionsTable holds the schema information for the "questions" table.
	QuestionsTable = &schema.Table{
		Name:       questionsTable,
		Columns:    QuestionsColumns,
		PrimaryKey: []*schema.Column{QuestionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "questions_passages_questions",
				Columns:    []*schema.Column{QuestionsColumns[13]},
				RefColumns: []*schema.Column{PassagesColumns[0]},
				OnDelete:   schema.SetNull,
			},
		},
		Indexes: []*schema.Index{
			{
				Name:    "question_product_section_sub_skill_content_key",
				Unique:  true,
				Columns: []*schema.Column{QuestionsColumns[1], QuestionsColumns[2], QuestionsColumns[3], QuestionsColumns[11]},
			},
			{
				Name:    "question_product_section_sub_skill_difficulty_mode",
				Unique:  false,
				Columns: []*schema.Column{QuestionsColumns[1], QuestionsColumns[2], QuestionsColumns[3], QuestionsColumns[4], QuestionsColumns[5]},
			},
		},
	}

	// LlmRequestEventsColumns holds the columns for the "llm_request_events" table.
	LlmRequestEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "run_id", Type: field.TypeString, Default: ""},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// LlmRequestEventsTable holds the schema information for the "llm_request_events" table.
	LlmRequestEventsTable = &schema.Table{
		Name:       eventsTable,
		Columns:    LlmRequestEventsColumns,
		PrimaryKey: []*schema.Column{LlmRequestEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "llmrequestevent_purpose",
				Unique:  false,
				Columns: []*schema.Column{LlmRequestEventsColumns[5]},
			},
			{
				Name:    "llmrequestevent_run_id",
				Unique:  false,
				Columns: []*schema.Column{LlmRequestEventsColumns[2]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		PassagesTable,
		QuestionsTable,
		LlmRequestEventsTable,
	}
)

func init() {
	QuestionsTable.ForeignKeys[0].RefTable = PassagesTable
}
