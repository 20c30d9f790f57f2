package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// passageRepo implements PassageRepo with the ent SQL builder.
type passageRepo struct {
	db *sql.DB
}

var passageColumns = []string{
	"id", "product", "section", "mode", "title", "content",
	"word_count", "difficulty", "capacity", "attached_count",
}

func (r *passageRepo) Create(ctx context.Context, p *Passage) error {
	if p.Capacity < 1 {
		return fmt.Errorf("passage capacity must be positive, got %d", p.Capacity)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	query, args := builder.Insert(passagesTable).
		Columns(append(passageColumns, "created_at")...).
		Values(p.ID, p.Product, p.Section, p.Mode, p.Title, p.Content,
			p.WordCount, p.Difficulty, p.Capacity, 0, now).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert passage: %w", err)
	}
	p.Attached = 0
	p.CreatedAt = now
	return nil
}

func (r *passageRepo) FindAvailable(ctx context.Context, pq PassageQuery) (*Passage, error) {
	modes := make([]any, len(pq.Modes))
	for i, m := range pq.Modes {
		modes[i] = m
	}
	query, args := builder.Select(passageColumns...).
		From(builder.Table(passagesTable)).
		Where(entsql.And(
			entsql.EQ("product", pq.Product),
			entsql.EQ("section", pq.Section),
			entsql.EQ("difficulty", pq.Difficulty),
			entsql.In("mode", modes...),
			entsql.ColumnsLT("attached_count", "capacity"),
		)).
		OrderBy("created_at", "rowid").
		Limit(1).
		Query()

	p, err := scanPassage(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (r *passageRepo) Get(ctx context.Context, id string) (*Passage, error) {
	query, args := builder.Select(passageColumns...).
		From(builder.Table(passagesTable)).
		Where(entsql.EQ("id", id)).
		Query()
	return scanPassage(r.db.QueryRowContext(ctx, query, args...))
}

func (r *passageRepo) QuestionTexts(ctx context.Context, id string) ([]string, error) {
	query, args := builder.Select("question_text").
		From(builder.Table(questionsTable)).
		Where(entsql.EQ("passage_id", id)).
		OrderBy("created_at", "rowid").
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query passage questions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan passage question: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanPassage(row *sql.Row) (*Passage, error) {
	var p Passage
	err := row.Scan(&p.ID, &p.Product, &p.Section, &p.Mode, &p.Title, &p.Content,
		&p.WordCount, &p.Difficulty, &p.Capacity, &p.Attached)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan passage: %w", err)
	}
	return &p, nil
}
