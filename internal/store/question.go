package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"
	"github.com/google/uuid"
)

// questionRepo implements QuestionRepo with the ent SQL builder.
type questionRepo struct {
	db *sql.DB
}

func (r *questionRepo) Insert(ctx context.Context, q *Question) error {
	key := ContentKey(q.Text)
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer rollback(tx)

	query, args := builder.Select("id").
		From(builder.Table(questionsTable)).
		Where(entsql.And(
			entsql.EQ("product", q.Product),
			entsql.EQ("section", q.Section),
			entsql.EQ("sub_skill", q.SubSkill),
			entsql.EQ("content_key", key),
		)).
		Limit(1).
		Query()
	var existing string
	switch err := tx.QueryRowContext(ctx, query, args...).Scan(&existing); {
	case err == nil:
		return ErrDuplicate
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("duplicate check: %w", err)
	}

	var passageID any
	if q.PassageID != "" {
		passageID = q.PassageID
		query, args := builder.Update(passagesTable).
			Add("attached_count", 1).
			Where(entsql.And(
				entsql.EQ("id", q.PassageID),
				entsql.ColumnsLT("attached_count", "capacity"),
			)).
			Query()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("attach to passage: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("attach to passage: %w", err)
		}
		if n == 0 {
			return ErrPassageFull
		}
	}

	now := time.Now().UTC()
	query, args = builder.Insert(questionsTable).
		Columns("id", "product", "section", "sub_skill", "difficulty", "mode",
			"question_text", "answer_options", "correct_answer", "solution_text",
			"rubric", "content_key", "created_at", "passage_id").
		Values(q.ID, q.Product, q.Section, q.SubSkill, q.Difficulty, q.Mode,
			q.Text, string(options), q.CorrectAnswer, q.Solution,
			q.Rubric, key, now, passageID).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert question: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	q.CreatedAt = now
	return nil
}

func (r *questionRepo) Inventory(ctx context.Context) (map[Bucket]int, error) {
	query, args := builder.Select("product", "section", "sub_skill", "difficulty", "mode", entsql.Count("*")).
		From(builder.Table(questionsTable)).
		GroupBy("product", "section", "sub_skill", "difficulty", "mode").
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	inv := make(map[Bucket]int)
	for rows.Next() {
		var b Bucket
		var n int
		if err := rows.Scan(&b.Product, &b.Section, &b.SubSkill, &b.Difficulty, &b.Mode, &n); err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		inv[b] = n
	}
	return inv, rows.Err()
}

func (r *questionRepo) Count(ctx context.Context, b Bucket) (int, error) {
	query, args := builder.Select(entsql.Count("*")).
		From(builder.Table(questionsTable)).
		Where(entsql.And(
			entsql.EQ("product", b.Product),
			entsql.EQ("section", b.Section),
			entsql.EQ("sub_skill", b.SubSkill),
			entsql.EQ("difficulty", b.Difficulty),
			entsql.EQ("mode", b.Mode),
		)).
		Query()
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bucket: %w", err)
	}
	return n, nil
}

var questionColumns = []string{
	"id", "product", "section", "sub_skill", "difficulty", "mode",
	"question_text", "answer_options", "correct_answer", "solution_text",
	"rubric", "passage_id",
}

func (r *questionRepo) Priors(ctx context.Context, pq PriorQuery) ([]Question, error) {
	preds := []*entsql.Predicate{
		entsql.EQ("product", pq.Product),
		entsql.EQ("section", pq.Section),
	}
	if pq.SubSkill != "" {
		preds = append(preds, entsql.EQ("sub_skill", pq.SubSkill))
	}
	if pq.Mode != "" {
		preds = append(preds, entsql.EQ("mode", pq.Mode))
	}
	if pq.PassageID != "" {
		preds = append(preds, entsql.EQ("passage_id", pq.PassageID))
	}

	sel := builder.Select(questionColumns...).
		From(builder.Table(questionsTable)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("rowid"))
	if pq.Limit > 0 {
		sel.Limit(pq.Limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query priors: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var (
			q         Question
			options   []byte
			passageID sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.Product, &q.Section, &q.SubSkill, &q.Difficulty, &q.Mode,
			&q.Text, &options, &q.CorrectAnswer, &q.Solution, &q.Rubric, &passageID); err != nil {
			return nil, fmt.Errorf("scan prior: %w", err)
		}
		if len(options) > 0 {
			if err := json.Unmarshal(options, &q.Options); err != nil {
				return nil, fmt.Errorf("decode options of %s: %w", q.ID, err)
			}
		}
		q.PassageID = passageID.String
		out = append(out, q)
	}
	return out, rows.Err()
}
