package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/quizbank/internal/question"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	now    func() time.Time
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, now: time.Now}
}

func (s *SQLStore) Put(ctx context.Context, b question.Bank) error {
	qs := b.Questions
	if qs == nil {
		qs = []question.Question{}
	}
	qj, err := json.Marshal(qs)
	if err != nil {
		return err
	}
	now := s.now()
	created, updated := b.CreatedAt, b.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = now
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO banks (id,name,description,questions_json,question_count,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, description=EXCLUDED.description,
			questions_json=EXCLUDED.questions_json, question_count=EXCLUDED.question_count, updated_at=EXCLUDED.updated_at`,
		b.ID, b.Name, b.Description, string(qj), len(qs), created.UnixMilli(), updated.UnixMilli())
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (question.Bank, error) {
	return s.get(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLStore) get(ctx context.Context, q queryer, id string) (question.Bank, error) {
	row := q.QueryRowContext(ctx, `SELECT id,name,description,questions_json,created_at,updated_at FROM banks WHERE id=$1`, id)
	var b question.Bank
	var qjson string
	var created, updated int64
	if err := row.Scan(&b.ID, &b.Name, &b.Description, &qjson, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return question.Bank{}, ErrNotFound
		}
		return question.Bank{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &b.Questions); err != nil {
		return question.Bank{}, fmt.Errorf("decode questions of bank %s: %w", id, err)
	}
	b.CreatedAt = time.UnixMilli(created).UTC()
	b.UpdatedAt = time.UnixMilli(updated).UTC()
	return b, nil
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Summary, error) {
	query := `SELECT id,name,description,question_count,updated_at FROM banks`
	args := []any{}
	if q := strings.TrimSpace(opts.Q); q != "" {
		query += ` WHERE LOWER(name) LIKE $1`
		args = append(args, "%"+strings.ToLower(q)+"%")
	}
	query += ` ORDER BY updated_at DESC, id ASC`
	if opts.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, opts.Limit, max(opts.Offset, 0))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var updated int64
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Description, &sm.QuestionCount, &updated); err != nil {
			return nil, err
		}
		sm.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM banks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) AppendQuestions(ctx context.Context, id string, qs []question.Question) (question.Bank, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return question.Bank{}, err
	}
	defer tx.Rollback()

	b, err := s.get(ctx, tx, id)
	if err != nil {
		return question.Bank{}, err
	}
	b.Questions = mergeQuestions(b.Questions, qs)
	b.UpdatedAt = s.now().UTC()

	buf, err := json.Marshal(b.Questions)
	if err != nil {
		return question.Bank{}, err
	}
	_, err = tx.ExecContext(ctx, `UPDATE banks SET questions_json=$1, question_count=$2, updated_at=$3 WHERE id=$4`,
		string(buf), len(b.Questions), b.UpdatedAt.UnixMilli(), id)
	if err != nil {
		return question.Bank{}, err
	}
	if err := tx.Commit(); err != nil {
		return question.Bank{}, err
	}
	b.UpdatedAt = time.UnixMilli(b.UpdatedAt.UnixMilli()).UTC()
	return b, nil
}
