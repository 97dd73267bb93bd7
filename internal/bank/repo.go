package bank

import (
	"context"
	"errors"
	"time"

	"github.com/mind-engage/quizbank/internal/question"
)

var ErrNotFound = errors.New("bank not found")

type ListOpts struct {
	Q      string // case-insensitive name filter
	Limit  int
	Offset int
}

// Summary is the list view of a bank; questions are not loaded.
type Summary struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	QuestionCount int       `json:"question_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Store interface {
	Put(ctx context.Context, b question.Bank) error
	Get(ctx context.Context, id string) (question.Bank, error)
	List(ctx context.Context, opts ListOpts) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	// AppendQuestions adds qs to bank id, replacing questions with the same id.
	AppendQuestions(ctx context.Context, id string, qs []question.Question) (question.Bank, error)
}

func summarize(b question.Bank) Summary {
	return Summary{
		ID:            b.ID,
		Name:          b.Name,
		Description:   b.Description,
		QuestionCount: len(b.Questions),
		UpdatedAt:     b.UpdatedAt,
	}
}

// mergeQuestions appends add to base; an incoming question replaces an
// existing one with the same id in place.
func mergeQuestions(base, add []question.Question) []question.Question {
	idx := make(map[string]int, len(base))
	out := make([]question.Question, len(base), len(base)+len(add))
	copy(out, base)
	for i, q := range out {
		idx[q.ID] = i
	}
	for _, q := range add {
		if i, ok := idx[q.ID]; ok {
			out[i] = q
			continue
		}
		idx[q.ID] = len(out)
		out = append(out, q)
	}
	return out
}

func page(n int, opts ListOpts) (lo, hi int) {
	lo = opts.Offset
	if lo < 0 {
		lo = 0
	}
	if lo > n {
		lo = n
	}
	hi = n
	if opts.Limit > 0 && lo+opts.Limit < n {
		hi = lo + opts.Limit
	}
	return lo, hi
}
