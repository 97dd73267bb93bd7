// Package revision builds timed practice tests from a question bank and
// scores the answers submitted for them.
package revision

import (
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/quizbank/internal/grading"
	"github.com/mind-engage/quizbank/internal/question"
)

var ErrNoQuestions = errors.New("revision: no questions match the filters")

type Options struct {
	Count        int                   `json:"count"` // 0 = every matching question
	Tags         []string              `json:"tags,omitempty"`
	Difficulties []question.Difficulty `json:"difficulties,omitempty"`
	Shuffle      bool                  `json:"shuffle"`
	Seed         int64                 `json:"seed,omitempty"` // 0 = time based
	TimeLimitSec int                   `json:"time_limit_sec,omitempty"`
}

type Test struct {
	ID        string              `json:"id"`
	BankID    string              `json:"bank_id"`
	Questions []question.Question `json:"questions"`
	StartedAt time.Time           `json:"started_at"`
	Deadline  *time.Time          `json:"deadline,omitempty"`
}

type Item struct {
	QuestionID string         `json:"question_id"`
	Selected   []string       `json:"selected"`
	Result     grading.Result `json:"result"`
}

type Report struct {
	TestID  string  `json:"test_id"`
	Total   int     `json:"total"`
	Correct int     `json:"correct"`
	Percent float64 `json:"percent"`
	Expired bool    `json:"expired"` // submitted after the deadline
	Items   []Item  `json:"items"`
}

// Build selects the questions of b matching opts.
func Build(b question.Bank, opts Options, now time.Time) (Test, error) {
	picked := make([]question.Question, 0, len(b.Questions))
	for _, q := range b.Questions {
		if matchesTags(q, opts.Tags) && matchesDifficulty(q, opts.Difficulties) {
			picked = append(picked, q)
		}
	}
	if len(picked) == 0 {
		return Test{}, ErrNoQuestions
	}
	if opts.Shuffle {
		seed := opts.Seed
		if seed == 0 {
			seed = now.UnixNano()
		}
		r := rand.New(rand.NewSource(seed))
		r.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	}
	if opts.Count > 0 && opts.Count < len(picked) {
		picked = picked[:opts.Count]
	}

	t := Test{
		ID:        uuid.NewString(),
		BankID:    b.ID,
		Questions: picked,
		StartedAt: now,
	}
	if opts.TimeLimitSec > 0 {
		d := now.Add(time.Duration(opts.TimeLimitSec) * time.Second)
		t.Deadline = &d
	}
	return t, nil
}

// Score grades answers (question id -> selected values). Unanswered
// questions count as wrong.
func Score(t Test, answers map[string][]string, at time.Time) Report {
	return ScoreWith(grading.NewDefaultGrader(), t, answers, at)
}

func ScoreWith(g *grading.Grader, t Test, answers map[string][]string, at time.Time) Report {
	rep := Report{TestID: t.ID, Total: len(t.Questions), Items: make([]Item, 0, len(t.Questions))}
	for _, q := range t.Questions {
		sel := answers[q.ID]
		res := g.GradeQuestion(q, sel)
		if res.Correct {
			rep.Correct++
		}
		rep.Items = append(rep.Items, Item{QuestionID: q.ID, Selected: sel, Result: res})
	}
	if rep.Total > 0 {
		rep.Percent = float64(rep.Correct) * 100 / float64(rep.Total)
	}
	rep.Expired = t.Deadline != nil && at.After(*t.Deadline)
	return rep
}

// StripAnswers returns a copy of t safe to hand to a learner: choice values
// stay, correctness flags are cleared and the type is filled in.
func StripAnswers(t Test) Test {
	out := t
	out.Questions = make([]question.Question, len(t.Questions))
	for i, q := range t.Questions {
		q.QuestionType = q.ResolvedType()
		cs := make([]question.Choice, len(q.Choices))
		for j, c := range q.Choices {
			cs[j] = question.Choice{Value: c.Value}
		}
		// the only choice of these types is the answer itself
		if q.QuestionType == question.Numerical || q.QuestionType == question.Essay {
			cs = nil
		}
		q.Choices = cs
		out.Questions[i] = q
	}
	return out
}

func matchesTags(q question.Question, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range q.Tags {
			if want == have {
				return true
			}
		}
	}
	return false
}

func matchesDifficulty(q question.Question, ds []question.Difficulty) bool {
	if len(ds) == 0 {
		return true
	}
	for _, d := range ds {
		if q.Difficulty == d {
			return true
		}
	}
	return false
}
