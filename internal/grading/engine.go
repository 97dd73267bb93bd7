package grading

import (
	"github.com/mind-engage/quizbank/internal/question"
)

// Result is the outcome of grading a single question response.
type Result struct {
	Correct  bool          `json:"correct"`
	Type     question.Type `json:"type"`
	Expected []string      `json:"expected,omitempty"` // correct values, for review screens
}

// Strategy decides whether a submission matches the correct values.
type Strategy interface {
	Match(selected, correct []string) bool
}

// Grader routes by question type to the correct Strategy.
type Grader struct {
	strategies map[question.Type]Strategy
	fallback   Strategy
}

// Engine options

type Option func(*config)

type config struct {
	Tolerance float64 // absolute tolerance for numerical answers
}

func WithTolerance(tol float64) Option { return func(c *config) { c.Tolerance = tol } }

// DefaultTolerance is the absolute difference under which two numbers are equal.
const DefaultTolerance = 1e-10

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) *Grader {
	cfg := &config{Tolerance: DefaultTolerance}
	for _, o := range opts {
		o(cfg)
	}
	return &Grader{
		strategies: map[question.Type]Strategy{
			question.SingleChoice:   exactStrategy{},
			question.MultipleChoice: setStrategy{},
			question.TrueFalse:      inputStrategy{match: matchBoolean},
			question.Numerical:      inputStrategy{match: numericMatcher(cfg.Tolerance)},
			question.Essay:          inputStrategy{match: matchContains},
		},
		fallback: inputStrategy{match: matchFold},
	}
}

var defaultGrader = NewDefaultGrader()

// Validate reports whether selected answers the question of type t whose
// correct values are correct. An empty submission is never correct.
func Validate(selected, correct []string, t question.Type) bool {
	return defaultGrader.Validate(selected, correct, t)
}

func (g *Grader) Validate(selected, correct []string, t question.Type) bool {
	if len(selected) == 0 {
		return false
	}
	return g.strategyFor(t).Match(selected, correct)
}

// GradeQuestion grades selected against the correct choices of q.
func (g *Grader) GradeQuestion(q question.Question, selected []string) Result {
	t := q.ResolvedType()
	expected := q.CorrectValues()
	return Result{
		Correct:  g.Validate(selected, expected, t),
		Type:     t,
		Expected: expected,
	}
}

// strategyFor follows the type config: input types use their matcher,
// single-select uses exact membership and multi-select uses set equality.
func (g *Grader) strategyFor(t question.Type) Strategy {
	if s, ok := g.strategies[t]; ok {
		return s
	}
	cfg := question.ConfigFor(t)
	switch {
	case cfg.RequiresInput:
		return g.fallback
	case cfg.AllowMultipleSelection:
		return setStrategy{}
	default:
		return exactStrategy{}
	}
}

// --- Strategies ---

type exactStrategy struct{}

func (exactStrategy) Match(selected, correct []string) bool {
	if len(selected) != 1 {
		return false
	}
	for _, k := range correct {
		if selected[0] == k {
			return true
		}
	}
	return false
}

type setStrategy struct{}

func (setStrategy) Match(selected, correct []string) bool {
	return setEqual(toSet(selected), toSet(correct))
}

// inputStrategy grades free-text input. Only the first entry is considered.
type inputStrategy struct {
	match func(input string, correct []string) bool
}

func (s inputStrategy) Match(selected, correct []string) bool {
	input := normalize(selected[0])
	if input == "" {
		return false
	}
	return s.match(input, correct)
}

func matchBoolean(input string, correct []string) bool {
	want, ok := question.ParseBoolToken(input)
	if !ok {
		return false
	}
	for _, k := range correct {
		if v, ok := question.ParseBoolToken(k); ok && v == want {
			return true
		}
	}
	return false
}

// matchContains is deliberately lenient: equality or substring either way.
func matchContains(input string, correct []string) bool {
	for _, k := range correct {
		nk := normalize(k)
		if containsEither(input, nk) {
			return true
		}
	}
	return false
}

func matchFold(input string, correct []string) bool {
	for _, k := range correct {
		if input == normalize(k) {
			return true
		}
	}
	return false
}

// helpers

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
