package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mind-engage/quizbank/internal/question"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		selected []string
		correct  []string
		typ      question.Type
		want     bool
	}{
		{"empty submission", nil, []string{"A"}, question.SingleChoice, false},
		{"empty submission essay", []string{}, []string{"x"}, question.Essay, false},

		{"single exact", []string{"B"}, []string{"A", "B"}, question.SingleChoice, true},
		{"single two selected", []string{"A", "B"}, []string{"A", "B"}, question.SingleChoice, false},
		{"single case sensitive", []string{"b"}, []string{"B"}, question.SingleChoice, false},
		{"single untrimmed", []string{" B"}, []string{"B"}, question.SingleChoice, false},

		{"multi order irrelevant", []string{"A", "B"}, []string{"B", "A"}, question.MultipleChoice, true},
		{"multi missing one", []string{"A"}, []string{"A", "B"}, question.MultipleChoice, false},
		{"multi extra one", []string{"A", "B", "C"}, []string{"A", "B"}, question.MultipleChoice, false},
		{"multi duplicates collapse", []string{"A", "A", "B"}, []string{"B", "A"}, question.MultipleChoice, true},

		{"true false token", []string{" Yes "}, []string{"True"}, question.TrueFalse, true},
		{"true false mismatch", []string{"no"}, []string{"true"}, question.TrueFalse, false},
		{"true false unmapped input", []string{"maybe"}, []string{"true"}, question.TrueFalse, false},
		{"true false unmapped key", []string{"yes"}, []string{"definitely"}, question.TrueFalse, false},
		{"true false only first entry", []string{"false", "true"}, []string{"true"}, question.TrueFalse, false},

		{"numeric tolerance", []string{"3.0000000001"}, []string{"3"}, question.Numerical, true},
		{"numeric mismatch", []string{"4"}, []string{"3"}, question.Numerical, false},
		{"numeric exponent", []string{"1e3"}, []string{"1000"}, question.Numerical, true},
		{"numeric trimmed", []string{"  2.5 "}, []string{"2.50"}, question.Numerical, true},
		{"numeric any key", []string{"7"}, []string{"six", "7.0"}, question.Numerical, true},
		{"fraction falls back to string", []string{"1/2"}, []string{"1/2"}, question.Numerical, true},
		{"fraction not evaluated", []string{"1/2"}, []string{"0.5"}, question.Numerical, false},
		{"percentage case insensitive", []string{"50%"}, []string{"50%"}, question.Numerical, true},
		{"numeric blank", []string{"   "}, []string{"3"}, question.Numerical, false},
		{"numeric large magnitude distinct", []string{"1000000000000000.125"}, []string{"1000000000000000"}, question.Numerical, false},
		{"numeric large magnitude equal", []string{"1e15"}, []string{"1000000000000000"}, question.Numerical, true},

		{"essay substring", []string{"Paris is lovely"}, []string{"Paris"}, question.Essay, true},
		{"essay contained", []string{"paris"}, []string{"The city of Paris"}, question.Essay, true},
		{"essay unrelated", []string{"London"}, []string{"Paris"}, question.Essay, false},
		{"essay blank", []string{"  "}, []string{"Paris"}, question.Essay, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.selected, tt.correct, tt.typ))
		})
	}
}

func TestValidateUnknownTypeUsesSingleChoiceRules(t *testing.T) {
	assert.True(t, Validate([]string{"A"}, []string{"A"}, question.Type("matching")))
	assert.False(t, Validate([]string{"a"}, []string{"A"}, question.Type("matching")))
}

func TestWithTolerance(t *testing.T) {
	g := NewDefaultGrader(WithTolerance(0.01))
	assert.True(t, g.Validate([]string{"3.14"}, []string{"3.14159"}, question.Numerical))
	assert.False(t, Validate([]string{"3.14"}, []string{"3.14159"}, question.Numerical))

	exact := NewDefaultGrader(WithTolerance(0))
	assert.True(t, exact.Validate([]string{"2.5"}, []string{"2.50"}, question.Numerical))
	assert.False(t, exact.Validate([]string{"2.5000001"}, []string{"2.5"}, question.Numerical))
}

func TestGradeQuestion(t *testing.T) {
	g := NewDefaultGrader()
	q := question.Question{Choices: []question.Choice{
		{Value: "A", IsCorrect: true}, {Value: "B"}, {Value: "C", IsCorrect: true},
	}}
	res := g.GradeQuestion(q, []string{"C", "A"})
	assert.True(t, res.Correct)
	assert.Equal(t, question.MultipleChoice, res.Type)
	assert.Equal(t, []string{"A", "C"}, res.Expected)

	res = g.GradeQuestion(q, []string{"A"})
	assert.False(t, res.Correct)
}
