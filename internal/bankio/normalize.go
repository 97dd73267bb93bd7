package bankio

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/quizbank/internal/question"
)

const defaultQuestionText = "New Question"

func defaultChoices() []question.Choice {
	return []question.Choice{{Value: "A", IsCorrect: true}, {Value: "B", IsCorrect: false}}
}

func newID() string { return uuid.NewString() }

// NormalizeQuestion fills in defaults for every field of a decoded question
// record. It never fails: anything unusable is replaced by its default.
func NormalizeQuestion(raw map[string]any, now time.Time, newID func() string) question.Question {
	q := question.Question{
		ID:         nonEmptyString(raw["id"]),
		Question:   nonEmptyString(raw["question"]),
		Choices:    normalizeChoices(raw["choices"]),
		Tags:       stringSlice(raw["tags"]),
		Notes:      plainString(raw["notes"]),
		Category:   plainString(raw["category"]),
		Difficulty: question.Difficulty(plainString(raw["difficulty"])),
		CreatedAt:  parseTime(raw["createdAt"], now),
	}
	if q.ID == "" {
		q.ID = newID()
	}
	if q.Question == "" {
		q.Question = defaultQuestionText
	}
	if !q.Difficulty.Valid() {
		q.Difficulty = question.DifficultyEasy
	}
	if t := question.Type(plainString(raw["questionType"])); t.Valid() {
		q.QuestionType = t
	}
	return q
}

// Normalize applies the NormalizeQuestion defaults to an already typed
// question, with now standing in for a missing CreatedAt. Normalizing twice
// is a no-op.
func Normalize(q question.Question, now time.Time) question.Question {
	return normalize(q, now, false)
}

// NormalizeAuthored is Normalize for questions written through the API.
// An empty choice list marks an essay and is kept empty.
func NormalizeAuthored(q question.Question, now time.Time) question.Question {
	return normalize(q, now, true)
}

func normalize(q question.Question, now time.Time, keepEmpty bool) question.Question {
	out := q
	if out.ID == "" {
		out.ID = newID()
	}
	if out.Question == "" {
		out.Question = defaultQuestionText
	}
	out.Choices = make([]question.Choice, 0, len(q.Choices))
	for _, c := range q.Choices {
		if c.Value == "" && !c.IsCorrect {
			continue
		}
		out.Choices = append(out.Choices, c)
	}
	if len(out.Choices) == 0 && !keepEmpty {
		out.Choices = defaultChoices()
	}
	out.Tags = append([]string{}, q.Tags...)
	if !out.Difficulty.Valid() {
		out.Difficulty = question.DifficultyEasy
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	if !out.QuestionType.Valid() {
		out.QuestionType = ""
	}
	return out
}

func normalizeChoices(v any) []question.Choice {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return defaultChoices()
	}
	out := make([]question.Choice, 0, len(arr))
	for _, e := range arr {
		var c question.Choice
		if m, ok := e.(map[string]any); ok {
			c.Value = jsString(m["value"])
			c.IsCorrect = truthy(m["isCorrect"])
		}
		if c.Value == "" && !c.IsCorrect {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return defaultChoices()
	}
	return out
}

func stringSlice(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		out = append(out, jsString(e))
	}
	return out
}

func plainString(v any) string {
	s, _ := v.(string)
	return s
}

// nonEmptyString accepts strings and numbers, the way a loose id field is
// written by hand-edited files.
func nonEmptyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return jsString(t)
	}
	return ""
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// parseTime accepts ISO-8601 style strings and epoch milliseconds.
func parseTime(v any, now time.Time) time.Time {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
	case float64:
		if !math.IsNaN(t) && !math.IsInf(t, 0) {
			return time.UnixMilli(int64(t)).UTC()
		}
	}
	return now
}

// jsString renders v the way String(v ?? "") would for decoded JSON values.
func jsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return jsNumber(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = jsString(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	}
	return ""
}

// jsNumber uses plain decimal notation for 1e-6 <= |f| < 1e21 and an
// exponent without zero padding ("1.5e-7", "1e+21") outside that range.
func jsNumber(f float64) string {
	a := math.Abs(f)
	if a == 0 {
		return "0"
	}
	if a >= 1e-6 && a < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	mant, exp, ok := strings.Cut(s, "e")
	if !ok || exp == "" {
		return s
	}
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mant + "e" + exp[:1] + digits
}

// truthy mirrors Boolean(v ?? false) for decoded JSON values.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	}
	return true
}
