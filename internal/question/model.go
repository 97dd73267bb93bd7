package question

import "time"

// Choice is one selectable (or authoritative) answer option of a question.
type Choice struct {
	Value     string `json:"value"`
	IsCorrect bool   `json:"isCorrect"`
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Question struct {
	ID         string     `json:"id"`
	Question   string     `json:"question"` // rich-text / HTML body
	Choices    []Choice   `json:"choices"`  // empty means free response
	Tags       []string   `json:"tags"`
	Notes      string     `json:"notes"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	CreatedAt  time.Time  `json:"createdAt"`

	// Cached classification; derived from Choices when empty.
	QuestionType Type `json:"questionType,omitempty"`
}

// ResolvedType returns the stored type when it is a known one, otherwise
// the type detected from the choices.
func (q Question) ResolvedType() Type {
	if q.QuestionType.Valid() {
		return q.QuestionType
	}
	return Detect(q.Choices)
}

// CorrectValues lists the values of the choices marked correct, in order.
func (q Question) CorrectValues() []string {
	out := make([]string, 0, len(q.Choices))
	for _, c := range q.Choices {
		if c.IsCorrect {
			out = append(out, c.Value)
		}
	}
	return out
}

type Bank struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
