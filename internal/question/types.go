package question

import "fmt"

// Type is the closed set of question kinds.
type Type string

const (
	SingleChoice   Type = "single_choice"
	MultipleChoice Type = "multiple_choice"
	TrueFalse      Type = "true_false"
	Numerical      Type = "numerical"
	Essay          Type = "essay"
)

// Types returns every question type in display order.
func Types() []Type {
	return []Type{SingleChoice, MultipleChoice, TrueFalse, Numerical, Essay}
}

func (t Type) Valid() bool {
	_, ok := typeConfigs[t]
	return ok
}

type TypeConfig struct {
	Type                   Type   `json:"type"`
	Label                  string `json:"label"`
	Description            string `json:"description"`
	AllowMultipleSelection bool   `json:"allowMultipleSelection"`
	RequiresInput          bool   `json:"requiresInput"`
	MinChoices             int    `json:"minChoices"`
	MaxChoices             *int   `json:"maxChoices,omitempty"` // nil = unbounded
}

func limit(n int) *int { return &n }

var typeConfigs = map[Type]TypeConfig{
	SingleChoice: {
		Type:        SingleChoice,
		Label:       "Single Choice",
		Description: "Pick exactly one correct option",
		MinChoices:  2,
		MaxChoices:  limit(10),
	},
	MultipleChoice: {
		Type:                   MultipleChoice,
		Label:                  "Multiple Choice",
		Description:            "Pick every correct option",
		AllowMultipleSelection: true,
		MinChoices:             2,
		MaxChoices:             limit(10),
	},
	TrueFalse: {
		Type:          TrueFalse,
		Label:         "True/False",
		Description:   "Answer with true or false",
		RequiresInput: true,
		MinChoices:    2,
		MaxChoices:    limit(2),
	},
	Numerical: {
		Type:          Numerical,
		Label:         "Numerical",
		Description:   "Type a number",
		RequiresInput: true,
		MinChoices:    1,
		MaxChoices:    limit(1),
	},
	Essay: {
		Type:          Essay,
		Label:         "Essay",
		Description:   "Free-text answer",
		RequiresInput: true,
	},
}

// ConfigFor looks up the static configuration of t. Unknown types get the
// single choice row.
func ConfigFor(t Type) TypeConfig {
	if c, ok := typeConfigs[t]; ok {
		if c.MaxChoices != nil {
			c.MaxChoices = limit(*c.MaxChoices)
		}
		return c
	}
	return ConfigFor(SingleChoice)
}

// CheckChoiceCount reports whether n choices fit the bounds of t.
func CheckChoiceCount(t Type, n int) error {
	c := ConfigFor(t)
	if n < c.MinChoices {
		return fmt.Errorf("%s needs at least %d choices, got %d", t, c.MinChoices, n)
	}
	if c.MaxChoices != nil && n > *c.MaxChoices {
		return fmt.Errorf("%s allows at most %d choices, got %d", t, *c.MaxChoices, n)
	}
	return nil
}
