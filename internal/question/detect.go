package question

import (
	"regexp"
	"strings"
)

var (
	trueTokens  = map[string]struct{}{"true": {}, "t": {}, "yes": {}, "y": {}, "1": {}, "correct": {}, "right": {}, "đúng": {}}
	falseTokens = map[string]struct{}{"false": {}, "f": {}, "no": {}, "n": {}, "0": {}, "incorrect": {}, "wrong": {}, "sai": {}}

	// decimal with optional exponent | a/b | n%
	numericPattern = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$|^[+-]?\d+/\d+$|^[+-]?\d+(?:\.\d+)?%$`)
)

// ParseBoolToken maps a true-ish or false-ish token (trimmed, case
// insensitive) to its boolean. ok is false for anything else.
func ParseBoolToken(s string) (value, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if _, hit := trueTokens[s]; hit {
		return true, true
	}
	if _, hit := falseTokens[s]; hit {
		return false, true
	}
	return false, false
}

// IsNumeric reports whether s looks like a numerical answer.
func IsNumeric(s string) bool {
	return numericPattern.MatchString(strings.TrimSpace(s))
}

// Detect classifies a choice list. Rules are applied in order and the first
// match wins.
func Detect(choices []Choice) Type {
	if len(choices) == 0 {
		return Essay
	}
	if len(choices) == 2 && isTrueFalsePair(choices[0].Value, choices[1].Value) {
		return TrueFalse
	}
	if len(choices) == 1 && choices[0].IsCorrect {
		if IsNumeric(choices[0].Value) {
			return Numerical
		}
		return Essay
	}
	correct := 0
	for _, c := range choices {
		if c.IsCorrect {
			correct++
		}
	}
	if correct > 1 {
		return MultipleChoice
	}
	return SingleChoice
}

func isTrueFalsePair(a, b string) bool {
	av, aok := ParseBoolToken(a)
	bv, bok := ParseBoolToken(b)
	return aok && bok && av != bv
}
