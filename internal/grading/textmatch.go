package grading

import "strings"

// normalize trims surrounding whitespace and lower-cases.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
