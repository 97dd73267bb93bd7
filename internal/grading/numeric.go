package grading

import (
	"math"
	"strconv"
	"strings"
)

// numericMatcher compares parsed floats within tol. Input that is not a
// plain float (fractions, percentages, words) falls back to a case
// insensitive exact match.
func numericMatcher(tol float64) func(string, []string) bool {
	return func(input string, correct []string) bool {
		uv, ok := parseFloat(input)
		if !ok {
			return matchFold(input, correct)
		}
		for _, k := range correct {
			kv, ok := parseFloat(k)
			if !ok {
				continue
			}
			if withinTolerance(uv, kv, tol) {
				return true
			}
		}
		return false
	}
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// withinTolerance is |a-b| < tol, widened by one ulp of the larger operand
// to absorb decimal-to-binary rounding ("3.0000000001" vs "3" lands inside
// a 1e-10 window). The widening never exceeds tol itself, so large values
// that differ by more than 2*tol stay distinct.
func withinTolerance(a, b, tol float64) bool {
	m := math.Max(math.Abs(a), math.Abs(b))
	ulp := math.Nextafter(m, math.Inf(1)) - m
	return a == b || math.Abs(a-b) < tol+math.Min(ulp, tol)
}
