// Package input coerces raw form values into numbers. Malformed values never
// produce errors: they fall back to the neutral value 0.
package input

import (
	"strconv"
	"strings"
)

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Int parses the leading integer of raw, ignoring surrounding whitespace and
// any trailing garbage ("12abc" is 12, "3.9" is 3). Anything without a
// leading integer is 0.
func Int(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == digits {
		return 0
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}

// Float parses the leading decimal of raw the same lenient way as Int.
func Float(raw string) float64 {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := end + 1
		if exp < len(s) && (s[exp] == '+' || s[exp] == '-') {
			exp++
		}
		start := exp
		for exp < len(s) && isDigit(s[exp]) {
			exp++
		}
		if exp > start {
			end = exp
		}
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}

// OptionalInt parses an optional reference such as a target product id.
// Blank or non-numeric input yields nil.
func OptionalInt(raw string) *int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if v := Int(s); v != 0 || strings.HasPrefix(strings.TrimLeft(s, "+-"), "0") {
		return &v
	}
	return nil
}

// Average parses every value with Int and returns their mean; blanks count
// as 0. An empty list averages to 0.
func Average(raw []string) float64 {
	if len(raw) == 0 {
		return 0
	}
	sum := 0
	for _, r := range raw {
		sum += Int(r)
	}
	return float64(sum) / float64(len(raw))
}
