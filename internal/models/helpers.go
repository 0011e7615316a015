package models

import "strings"

// Truncate shortens s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// OneLine collapses whitespace runs (including newlines) into single spaces.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
