package helpers

import (
	"strings"
	"unicode/utf8"
)

// CollapseWhitespace replaces every run of whitespace with a single space and trims the ends
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most limit characters without splitting a multi-byte rune
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
