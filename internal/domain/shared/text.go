package shared

import (
	"strings"
	"unicode/utf8"
)

// TruncateText cuts s to at most n characters. Invalid UTF-8 is replaced
// first so the result is always safe to store in a text column.
func TruncateText(s string, n int) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
