package validators

import "strings"

// SanitizeString trims surrounding whitespace from user-supplied text and
// caps it at maxLen runes. A maxLen of zero or less leaves the length
// unbounded.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) <= maxLen {
		return trimmed
	}
	return string(runes[:maxLen])
}
