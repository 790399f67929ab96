package utils

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultMaxStringLength is the default maximum length for truncated strings.
	DefaultMaxStringLength = 500
)

// TruncateString shortens s to at most maxLen characters, appending a suffix
// that records the original total length so callers know data was omitted.
// If maxLen is zero or negative, [DefaultMaxStringLength] is used instead.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxStringLength
	}
	if len(s) <= maxLen {
		return s
	}
	return fmt.Sprintf("%s... (truncated, total: %d chars)", s[:maxLen], len(s))
}

// SafeFilename converts free text into a token usable inside a file name:
// lowercase, alphanumerics kept, everything else collapsed to single
// underscores. The result is capped at 50 characters.
func SafeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "_")
	if len(out) > 50 {
		out = strings.Trim(out[:50], "_")
	}
	if out == "" {
		return "tema"
	}
	return out
}
