// Package layout implements the character-grid text layout shared by every
// backend: word wrapping, fixed-width column alignment and a vertical page
// cursor.
package layout

import (
	"strings"
	"unicode"
)

// Wrap splits text into lines of at most maxWidth runes, breaking at the
// last whitespace that keeps the line within the limit, or hard-splitting
// a word longer than the limit. Line breaks in text are treated as spaces.
// The empty string wraps to a single empty line. maxWidth below 1 is
// treated as 1.
func Wrap(text string, maxWidth int) []string {
	if maxWidth < 1 {
		maxWidth = 1
	}

	rest := []rune(strings.TrimLeftFunc(normalizeSpace(text), unicode.IsSpace))
	var lines []string
	for len(rest) > maxWidth {
		cut := lastSpace(rest, maxWidth)
		next := cut
		if cut <= 0 {
			cut, next = maxWidth, maxWidth
		}
		lines = append(lines, strings.TrimRightFunc(string(rest[:cut]), unicode.IsSpace))
		rest = []rune(strings.TrimLeftFunc(string(rest[next:]), unicode.IsSpace))
	}
	return append(lines, strings.TrimRightFunc(string(rest), unicode.IsSpace))
}

// lastSpace returns the index of the last whitespace rune in r[0:limit+1],
// or -1 when there is none.
func lastSpace(r []rune, limit int) int {
	if limit >= len(r) {
		limit = len(r) - 1
	}
	for i := limit; i >= 0; i-- {
		if unicode.IsSpace(r[i]) {
			return i
		}
	}
	return -1
}

func normalizeSpace(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		return r
	}, text)
}
