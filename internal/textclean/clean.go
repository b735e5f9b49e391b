// Package textclean turns raw OCR output into de-noised, line-oriented
// text. Cleanup is best-effort and never blocks ingestion.
package textclean

import (
	"strings"
	"unicode"
)

// glyphFixes corrects known OCR glyph confusions. Only the most common and
// reliable substitutions are applied: vertical bars and square brackets
// misread for "I", curly braces misread for parentheses.
var glyphFixes = []struct {
	wrong, right string
}{
	{"|", "I"},
	{"[", "I"},
	{"]", "I"},
	{"{", "("},
	{"}", ")"},
}

// minLineLen is the shortest cleaned line kept. Anything at or below this
// is treated as OCR noise.
const minLineLen = 2

// Clean splits raw into lines, trims and collapses whitespace, applies the
// glyph-confusion fixes, and drops noise lines (too short or with no
// alphanumeric character). Surviving lines are rejoined in their original
// order; later field extraction relies on label/value adjacency across
// lines. Clean is idempotent.
func Clean(raw string) string {
	lines := strings.Split(raw, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		line = fixCommonErrors(line)
		if len(line) > minLineLen && hasAlnum(line) {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

func fixCommonErrors(line string) string {
	for _, f := range glyphFixes {
		line = strings.ReplaceAll(line, f.wrong, f.right)
	}
	return line
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
