package ocr

import (
	"regexp"
	"strings"
)

var reDateToken = regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`)

// labelTokens are the markers a readable identity-document scan usually
// carries. Seeing them is weak evidence the OCR pass produced usable text.
var labelTokens = []string{"NAME", "DOB", "BIRTH", "ISS", "EXP", "ID", "DL", "NO", "NUMBER"}

// HeuristicConfidence scores extracted text 0..1 based on decoded-text
// characteristics. Informational only: it never gates persistence.
func HeuristicConfidence(text string) float32 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	upper := strings.ToUpper(text)
	score := float32(0.2) // base
	if reDateToken.MatchString(upper) {
		score += 0.2
	}
	for _, tok := range labelTokens {
		if strings.Contains(upper, tok) {
			score += 0.15
			break
		}
	}
	if len(text) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
