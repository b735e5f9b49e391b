// Package extract structures cleaned OCR text into typed document fields
// via label-adjacency pattern matching. Matching is case-insensitive (an
// upper-cased copy of the text is searched) and deliberately permissive:
// it tolerates OCR noise between a label and its value at the cost of the
// occasional false positive on stray label-like tokens.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/moizuddin-works/Document-OCR/constants"
	"github.com/moizuddin-works/Document-OCR/internal/entity"
)

// datePattern matches a date-shaped token. Values are captured verbatim;
// there is no calendar validation and no normalization across formats.
const datePattern = `(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`

// rules is the ordered list of (label vocabulary, value pattern) searches.
// Each rule is independent and the first match wins for its field; the
// order below is fixed so tie-breaks stay reproducible.
var rules = []struct {
	field   string
	pattern *regexp.Regexp
	assign  func(*entity.Fields, string)
}{
	{
		field:   "doc_number",
		pattern: regexp.MustCompile(`(?:ID|DL|NO|NUMBER)[.:# ]*([A-Z0-9-]{6,})`),
		assign:  func(f *entity.Fields, v string) { f.DocNumber = v },
	},
	{
		field:   "full_name",
		pattern: regexp.MustCompile(`(?:NAME)[.:# ]*([A-Z ]+)`),
		assign:  func(f *entity.Fields, v string) { f.FullName = titleCaser.String(strings.ToLower(v)) },
	},
	{
		field:   "date_of_birth",
		pattern: regexp.MustCompile(`(?:DOB|BIRTH)[.:# ]*` + datePattern),
		assign:  func(f *entity.Fields, v string) { f.DateOfBirth = v },
	},
	{
		field:   "issue_date",
		pattern: regexp.MustCompile(`(?:ISS|ISSUED)[.:# ]*` + datePattern),
		assign:  func(f *entity.Fields, v string) { f.IssueDate = v },
	},
	{
		field:   "expiry_date",
		pattern: regexp.MustCompile(`(?:EXP|EXPIRES)[.:# ]*` + datePattern),
		assign:  func(f *entity.Fields, v string) { f.ExpiryDate = v },
	},
}

var titleCaser = cases.Title(language.English)

// Extract pulls the structured record out of cleaned text. It never fails:
// fields without a recognizable label stay empty strings. The document type
// vocabulary is matched in priority order; the first literal occurrence wins.
func Extract(text string) entity.Fields {
	var fields entity.Fields
	upper := strings.ToUpper(text)

	for _, dt := range constants.DocTypes {
		if strings.Contains(upper, dt) {
			fields.DocType = dt
			break
		}
	}

	for _, r := range rules {
		if m := r.pattern.FindStringSubmatch(upper); m != nil {
			r.assign(&fields, strings.TrimSpace(m[1]))
		}
	}
	return fields
}
