package entity

import (
	"time"

	"github.com/moizuddin-works/Document-OCR/constants"
)

// Fields is the structured record extracted from a document scan. Every
// value is captured verbatim from the source text; dates are not normalized
// across formats.
type Fields struct {
	DocType     string `json:"doc_type"`
	DocNumber   string `json:"doc_number"`
	FullName    string `json:"full_name"`
	DateOfBirth string `json:"date_of_birth"`
	IssueDate   string `json:"issue_date"`
	ExpiryDate  string `json:"expiry_date"`
}

// Empty reports whether no field was extracted.
func (f Fields) Empty() bool {
	return f == Fields{}
}

// Document represents a stored document for data transfer between layers.
type Document struct {
	ID                 int64                        `json:"id"`
	RawText            string                       `json:"raw_text"`
	Fields             Fields                       `json:"fields"`
	DateAdded          time.Time                    `json:"date_added"`
	LastModified       time.Time                    `json:"last_modified"`
	VerificationStatus constants.VerificationStatus `json:"verification_status"`
}

// AuditEntry is one immutable row of the mutation log. Entries outlive the
// document they reference.
type AuditEntry struct {
	ID         int64                 `json:"id"`
	DocumentID int64                 `json:"document_id"`
	Action     constants.AuditAction `json:"action"`
	Timestamp  time.Time             `json:"timestamp"`
	Actor      string                `json:"actor"`
	Details    string                `json:"details"`
}

// Matched-field tags reported by search results.
const (
	MatchNumber = "Number"
	MatchName   = "Name"
)

// SearchMatch pairs a document with which indexed field matched the term.
type SearchMatch struct {
	Document     Document `json:"document"`
	MatchedField string   `json:"matched_field"`
}
