package constants

// DocTypes holds the document type vocabulary in match priority order.
// The extractor reports the first literal occurrence from this list.
var DocTypes = []string{"PASSPORT", "DRIVER LICENSE", "ID CARD"}

// VerificationStatus is the canonical review state for rows in documents.
type VerificationStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending  VerificationStatus = "PENDING"  // default at creation
	StatusVerified VerificationStatus = "VERIFIED" // reviewed and accepted
	StatusRejected VerificationStatus = "REJECTED" // reviewed and refused
)

// Valid reports whether s is one of the stable verification statuses.
func (s VerificationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// AuditAction is the canonical action for rows in audit_log.
type AuditAction string

const (
	ActionAdd    AuditAction = "ADD"
	ActionEdit   AuditAction = "EDIT"
	ActionDelete AuditAction = "DELETE"
)

// DefaultActor is the identity recorded for mutations with no caller-supplied actor.
const DefaultActor = "SYSTEM"
