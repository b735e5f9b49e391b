package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moizuddin-works/Document-OCR/constants"
	"github.com/moizuddin-works/Document-OCR/internal/common"
	"github.com/moizuddin-works/Document-OCR/internal/entity"
	"github.com/moizuddin-works/Document-OCR/internal/metrics"
)

// timeFormat is the sortable ISO-8601 layout stored in both tables. The
// fractional part is fixed-width so string ordering equals time ordering.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// MutateOption adjusts a single mutating call.
type MutateOption func(*mutateOptions)

type mutateOptions struct {
	actor string
}

// WithActor records the given identity in the audit entry instead of the
// fixed system identity.
func WithActor(actor string) MutateOption {
	return func(o *mutateOptions) {
		if actor != "" {
			o.actor = actor
		}
	}
}

func applyOptions(opts []MutateOption) mutateOptions {
	o := mutateOptions{actor: constants.DefaultActor}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DocumentRepository is the audit-logged document store. Every successful
// mutation of exactly one document writes exactly one audit entry in the
// same transaction; audit entries are never updated or deleted.
type DocumentRepository interface {
	Create(ctx context.Context, rawText string, fields entity.Fields, opts ...MutateOption) (int64, error)
	UpdateText(ctx context.Context, id int64, rawText string, opts ...MutateOption) error
	Delete(ctx context.Context, id int64, opts ...MutateOption) error
	SetVerificationStatus(ctx context.Context, id int64, status constants.VerificationStatus, opts ...MutateOption) error
	Get(ctx context.Context, id int64) (*entity.Document, error)
	List(ctx context.Context) ([]*entity.Document, error)
	Search(ctx context.Context, term string) ([]entity.SearchMatch, error)
	AuditLog(ctx context.Context) ([]*entity.AuditEntry, error)
}

type documentRepository struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewDocumentRepository(db *sql.DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{db: db, logger: logger, now: time.Now}
}

const documentColumns = `id, raw_text, doc_type, doc_number, full_name, date_of_birth, issue_date, expiry_date, date_added, last_modified, verification_status`

// Create assigns the next identifier (one greater than the current maximum,
// or 1 if empty), writes the document row and an ADD audit entry atomically,
// and returns the new id.
func (r *documentRepository) Create(ctx context.Context, rawText string, fields entity.Fields, opts ...MutateOption) (int64, error) {
	if strings.TrimSpace(rawText) == "" {
		return 0, fmt.Errorf("%w: raw_text must not be empty", common.ErrValidation)
	}
	o := applyOptions(opts)
	ts := r.now().UTC().Format(timeFormat)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, common.WrapError(err, "begin create")
	}
	defer rollback(tx)

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) + 1 FROM documents`).Scan(&id); err != nil {
		return 0, common.WrapError(err, "next id")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rawText,
		fields.DocType, fields.DocNumber, fields.FullName,
		fields.DateOfBirth, fields.IssueDate, fields.ExpiryDate,
		ts, ts, string(constants.StatusPending),
	)
	if err != nil {
		return 0, common.WrapError(err, "insert document")
	}
	if err := insertAudit(ctx, tx, id, constants.ActionAdd, ts, o.actor, fmt.Sprintf("Document %d added to system", id)); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit create: %w", common.ErrConsistency, err)
	}

	metrics.StoreMutations.WithLabelValues(string(constants.ActionAdd)).Inc()
	r.logger.Info("document created", "id", id, "actor", o.actor)
	return id, nil
}

// UpdateText replaces raw_text and bumps last_modified. Structured fields
// and verification status are untouched. A document can never hold empty
// text, so a blank replacement is rejected before any transaction opens.
func (r *documentRepository) UpdateText(ctx context.Context, id int64, rawText string, opts ...MutateOption) error {
	if strings.TrimSpace(rawText) == "" {
		return fmt.Errorf("%w: raw_text must not be empty", common.ErrValidation)
	}
	o := applyOptions(opts)
	ts := r.now().UTC().Format(timeFormat)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin update")
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, `UPDATE documents SET raw_text = ?, last_modified = ? WHERE id = ?`, rawText, ts, id)
	if err != nil {
		return common.WrapError(err, "update document")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %d", common.ErrNotFound, id)
	}
	if err := insertAudit(ctx, tx, id, constants.ActionEdit, ts, o.actor, fmt.Sprintf("Document %d edited", id)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit update: %w", common.ErrConsistency, err)
	}

	metrics.StoreMutations.WithLabelValues(string(constants.ActionEdit)).Inc()
	r.logger.Info("document updated", "id", id, "actor", o.actor)
	return nil
}

// Delete removes the document row and writes a DELETE audit entry in the
// same transaction. The entry keeps referencing the removed id forever.
func (r *documentRepository) Delete(ctx context.Context, id int64, opts ...MutateOption) error {
	o := applyOptions(opts)
	ts := r.now().UTC().Format(timeFormat)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin delete")
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return common.WrapError(err, "delete document")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %d", common.ErrNotFound, id)
	}
	if err := insertAudit(ctx, tx, id, constants.ActionDelete, ts, o.actor, fmt.Sprintf("Document %d deleted from system", id)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit delete: %w", common.ErrConsistency, err)
	}

	metrics.StoreMutations.WithLabelValues(string(constants.ActionDelete)).Inc()
	r.logger.Info("document deleted", "id", id, "actor", o.actor)
	return nil
}

// SetVerificationStatus records an explicit review decision. The change is
// logged as an EDIT of the row.
func (r *documentRepository) SetVerificationStatus(ctx context.Context, id int64, status constants.VerificationStatus, opts ...MutateOption) error {
	if !status.Valid() {
		return fmt.Errorf("%w: invalid verification status %q", common.ErrValidation, status)
	}
	o := applyOptions(opts)
	ts := r.now().UTC().Format(timeFormat)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin status update")
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx, `UPDATE documents SET verification_status = ?, last_modified = ? WHERE id = ?`,
		string(status), ts, id)
	if err != nil {
		return common.WrapError(err, "update status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: id %d", common.ErrNotFound, id)
	}
	if err := insertAudit(ctx, tx, id, constants.ActionEdit, ts, o.actor, fmt.Sprintf("Document %d status set to %s", id, status)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit status update: %w", common.ErrConsistency, err)
	}

	metrics.StoreMutations.WithLabelValues(string(constants.ActionEdit)).Inc()
	r.logger.Info("document status updated", "id", id, "status", status, "actor", o.actor)
	return nil
}

func (r *documentRepository) Get(ctx context.Context, id int64) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", common.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("failed to load document", "id", id, "error", err)
		return nil, err
	}
	return doc, nil
}

// List returns all documents ordered by ascending id.
func (r *documentRepository) List(ctx context.Context) ([]*entity.Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY id ASC`)
	if err != nil {
		r.logger.Error("failed to list documents", "error", err)
		return nil, err
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Search matches doc_number or full_name by case-sensitive substring,
// ordered by descending date_added. Each match is tagged with the field
// that matched; the number field wins when both do. An empty term returns
// an empty result, not the whole store.
func (r *documentRepository) Search(ctx context.Context, term string) ([]entity.SearchMatch, error) {
	matches := []entity.SearchMatch{}
	if term == "" {
		return matches, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents
		WHERE instr(doc_number, ?) > 0 OR instr(full_name, ?) > 0
		ORDER BY date_added DESC`, term, term)
	if err != nil {
		r.logger.Error("search failed", "term", term, "error", err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		tag := entity.MatchName
		if strings.Contains(doc.Fields.DocNumber, term) {
			tag = entity.MatchNumber
		}
		matches = append(matches, entity.SearchMatch{Document: *doc, MatchedField: tag})
	}
	return matches, rows.Err()
}

// AuditLog returns every audit entry, newest first.
func (r *documentRepository) AuditLog(ctx context.Context) ([]*entity.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, document_id, action, timestamp, actor, details
		FROM audit_log
		ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		r.logger.Error("failed to load audit log", "error", err)
		return nil, err
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		var action, ts string
		if err := rows.Scan(&e.ID, &e.DocumentID, &action, &ts, &e.Actor, &e.Details); err != nil {
			return nil, err
		}
		e.Action = constants.AuditAction(action)
		t, err := time.Parse(timeFormat, ts)
		if err != nil {
			return nil, fmt.Errorf("parse audit timestamp %q: %w", ts, err)
		}
		e.Timestamp = t
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func insertAudit(ctx context.Context, tx *sql.Tx, docID int64, action constants.AuditAction, ts, actor, details string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO audit_log (document_id, action, timestamp, actor, details)
		VALUES (?, ?, ?, ?, ?)`,
		docID, string(action), ts, actor, details)
	return common.WrapError(err, "insert audit entry")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var doc entity.Document
	var added, modified, status string
	err := row.Scan(
		&doc.ID, &doc.RawText,
		&doc.Fields.DocType, &doc.Fields.DocNumber, &doc.Fields.FullName,
		&doc.Fields.DateOfBirth, &doc.Fields.IssueDate, &doc.Fields.ExpiryDate,
		&added, &modified, &status,
	)
	if err != nil {
		return nil, err
	}
	if doc.DateAdded, err = time.Parse(timeFormat, added); err != nil {
		return nil, fmt.Errorf("parse date_added %q: %w", added, err)
	}
	if doc.LastModified, err = time.Parse(timeFormat, modified); err != nil {
		return nil, fmt.Errorf("parse last_modified %q: %w", modified, err)
	}
	doc.VerificationStatus = constants.VerificationStatus(status)
	return &doc, nil
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
