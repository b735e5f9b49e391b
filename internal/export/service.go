// Package export produces XLSX workbooks of the document store for
// offline review.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/moizuddin-works/Document-OCR/internal/repository"
)

// Service is a tiny façade over the store that produces XLSX bytes.
type Service struct {
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewService(docs repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, logger: logger}
}

const (
	documentsSheet = "Documents"
	auditSheet     = "Audit Log"
)

// ExportXLSX returns a workbook with one sheet of documents and one sheet
// of the audit log.
func (s *Service) ExportXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	docs, err := s.docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	entries, err := s.docs.AuditLog(ctx)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", documentsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(auditSheet); err != nil {
		return nil, err
	}

	docHeaders := []string{
		"ID", "Document Type", "Document Number", "Full Name",
		"Date of Birth", "Issue Date", "Expiry Date",
		"Date Added", "Last Modified", "Status",
	}
	if err := writeRow(f, documentsSheet, 1, toCells(docHeaders)); err != nil {
		return nil, err
	}
	for i, d := range docs {
		row := []any{
			d.ID, d.Fields.DocType, d.Fields.DocNumber, d.Fields.FullName,
			d.Fields.DateOfBirth, d.Fields.IssueDate, d.Fields.ExpiryDate,
			d.DateAdded.Format(time.RFC3339), d.LastModified.Format(time.RFC3339),
			string(d.VerificationStatus),
		}
		if err := writeRow(f, documentsSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	auditHeaders := []string{"Timestamp", "Document ID", "Action", "Actor", "Details"}
	if err := writeRow(f, auditSheet, 1, toCells(auditHeaders)); err != nil {
		return nil, err
	}
	for i, e := range entries {
		row := []any{
			e.Timestamp.Format(time.RFC3339), e.DocumentID, string(e.Action), e.Actor, e.Details,
		}
		if err := writeRow(f, auditSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export completed",
		"documents", len(docs),
		"audit_entries", len(entries),
		"bytes", buf.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toCells(headers []string) []any {
	out := make([]any, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}
