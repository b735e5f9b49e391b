package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/moizuddin-works/Document-OCR/constants"
	"github.com/moizuddin-works/Document-OCR/internal/common"
	"github.com/moizuddin-works/Document-OCR/internal/entity"
	"github.com/moizuddin-works/Document-OCR/internal/repository"
)

// maxUploadBytes caps ingest payloads. Typical phone scans are well under this.
const maxUploadBytes = 32 << 20

const actorHeader = "X-Actor"

type errorResponse struct {
	Error string `json:"error"`
}

type ingestOutcome struct {
	Outcome string `json:"outcome"`
	JobID   string `json:"job_id"`
}

// handleIngest accepts a multipart upload (field "image") or a JSON body
// {"path": "..."} pointing at a local scan, runs the full pipeline, and
// returns the stored document. "No text detected" is reported as an
// informational outcome, not an error.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	actor := r.Header.Get(actorHeader)
	var opts []repository.MutateOption
	if actor != "" {
		opts = append(opts, repository.WithActor(actor))
	}

	imageData, err := readIngestPayload(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.orchestrator.Ingest(r.Context(), imageData, opts...)
	if errors.Is(err, common.ErrNoTextDetected) {
		writeJSON(w, http.StatusOK, ingestOutcome{Outcome: "no_text_detected", JobID: res.JobID.String()})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func readIngestPayload(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, common.NewAppError("BAD_UPLOAD", "parsing multipart form", common.ErrValidation)
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, common.NewAppError("BAD_UPLOAD", `multipart field "image" is required`, common.ErrValidation)
		}
		defer file.Close()
		// Read one byte past the cap so truncation is detectable.
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		if err != nil {
			return nil, common.NewAppError("BAD_UPLOAD", "reading upload", common.ErrValidation)
		}
		if len(data) > maxUploadBytes {
			return nil, common.NewAppError("PAYLOAD_TOO_LARGE", "image exceeds the upload size limit", common.ErrValidation)
		}
		return data, nil
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil || req.Path == "" {
		return nil, common.NewAppError("BAD_REQUEST", `body must be multipart or {"path": "..."}`, common.ErrValidation)
	}
	data, err := readLocalFile(req.Path)
	if err != nil {
		return nil, err
	}
	return data, nil
}

type createDocumentRequest struct {
	RawText string `json:"raw_text"`
	Fields  struct {
		DocType     string `json:"doc_type"`
		DocNumber   string `json:"doc_number"`
		FullName    string `json:"full_name"`
		DateOfBirth string `json:"date_of_birth"`
		IssueDate   string `json:"issue_date"`
		ExpiryDate  string `json:"expiry_date"`
	} `json:"fields"`
}

// handleCreateDocument stores a caller-supplied document without running
// the scan pipeline. The payload is validated against the document schema
// before it reaches the store.
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		s.writeError(w, r, common.NewAppError("BAD_REQUEST", "reading body", common.ErrValidation))
		return
	}
	if err := ValidateJSONAgainstSchema(s.docSchema, body); err != nil {
		s.writeError(w, r, common.NewAppError("BAD_REQUEST", err.Error(), common.ErrValidation))
		return
	}
	var req createDocumentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, common.NewAppError("BAD_REQUEST", "decoding body", common.ErrValidation))
		return
	}

	fields := fieldsFromRequest(req)
	id, err := s.docs.Create(r.Context(), req.RawText, fields, actorOpts(r)...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.docs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.docs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateText(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		RawText string `json:"raw_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.NewAppError("BAD_REQUEST", "decoding body", common.ErrValidation))
		return
	}
	if err := s.docs.UpdateText(r.Context(), id, req.RawText, actorOpts(r)...); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.docs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, common.NewAppError("BAD_REQUEST", "decoding body", common.ErrValidation))
		return
	}
	status := constants.VerificationStatus(req.Status)
	if err := s.docs.SetVerificationStatus(r.Context(), id, status, actorOpts(r)...); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.docs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := docID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.docs.Delete(r.Context(), id, actorOpts(r)...); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	matches, err := s.docs.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := s.docs.AuditLog(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	data, err := s.exporter.ExportXLSX(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func docID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewAppError("BAD_REQUEST", "id must be a positive integer", common.ErrValidation)
	}
	return id, nil
}

func actorOpts(r *http.Request) []repository.MutateOption {
	if actor := r.Header.Get(actorHeader); actor != "" {
		return []repository.MutateOption{repository.WithActor(actor)}
	}
	return nil
}

func fieldsFromRequest(req createDocumentRequest) entity.Fields {
	return entity.Fields{
		DocType:     req.Fields.DocType,
		DocNumber:   req.Fields.DocNumber,
		FullName:    req.Fields.FullName,
		DateOfBirth: req.Fields.DateOfBirth,
		IssueDate:   req.Fields.IssueDate,
		ExpiryDate:  req.Fields.ExpiryDate,
	}
}

func readLocalFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrImageLoad, err)
	}
	return data, nil
}

// writeError maps the error taxonomy onto HTTP statuses: validation and
// unreadable images are the caller's fault, unknown ids are 404, anything
// else is internal.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrImageLoad):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrPreprocessing), errors.Is(err, common.ErrOCR):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
