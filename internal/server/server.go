// Package server exposes the UI-host boundary as a JSON HTTP API. The core
// returns plain data records and typed errors; rendering, dialogs and
// input handling stay with the host.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/moizuddin-works/Document-OCR/internal/export"
	"github.com/moizuddin-works/Document-OCR/internal/pipeline"
	"github.com/moizuddin-works/Document-OCR/internal/repository"
)

type Server struct {
	docs         repository.DocumentRepository
	orchestrator *pipeline.Orchestrator
	exporter     *export.Service
	logger       *slog.Logger
	docSchema    map[string]any
}

func New(docs repository.DocumentRepository, orch *pipeline.Orchestrator, exporter *export.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		docs:         docs,
		orchestrator: orch,
		exporter:     exporter,
		logger:       logger,
		docSchema:    BuildDocumentJSONSchema(),
	}
}

// Router wires up the HTTP surface consumed by the UI host.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ingest", s.handleIngest)
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleCreateDocument)
			r.Get("/{id}", s.handleGetDocument)
			r.Put("/{id}/text", s.handleUpdateText)
			r.Patch("/{id}/status", s.handleSetStatus)
			r.Delete("/{id}", s.handleDeleteDocument)
		})
		r.Get("/search", s.handleSearch)
		r.Get("/audit-log", s.handleAuditLog)
		r.Get("/export/xlsx", s.handleExportXLSX)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
