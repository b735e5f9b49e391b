// Package pipeline sequences the ingestion chain: image normalization,
// OCR, text cleanup, field extraction, and persistence. Data flows
// strictly left to right; any stage failure aborts before the store is
// touched, so no partial or empty documents are ever persisted.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moizuddin-works/Document-OCR/constants"
	"github.com/moizuddin-works/Document-OCR/internal/common"
	"github.com/moizuddin-works/Document-OCR/internal/entity"
	"github.com/moizuddin-works/Document-OCR/internal/extract"
	"github.com/moizuddin-works/Document-OCR/internal/imaging"
	"github.com/moizuddin-works/Document-OCR/internal/metrics"
	"github.com/moizuddin-works/Document-OCR/internal/ocr"
	"github.com/moizuddin-works/Document-OCR/internal/repository"
	"github.com/moizuddin-works/Document-OCR/internal/textclean"
)

// Result summarizes one successful ingestion.
type Result struct {
	JobID      uuid.UUID        `json:"job_id"`
	Document   *entity.Document `json:"document"`
	Confidence float32          `json:"confidence"`
	Duration   time.Duration    `json:"duration"`
}

// Orchestrator owns the ingestion chain. The UI host calls Ingest (or
// IngestFile) and the store's query operations; it never touches the
// intermediate stages directly.
type Orchestrator struct {
	logger  *slog.Logger
	imaging imaging.Config
	engine  ocr.Engine
	docs    repository.DocumentRepository
}

func NewOrchestrator(engine ocr.Engine, docs repository.DocumentRepository, cfg imaging.Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{logger: logger, imaging: cfg, engine: engine, docs: docs}
}

// IngestFile reads the image at path and runs the full chain on it. Files
// with an extension outside the allowed scan formats are rejected before
// any bytes are read.
func (o *Orchestrator) IngestFile(ctx context.Context, path string, opts ...repository.MutateOption) (Result, error) {
	if ext := filepath.Ext(path); !constants.IsAllowedExt(ext) {
		metrics.IngestTotal.WithLabelValues("image_load").Inc()
		return Result{}, fmt.Errorf("load: %w: unsupported file extension %q", common.ErrImageLoad, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		metrics.IngestTotal.WithLabelValues("image_load").Inc()
		return Result{}, fmt.Errorf("load: %w: %w", common.ErrImageLoad, err)
	}
	return o.Ingest(ctx, data, opts...)
}

// Ingest runs Normalizer -> OCR -> Cleaner -> Extractor -> Store.Create on
// one encoded image. Errors are tagged with the failing stage. Cleaned-empty
// OCR output is the distinct informational outcome common.ErrNoTextDetected;
// nothing is persisted for it.
func (o *Orchestrator) Ingest(ctx context.Context, imageData []byte, opts ...repository.MutateOption) (Result, error) {
	jobID := uuid.New()
	start := time.Now()
	log := o.logger.With("job_id", jobID)
	log.Info("ingest start", "image_bytes", len(imageData))

	img, err := imaging.Decode(bytes.NewReader(imageData))
	if err != nil {
		log.Error("ingest.load.failed", "error", err)
		metrics.IngestTotal.WithLabelValues("image_load").Inc()
		return Result{JobID: jobID}, fmt.Errorf("load: %w", err)
	}

	stageStart := time.Now()
	binary, err := imaging.Normalize(img, o.imaging)
	if err != nil {
		log.Error("ingest.preprocess.failed", "error", err)
		metrics.IngestTotal.WithLabelValues("preprocess").Inc()
		return Result{JobID: jobID}, fmt.Errorf("preprocess: %w", err)
	}
	metrics.StageDuration.WithLabelValues("preprocess").Observe(time.Since(stageStart).Seconds())

	var buf bytes.Buffer
	if err := png.Encode(&buf, binary); err != nil {
		log.Error("ingest.preprocess.failed", "error", err)
		metrics.IngestTotal.WithLabelValues("preprocess").Inc()
		return Result{JobID: jobID}, fmt.Errorf("preprocess: %w: encode binarized image: %w", common.ErrPreprocessing, err)
	}

	stageStart = time.Now()
	rawText, err := o.engine.Recognize(ctx, buf.Bytes())
	if err != nil {
		log.Error("ingest.ocr.failed", "engine", o.engine.Name(), "error", err)
		metrics.IngestTotal.WithLabelValues("ocr").Inc()
		return Result{JobID: jobID}, fmt.Errorf("ocr: %w: %w", common.ErrOCR, err)
	}
	metrics.StageDuration.WithLabelValues("ocr").Observe(time.Since(stageStart).Seconds())

	cleaned := textclean.Clean(rawText)
	if strings.TrimSpace(cleaned) == "" {
		log.Info("ingest.no_text", "raw_bytes", len(rawText))
		metrics.IngestTotal.WithLabelValues("no_text").Inc()
		return Result{JobID: jobID}, common.ErrNoTextDetected
	}

	fields := extract.Extract(cleaned)
	if fields.Empty() {
		log.Warn("no structured fields extracted", "text_bytes", len(cleaned))
	}

	id, err := o.docs.Create(ctx, cleaned, fields, opts...)
	if err != nil {
		log.Error("ingest.store.failed", "error", err)
		metrics.IngestTotal.WithLabelValues("store").Inc()
		return Result{JobID: jobID}, fmt.Errorf("store: %w", err)
	}
	doc, err := o.docs.Get(ctx, id)
	if err != nil {
		return Result{JobID: jobID}, fmt.Errorf("store: %w", err)
	}

	res := Result{
		JobID:      jobID,
		Document:   doc,
		Confidence: ocr.HeuristicConfidence(cleaned),
		Duration:   time.Since(start),
	}
	metrics.IngestTotal.WithLabelValues("ok").Inc()
	log.Info("ingest ok",
		"document_id", doc.ID,
		"doc_type", fields.DocType,
		"confidence", res.Confidence,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
