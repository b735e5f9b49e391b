// docmgrd serves the document management API: scan ingestion, the
// audit-logged document store, search, and export.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/moizuddin-works/Document-OCR/internal/common"
	"github.com/moizuddin-works/Document-OCR/internal/export"
	"github.com/moizuddin-works/Document-OCR/internal/imaging"
	"github.com/moizuddin-works/Document-OCR/internal/ocr"
	"github.com/moizuddin-works/Document-OCR/internal/pipeline"
	"github.com/moizuddin-works/Document-OCR/internal/repository"
	"github.com/moizuddin-works/Document-OCR/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		Path:        cfg.Database.Path,
		BusyTimeout: cfg.Database.BusyTimeout,
	}, logger)
	if err != nil {
		logger.Error("open document store", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	docs := repository.NewDocumentRepository(db, logger)

	engine := ocr.NewTesseractEngine(ocr.Config{
		Language:    cfg.OCR.Language,
		PSM:         cfg.OCR.PSM,
		DPI:         cfg.OCR.DPI,
		TessdataDir: cfg.OCR.TessdataDir,
	}, logger)

	imagingCfg := imaging.DefaultConfig()
	imagingCfg.MaxEdge = cfg.Imaging.MaxEdge

	orch := pipeline.NewOrchestrator(engine, docs, imagingCfg, logger)
	exporter := export.NewService(docs, logger)
	srv := server.New(docs, orch, exporter, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("stopped")
}
