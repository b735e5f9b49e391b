// docscan ingests a single scanned image into the document store and
// prints the extracted record.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/moizuddin-works/Document-OCR/constants"
	"github.com/moizuddin-works/Document-OCR/internal/common"
	"github.com/moizuddin-works/Document-OCR/internal/imaging"
	"github.com/moizuddin-works/Document-OCR/internal/ocr"
	"github.com/moizuddin-works/Document-OCR/internal/pipeline"
	"github.com/moizuddin-works/Document-OCR/internal/repository"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	dbPath := flag.String("db", "documents.db", "path to the document store")
	actor := flag.String("actor", constants.DefaultActor, "identity recorded in the audit log")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline for the scan")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: docscan [flags] <image-file>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := repository.Open(ctx, repository.Config{Path: *dbPath}, logger)
	if err != nil {
		logger.Error("open document store", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	docs := repository.NewDocumentRepository(db, logger)
	engine := ocr.NewTesseractEngine(ocr.Config{}, logger)
	orch := pipeline.NewOrchestrator(engine, docs, imaging.DefaultConfig(), logger)

	res, err := orch.IngestFile(ctx, path, repository.WithActor(*actor))
	if errors.Is(err, common.ErrNoTextDetected) {
		fmt.Println("No text was detected in the image.")
		return
	}
	if err != nil {
		logger.Error("ingest failed", "path", path, "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(res.Document, "", "  ")
	if err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
	fmt.Printf("confidence: %.2f  duration: %s\n", res.Confidence, res.Duration.Round(time.Millisecond))
}
