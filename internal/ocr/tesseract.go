package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine using the gosseract client as the
// default OCR provider.
type TesseractEngine struct {
	cfg           Config
	logger        *slog.Logger
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine with the
// given recognition profile.
func NewTesseractEngine(cfg Config, logger *slog.Logger) *TesseractEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &TesseractEngine{
		cfg:           cfg.withDefaults(),
		logger:        logger,
		clientFactory: gosseract.NewClient,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single encoded image. A fresh client is used
// per call; clients are not safe for reuse across inputs.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	start := time.Now()
	c := e.clientFactory()
	defer func() {
		if cerr := c.Close(); cerr != nil {
			e.logger.Error("close tesseract client", "error", cerr)
		}
	}()

	if e.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(e.cfg.TessdataDir); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(e.cfg.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PSM)); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetVariable("user_defined_dpi", fmt.Sprint(e.cfg.DPI)); err != nil {
		return "", fmt.Errorf("set dpi: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		e.logger.Error("tesseract recognition failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("recognize text: %w", err)
	}
	e.logger.Debug("tesseract recognition ok",
		"lang", e.cfg.Language,
		"text_bytes", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
