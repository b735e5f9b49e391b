// Package ocr defines the boundary to the external OCR engine. The engine
// is a black box: binarized image in, raw text out. Everything past that
// contract (model internals, layout analysis) is the engine's business.
package ocr

import "context"

// Config carries the fixed recognition profile passed to the engine.
type Config struct {
	Language    string // trained language profile, default "eng"
	PSM         int    // page segmentation mode, default 6 (uniform text block)
	DPI         int    // resolution hint for scaling heuristics, default 300
	TessdataDir string // override for the trained-data directory
}

func (c Config) withDefaults() Config {
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.PSM <= 0 {
		c.PSM = 6
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	return c
}

// Engine is the OCR provider contract: one encoded image in, raw text out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, image []byte) (string, error)
}
