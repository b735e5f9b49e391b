// Package imaging turns arbitrary scanned images into binarized images
// optimized for OCR. The normalization chain is: bounded downscale,
// grayscale conversion, edge-preserving denoise, local contrast
// enhancement, and local adaptive binarization. Deskewing and rotation
// correction are out of scope.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/moizuddin-works/Document-OCR/internal/common"
)

// Config holds the tuning knobs for the normalization chain. The defaults
// are calibrated for handheld phone scans of identity documents.
type Config struct {
	// MaxEdge caps the longer edge of the working image. Larger sources are
	// downscaled with preserved aspect ratio before any filtering.
	MaxEdge int

	// Bilateral filter parameters for edge-preserving denoise.
	BilateralDiameter   int
	BilateralSigmaColor float64
	BilateralSigmaSpace float64

	// CLAHE parameters for local contrast enhancement.
	CLAHEClipLimit float64
	CLAHETiles     int

	// Adaptive threshold parameters. Block must be odd.
	ThresholdBlock int
	ThresholdC     float64
}

// DefaultConfig returns the normalization parameters used in production.
func DefaultConfig() Config {
	return Config{
		MaxEdge:             1800,
		BilateralDiameter:   9,
		BilateralSigmaColor: 75,
		BilateralSigmaSpace: 75,
		CLAHEClipLimit:      2.0,
		CLAHETiles:          8,
		ThresholdBlock:      21,
		ThresholdC:          10,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxEdge <= 0 {
		c.MaxEdge = def.MaxEdge
	}
	if c.BilateralDiameter <= 0 {
		c.BilateralDiameter = def.BilateralDiameter
	}
	if c.BilateralSigmaColor <= 0 {
		c.BilateralSigmaColor = def.BilateralSigmaColor
	}
	if c.BilateralSigmaSpace <= 0 {
		c.BilateralSigmaSpace = def.BilateralSigmaSpace
	}
	if c.CLAHEClipLimit <= 0 {
		c.CLAHEClipLimit = def.CLAHEClipLimit
	}
	if c.CLAHETiles <= 0 {
		c.CLAHETiles = def.CLAHETiles
	}
	if c.ThresholdBlock <= 0 {
		c.ThresholdBlock = def.ThresholdBlock
	}
	if c.ThresholdC == 0 {
		c.ThresholdC = def.ThresholdC
	}
	return c
}

// Decode reads and decodes an image from r. PNG, JPEG, BMP and TIFF are
// registered. A decode failure is terminal for ingestion.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrImageLoad, err)
	}
	return img, nil
}

// Normalize runs the full preprocessing chain and returns a strictly
// black/white single-channel image whose longer edge is at most
// cfg.MaxEdge. It is a pure function of its input; a failure in any stage
// wraps the cause and nothing partial is returned.
func Normalize(src image.Image, cfg Config) (*image.Gray, error) {
	cfg = cfg.withDefaults()
	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", common.ErrPreprocessing)
	}

	gray := toGray(downscale(src, cfg.MaxEdge))

	denoised, err := bilateral(gray, cfg.BilateralDiameter, cfg.BilateralSigmaColor, cfg.BilateralSigmaSpace)
	if err != nil {
		return nil, fmt.Errorf("%w: denoise: %w", common.ErrPreprocessing, err)
	}

	enhanced, err := clahe(denoised, cfg.CLAHEClipLimit, cfg.CLAHETiles)
	if err != nil {
		return nil, fmt.Errorf("%w: contrast: %w", common.ErrPreprocessing, err)
	}

	binary, err := adaptiveThreshold(enhanced, cfg.ThresholdBlock, cfg.ThresholdC)
	if err != nil {
		return nil, fmt.Errorf("%w: binarize: %w", common.ErrPreprocessing, err)
	}
	return binary, nil
}

// downscale shrinks src so its longer edge is at most maxEdge, preserving
// aspect ratio. Images already within the cap pass through untouched;
// upscaling is never performed.
func downscale(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	longer := w
	if h > longer {
		longer = h
	}
	if longer <= maxEdge {
		return src
	}
	scale := float64(maxEdge) / float64(longer)
	dw := int(math.Round(float64(w) * scale))
	dh := int(math.Round(float64(h) * scale))
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// toGray converts src to a zero-origin single-channel intensity image.
func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetGray(x-b.Min.X, y-b.Min.Y, color.GrayModel.Convert(src.At(x, y)).(color.Gray))
		}
	}
	return dst
}
