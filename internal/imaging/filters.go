package imaging

import (
	"errors"
	"image"
	"image/color"
	"math"
)

var (
	grayBlack = color.Gray{Y: 0}
	grayWhite = color.Gray{Y: 255}
)

func grayOf(v float64) color.Gray {
	return color.Gray{Y: uint8(clampInt(int(math.Round(v)), 0, 255))}
}

// bilateral applies an edge-preserving noise filter. Each output pixel is a
// weighted average of its neighborhood where the weight combines spatial
// distance and intensity difference, so flat regions are smoothed while
// character edges stay sharp. Borders are handled by clamping coordinates.
func bilateral(src *image.Gray, diameter int, sigmaColor, sigmaSpace float64) (*image.Gray, error) {
	if diameter < 3 {
		return nil, errors.New("bilateral diameter must be at least 3")
	}
	if sigmaColor <= 0 || sigmaSpace <= 0 {
		return nil, errors.New("bilateral sigmas must be positive")
	}

	radius := diameter / 2
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	// Spatial weights depend only on the offset; precompute the window.
	spatial := make([]float64, diameter*diameter)
	twoSigmaSpaceSq := 2 * sigmaSpace * sigmaSpace
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*diameter+(dx+radius)] = math.Exp(-d2 / twoSigmaSpaceSq)
		}
	}

	// Intensity weights depend only on the absolute difference.
	var rangeW [256]float64
	twoSigmaColorSq := 2 * sigmaColor * sigmaColor
	for d := 0; d < 256; d++ {
		rangeW[d] = math.Exp(-float64(d*d) / twoSigmaColorSq)
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := src.GrayAt(x, y).Y
			var sum, norm float64
			for dy := -radius; dy <= radius; dy++ {
				sy := clampInt(y+dy, 0, h-1)
				for dx := -radius; dx <= radius; dx++ {
					sx := clampInt(x+dx, 0, w-1)
					v := src.GrayAt(sx, sy).Y
					diff := int(v) - int(center)
					if diff < 0 {
						diff = -diff
					}
					wgt := spatial[(dy+radius)*diameter+(dx+radius)] * rangeW[diff]
					sum += wgt * float64(v)
					norm += wgt
				}
			}
			dst.SetGray(x, y, grayOf(sum/norm))
		}
	}
	return dst, nil
}

// clahe performs contrast-limited adaptive histogram equalization over a
// tiles x tiles grid. Each tile gets a clipped, equalized lookup table and
// output pixels are bilinearly interpolated between the four surrounding
// tile mappings to avoid visible tile seams.
func clahe(src *image.Gray, clipLimit float64, tiles int) (*image.Gray, error) {
	if tiles < 1 {
		return nil, errors.New("clahe tile count must be at least 1")
	}
	if clipLimit <= 0 {
		return nil, errors.New("clahe clip limit must be positive")
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	tileW := (w + tiles - 1) / tiles
	tileH := (h + tiles - 1) / tiles
	if tileW < 1 {
		tileW = 1
	}
	if tileH < 1 {
		tileH = 1
	}

	luts := make([][256]uint8, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0 := tx * tileW
			y0 := ty * tileH
			x1 := minInt(x0+tileW, w)
			y1 := minInt(y0+tileH, h)
			if x0 >= w {
				x0 = w - 1
				x1 = w
			}
			if y0 >= h {
				y0 = h - 1
				y1 = h
			}
			luts[ty*tiles+tx] = tileLUT(src, x0, y0, x1, y1, clipLimit)
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		// Position relative to tile centers.
		fy := (float64(y)-float64(tileH)/2 + 0.5) / float64(tileH)
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty0 = clampInt(ty0, 0, tiles-1)
		ty1 := clampInt(ty0+1, 0, tiles-1)
		if fy < 0 {
			wy = 0
		} else if ty0 == tiles-1 {
			wy = 0
			ty1 = ty0
		}
		for x := 0; x < w; x++ {
			fx := (float64(x)-float64(tileW)/2 + 0.5) / float64(tileW)
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx0 = clampInt(tx0, 0, tiles-1)
			tx1 := clampInt(tx0+1, 0, tiles-1)
			if fx < 0 {
				wx = 0
			} else if tx0 == tiles-1 {
				wx = 0
				tx1 = tx0
			}

			v := src.GrayAt(x, y).Y
			top := (1-wx)*float64(luts[ty0*tiles+tx0][v]) + wx*float64(luts[ty0*tiles+tx1][v])
			bot := (1-wx)*float64(luts[ty1*tiles+tx0][v]) + wx*float64(luts[ty1*tiles+tx1][v])
			dst.SetGray(x, y, grayOf((1-wy)*top+wy*bot))
		}
	}
	return dst, nil
}

// tileLUT builds the equalization lookup table for one tile. The histogram
// is clipped at clipLimit times the uniform bin height and the excess is
// redistributed evenly, which bounds noise amplification in flat regions.
func tileLUT(src *image.Gray, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	area := (x1 - x0) * (y1 - y0)
	if area <= 0 {
		var identity [256]uint8
		for i := range identity {
			identity[i] = uint8(i)
		}
		return identity
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[src.GrayAt(x, y).Y]++
		}
	}

	limit := int(clipLimit * float64(area) / 256)
	if limit < 1 {
		limit = 1
	}
	excess := 0
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	// Redistribute the clipped mass evenly across all bins.
	share := excess / 256
	rem := excess % 256
	for i := range hist {
		hist[i] += share
		if i < rem {
			hist[i]++
		}
	}

	var lut [256]uint8
	cum := 0
	scale := 255.0 / float64(area)
	for i := range hist {
		cum += hist[i]
		lut[i] = uint8(clampInt(int(math.Round(float64(cum)*scale)), 0, 255))
	}
	return lut
}

// adaptiveThreshold binarizes using a per-pixel threshold computed as the
// gaussian-weighted mean of the block x block neighborhood minus c. Pixels
// above the local threshold become white (255), the rest black (0).
func adaptiveThreshold(src *image.Gray, block int, c float64) (*image.Gray, error) {
	if block < 3 || block%2 == 0 {
		return nil, errors.New("threshold block size must be odd and at least 3")
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	kernel := gaussianKernel1D(block)
	radius := block / 2

	// Separable gaussian mean: horizontal pass, then vertical.
	horiz := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for k := -radius; k <= radius; k++ {
				sx := clampInt(x+k, 0, w-1)
				sum += kernel[k+radius] * float64(src.GrayAt(sx, y).Y)
			}
			horiz[y*w+x] = sum
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var mean float64
			for k := -radius; k <= radius; k++ {
				sy := clampInt(y+k, 0, h-1)
				mean += kernel[k+radius] * horiz[sy*w+x]
			}
			if float64(src.GrayAt(x, y).Y) > mean-c {
				dst.SetGray(x, y, grayWhite)
			} else {
				dst.SetGray(x, y, grayBlack)
			}
		}
	}
	return dst, nil
}

// gaussianKernel1D returns a normalized 1-D gaussian of the given odd size
// with sigma derived from the size (0.3*((size-1)*0.5 - 1) + 0.8).
func gaussianKernel1D(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	radius := size / 2
	kernel := make([]float64, size)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
