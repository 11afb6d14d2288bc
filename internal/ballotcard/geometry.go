// Package ballotcard defines the physical geometry presets (paper size,
// canvas dimensions, oval and timing-mark sizes) a scanned ballot page is
// measured against, and loads the reference oval template used for scoring.
package ballotcard

import (
	"fmt"
	"image"
	"math"

	"ballotscan/internal/imaging"
	"ballotscan/pkg/geometry"
)

// PaperSize identifies a supported ballot paper size.
type PaperSize int

const (
	Letter PaperSize = iota
	Legal
)

func (p PaperSize) String() string {
	switch p {
	case Letter:
		return "letter (8.5x11)"
	case Legal:
		return "legal (8.5x14)"
	default:
		return "unknown"
	}
}

// Geometry is the full set of measurements a scanned ballot page is
// expected to conform to, at a fixed scan resolution.
type Geometry struct {
	PaperSize       PaperSize
	PixelsPerInch   int
	CanvasSize      geometry.Size[int]
	ContentArea     geometry.RectInt
	OvalSize        geometry.Size[int]
	TimingMarkSize  geometry.Size[float64]
	GridSize        geometry.Size[int]
	FrontUsableArea geometry.RectInt
	BackUsableArea  geometry.RectInt
}

// letterGeometry matches the reference pipeline's 8.5x11 scan constants at
// 200 DPI: a 34-column by 41-row timing mark grid.
func letterGeometry() Geometry {
	canvas := geometry.Size[int]{Width: 1696, Height: 2200}
	return Geometry{
		PaperSize:       Letter,
		PixelsPerInch:   200,
		CanvasSize:      canvas,
		ContentArea:     geometry.RectInt{X: 0, Y: 0, Width: canvas.Width, Height: canvas.Height},
		OvalSize:        geometry.Size[int]{Width: 40, Height: 26},
		TimingMarkSize:  geometry.Size[float64]{Width: 37.5, Height: 12.5},
		GridSize:        geometry.Size[int]{Width: 34, Height: 41},
		FrontUsableArea: geometry.RectInt{X: 0, Y: 0, Width: canvas.Width, Height: canvas.Height},
		BackUsableArea:  geometry.RectInt{X: 0, Y: 0, Width: canvas.Width, Height: canvas.Height},
	}
}

// legalGeometry matches the reference pipeline's 8.5x14 scan constants: the
// same column count and per-unit sizes as Letter, with a taller grid.
func legalGeometry() Geometry {
	canvas := geometry.Size[int]{Width: 1696, Height: 2800}
	return Geometry{
		PaperSize:       Legal,
		PixelsPerInch:   200,
		CanvasSize:      canvas,
		ContentArea:     geometry.RectInt{X: 0, Y: 0, Width: canvas.Width, Height: canvas.Height},
		OvalSize:        geometry.Size[int]{Width: 40, Height: 26},
		TimingMarkSize:  geometry.Size[float64]{Width: 37.5, Height: 12.5},
		GridSize:        geometry.Size[int]{Width: 34, Height: 53},
		FrontUsableArea: geometry.RectInt{X: 0, Y: 0, Width: canvas.Width, Height: canvas.Height},
		BackUsableArea:  geometry.RectInt{X: 0, Y: 0, Width: canvas.Width, Height: canvas.Height},
	}
}

// aspectTolerance is how far a scanned page's aspect ratio may stray from
// a known preset's and still be matched to it.
const aspectTolerance = 0.01

// GeometryForDimensions picks the ballot card geometry whose aspect ratio
// matches the given pixel dimensions to within aspectTolerance (an absolute
// difference of 0.01 in width/height).
func GeometryForDimensions(width, height int) (Geometry, error) {
	aspect := float64(width) / float64(height)
	for _, g := range []Geometry{letterGeometry(), legalGeometry()} {
		want := float64(g.CanvasSize.Width) / float64(g.CanvasSize.Height)
		if math.Abs(aspect-want) <= aspectTolerance {
			return g, nil
		}
	}
	return Geometry{}, fmt.Errorf("ballotcard: no geometry preset matches dimensions %dx%d (aspect %.4f)", width, height, aspect)
}

// GeometryFor returns the fixed geometry preset for a paper size.
func GeometryFor(size PaperSize) Geometry {
	switch size {
	case Legal:
		return legalGeometry()
	default:
		return letterGeometry()
	}
}

// LoadOvalTemplate loads a reference oval scan from path, binarizes it with
// Otsu's method, and bleeds the black (marked) region by one pixel so that
// small registration errors during scoring don't undercount a filled oval.
func LoadOvalTemplate(path string) (*image.Gray, error) {
	gray, err := imaging.LoadGray(path)
	if err != nil {
		return nil, fmt.Errorf("ballotcard: load oval template: %w", err)
	}
	mat := imaging.GrayToMat(gray)
	defer mat.Close()
	thresholded, _ := imaging.OtsuThreshold(mat)
	defer thresholded.Close()
	binarized := imaging.MatToGray(thresholded)
	return imaging.Bleed(binarized, imaging.Black), nil
}
