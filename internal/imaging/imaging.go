// Package imaging provides grayscale pixel-level utilities shared across
// the ballot scanning pipeline: loading, Otsu thresholding, morphological
// bleed, pixel-difference scoring, and canvas-fitting resize.
package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"gocv.io/x/gocv"
)

// White and Black are the two luma values a binarized ballot scan can take.
const (
	White uint8 = 255
	Black uint8 = 0
)

// LoadGray opens an image file and converts it to 8-bit grayscale.
func LoadGray(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, src, bounds.Min, draw.Src)
	return gray, nil
}

// FitToCanvas resizes img to fit within (width, height) while preserving
// aspect ratio, matching whichever dimension constrains the scale factor.
// Uses Catmull-Rom resampling, the highest-quality kernel x/image/draw
// offers, in place of the reference pipeline's Lanczos3 filter.
func FitToCanvas(img *image.Gray, width, height int) *image.Gray {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 {
		return img
	}

	srcAspect := float64(srcW) / float64(srcH)
	dstAspect := float64(width) / float64(height)

	var newW, newH int
	if srcAspect > dstAspect {
		newW = width
		newH = int(float64(width) / srcAspect)
	} else {
		newH = height
		newW = int(float64(height) * srcAspect)
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewGray(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// OtsuThreshold converts a grayscale Mat to a binary Mat using Otsu's
// method, matching the reference pipeline's global threshold step. It also
// returns the threshold level Otsu's method computed for this page, for
// callers that need the same cutoff for later binarization steps.
func OtsuThreshold(gray gocv.Mat) (gocv.Mat, float32) {
	dst := gocv.NewMat()
	level := gocv.Threshold(gray, &dst, 0, float32(White), gocv.ThresholdBinary+gocv.ThresholdOtsu)
	return dst, level
}

// GrayToMat converts a Go image.Gray into a gocv.Mat without a round trip
// through an encoded format.
func GrayToMat(img *image.Gray) gocv.Mat {
	b := img.Bounds()
	mat := gocv.NewMatWithSize(b.Dy(), b.Dx(), gocv.MatTypeCV8U)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			mat.SetUCharAt(y, x, img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
		}
	}
	return mat
}

// MatToGray converts a single-channel 8-bit gocv.Mat back to a Go image.Gray.
func MatToGray(mat gocv.Mat) *image.Gray {
	rows, cols := mat.Rows(), mat.Cols()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			img.SetGray(x, y, color.Gray{Y: mat.GetUCharAt(y, x)})
		}
	}
	return img
}

// Bleed grows every pixel matching luma one pixel into each of its four
// neighbors, the same one-pass 4-neighborhood dilation the oval template
// uses to make binarized templates forgiving of a pixel of mis-registration.
func Bleed(img *image.Gray, luma uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	draw.Draw(out, b, img, b.Min, draw.Src)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y != luma {
				continue
			}
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < b.Min.X || nx >= b.Max.X || ny < b.Min.Y || ny >= b.Max.Y {
					continue
				}
				out.SetGray(nx, ny, color.Gray{Y: luma})
			}
		}
	}
	return out
}

// Diff computes a per-pixel difference image: base - compare, clamped at
// zero, then inverted so that identical pixels come out white and maximally
// different pixels come out black.
func Diff(base, compare *image.Gray) *image.Gray {
	b := base.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			bv := int(base.GrayAt(x, y).Y)
			cv := int(compare.GrayAt(x, y).Y)
			d := bv - cv
			if d < 0 {
				d = 0
			}
			out.SetGray(x, y, color.Gray{Y: uint8(255 - d)})
		}
	}
	return out
}

// CountPixels returns the number of pixels in img equal to luma.
func CountPixels(img *image.Gray, luma uint8) int {
	b := img.Bounds()
	count := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y == luma {
				count++
			}
		}
	}
	return count
}

// Ratio returns the fraction of pixels in img equal to luma.
func Ratio(img *image.Gray, luma uint8) float64 {
	b := img.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}
	return float64(CountPixels(img, luma)) / float64(total)
}

// Crop returns the sub-image of img within rect, clamped to img's bounds.
func Crop(img *image.Gray, rect image.Rectangle) *image.Gray {
	clamped := rect.Intersect(img.Bounds())
	out := image.NewGray(image.Rect(0, 0, clamped.Dx(), clamped.Dy()))
	draw.Draw(out, out.Bounds(), img, clamped.Min, draw.Src)
	return out
}
