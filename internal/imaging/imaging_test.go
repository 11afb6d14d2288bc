package imaging

import (
	"image"
	"image/color"
	"testing"
)

func grayFromRows(rows [][]uint8) *image.Gray {
	h := len(rows)
	w := len(rows[0])
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y, row := range rows {
		for x, v := range row {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestBleedGrowsMatchingPixels(t *testing.T) {
	img := grayFromRows([][]uint8{
		{White, White, White},
		{White, Black, White},
		{White, White, White},
	})

	out := Bleed(img, Black)

	// center and its 4 neighbors should now be Black; corners stay White.
	for _, p := range [][2]int{{1, 1}, {0, 1}, {2, 1}, {1, 0}, {1, 2}} {
		if out.GrayAt(p[0], p[1]).Y != Black {
			t.Errorf("pixel (%d,%d) = %v, want Black", p[0], p[1], out.GrayAt(p[0], p[1]).Y)
		}
	}
	for _, p := range [][2]int{{0, 0}, {2, 0}, {0, 2}, {2, 2}} {
		if out.GrayAt(p[0], p[1]).Y != White {
			t.Errorf("corner pixel (%d,%d) = %v, want White", p[0], p[1], out.GrayAt(p[0], p[1]).Y)
		}
	}
}

func TestDiffIdenticalImagesAreAllWhite(t *testing.T) {
	a := grayFromRows([][]uint8{{10, 200}, {50, 255}})
	b := grayFromRows([][]uint8{{10, 200}, {50, 255}})

	out := Diff(a, b)
	if Ratio(out, White) != 1.0 {
		t.Errorf("Ratio(diff, White) = %v, want 1.0 for identical images", Ratio(out, White))
	}
}

func TestDiffClampsNegative(t *testing.T) {
	base := grayFromRows([][]uint8{{0}})
	compare := grayFromRows([][]uint8{{255}})

	out := Diff(base, compare)
	// base - compare = -255, clamped to 0, then inverted: 255-0 = 255 (White).
	if out.GrayAt(0, 0).Y != White {
		t.Errorf("got %v, want White for a fully negative diff", out.GrayAt(0, 0).Y)
	}
}

func TestCountPixelsAndRatio(t *testing.T) {
	img := grayFromRows([][]uint8{
		{Black, Black, White},
		{White, Black, White},
	})
	if got := CountPixels(img, Black); got != 3 {
		t.Errorf("CountPixels = %d, want 3", got)
	}
	if got := Ratio(img, Black); got != 0.5 {
		t.Errorf("Ratio = %v, want 0.5", got)
	}
}

func TestFitToCanvasPreservesAspectRatio(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 100))
	out := FitToCanvas(img, 50, 50)

	// source aspect 2:1 is wider than target 1:1, so width should hit 50
	// and height should be scaled down to 25.
	b := out.Bounds()
	if b.Dx() != 50 {
		t.Errorf("width = %d, want 50", b.Dx())
	}
	if b.Dy() != 25 {
		t.Errorf("height = %d, want 25", b.Dy())
	}
}

func TestCrop(t *testing.T) {
	img := grayFromRows([][]uint8{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})
	out := Crop(img, image.Rect(1, 1, 3, 3))
	if out.Bounds().Dx() != 2 || out.Bounds().Dy() != 2 {
		t.Fatalf("got %dx%d, want 2x2", out.Bounds().Dx(), out.Bounds().Dy())
	}
	if out.GrayAt(0, 0).Y != 5 {
		t.Errorf("GrayAt(0,0) = %d, want 5", out.GrayAt(0, 0).Y)
	}
}
