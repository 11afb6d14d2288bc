// Package debugimg renders the auxiliary debug images produced alongside
// ballot interpretation: contour candidates, the fitted timing-mark frame,
// the addressable grid, and each scored oval's matched bounds, each drawn
// over a copy of the whole page and written to a PNG alongside the page it
// was derived from.
package debugimg

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"

	"gocv.io/x/gocv"

	"ballotscan/internal/ovalscore"
	"ballotscan/internal/timingmarks"
	"ballotscan/pkg/colorutil"
	"ballotscan/pkg/geometry"
)

// Rainbow cycles through a fixed 7-color palette, used to make adjacent
// contour candidates visually distinguishable in the candidate overlay.
var Rainbow = []color.RGBA{
	colorutil.Magenta, colorutil.Blue, colorutil.Cyan,
	colorutil.Green, colorutil.Yellow, colorutil.Black, colorutil.White,
}

func toRect(r geometry.RectInt) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func label(dst *gocv.Mat, text string, at image.Point, col color.RGBA) {
	gocv.PutText(dst, text, at, gocv.FontHersheyPlain, 0.9, col, 1)
}

// DrawCandidateRects draws every timing-mark candidate rect on a clone of
// img, cycling through Rainbow so adjacent candidates are distinguishable,
// with each rect labeled by its index in rects.
func DrawCandidateRects(img gocv.Mat, rects []geometry.RectInt) gocv.Mat {
	dst := img.Clone()
	for i, r := range rects {
		col := Rainbow[i%len(Rainbow)]
		gocv.Rectangle(&dst, toRect(r), col, 2)
		label(&dst, strconv.Itoa(i), image.Pt(r.X, r.Y-4), col)
	}
	return dst
}

// DrawFrame draws a completed timing-mark frame on a clone of img: each
// side's marks in a distinct color, and the four corner rects highlighted
// and labeled.
func DrawFrame(img gocv.Mat, frame *timingmarks.CompleteFrame) gocv.Mat {
	dst := img.Clone()

	drawSide := func(rects []geometry.RectInt, col color.RGBA) {
		for _, r := range rects {
			gocv.Rectangle(&dst, toRect(r), col, 2)
		}
	}
	drawSide(frame.TopRects, colorutil.Green)
	drawSide(frame.BottomRects, colorutil.Blue)
	drawSide(frame.LeftRects, colorutil.Cyan)
	drawSide(frame.RightRects, colorutil.Magenta)

	corners := map[string]geometry.RectInt{
		"TL": frame.TopLeftRect, "TR": frame.TopRightRect,
		"BL": frame.BottomLeftRect, "BR": frame.BottomRightRect,
	}
	for name, r := range corners {
		gocv.Rectangle(&dst, toRect(r), colorutil.Yellow, 3)
		label(&dst, name, image.Pt(r.X, r.Y-4), colorutil.Yellow)
	}

	return dst
}

// DrawGrid draws a cross at every addressable (column, row) grid position,
// useful for visually confirming the grid lines up with the printed ovals.
func DrawGrid(img gocv.Mat, grid *timingmarks.Grid) gocv.Mat {
	dst := img.Clone()
	size := grid.Size()
	const armLength = 4

	for row := 0; row < size.Height; row++ {
		for col := 0; col < size.Width; col++ {
			p, ok := grid.Get(col, row)
			if !ok {
				continue
			}
			x, y := int(p.X), int(p.Y)
			gocv.Line(&dst, image.Pt(x-armLength, y), image.Pt(x+armLength, y), colorutil.Magenta, 1)
			gocv.Line(&dst, image.Pt(x, y-armLength), image.Pt(x, y+armLength), colorutil.Magenta, 1)
		}
	}
	return dst
}

// DrawScores draws each scored oval's matched bounds, colored green when
// above the given fill threshold and blue otherwise, labeled with the
// position's ID, useful for spot checking scoring quality visually.
func DrawScores(img gocv.Mat, scores []ovalscore.ScoredPosition, fillThreshold float64) gocv.Mat {
	dst := img.Clone()
	for _, s := range scores {
		if s.Mark == nil {
			continue
		}
		col := colorutil.Blue
		if s.Mark.FillScore >= fillThreshold {
			col = colorutil.Green
		}
		gocv.Rectangle(&dst, toRect(s.Mark.MatchedBounds), col, 2)
		label(&dst, s.Position.ID(), image.Pt(s.Mark.MatchedBounds.X, s.Mark.MatchedBounds.Y-4), col)
	}
	return dst
}

// Path derives a debug-image output path from the source page path and a
// kind suffix ("candidates", "frame", "grid", "scores"), writing the PNG
// alongside the source image as spec'd for debug mode.
func Path(srcPath, kind string) string {
	ext := filepath.Ext(srcPath)
	base := strings.TrimSuffix(srcPath, ext)
	return fmt.Sprintf("%s.debug-%s.png", base, kind)
}

// Write encodes img as a PNG at path.
func Write(path string, img gocv.Mat) error {
	if ok := gocv.IMWrite(path, img); !ok {
		return fmt.Errorf("debugimg: failed to write %s", path)
	}
	return nil
}
