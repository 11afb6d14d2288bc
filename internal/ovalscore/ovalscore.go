// Package ovalscore scores each oval position on a ballot page by
// searching a small neighborhood around its expected location for the
// offset that best matches a reference oval template, then measures how
// full the matched oval is.
package ovalscore

import (
	"image"
	"image/color"
	"sync"

	"ballotscan/internal/election"
	"ballotscan/internal/imaging"
	"ballotscan/internal/timingmarks"
	"ballotscan/pkg/geometry"
)

// DefaultMaximumSearchDistance bounds how far, in pixels, the local search
// looks for a better alignment than the expected (column, row) center
// before giving up and scoring whatever it found.
const DefaultMaximumSearchDistance = 7

// Mark is the result of scoring one oval position: how well the page
// region at the matched offset resembles the reference template (MatchScore)
// and how much of the template's marked area is actually filled in
// (FillScore).
type Mark struct {
	Location       election.GridLocation
	MatchScore     float64
	FillScore      float64
	OriginalBounds geometry.RectInt
	MatchedBounds  geometry.RectInt
}

// ScoredPosition pairs a grid position from an election definition with the
// oval score computed for it.
type ScoredPosition struct {
	Position election.GridPosition
	Mark     *Mark
}

// ScoreGridLayout scores every position in layout belonging to side,
// looking up each position's expected pixel center from grid. Positions the
// grid can't resolve (out of bounds, degenerate frame) are reported with a
// nil Mark.
func ScoreGridLayout(page *image.Gray, template *image.Gray, grid *timingmarks.Grid, layout election.GridLayout, side election.Side, threshold uint8) []ScoredPosition {
	type job struct {
		index    int
		position election.GridPosition
		center   geometry.Point2D
	}

	out := make([]ScoredPosition, 0, len(layout.GridPositions))
	var jobs []job

	for _, pos := range layout.GridPositions {
		if pos.Side != side {
			continue
		}
		idx := len(out)
		out = append(out, ScoredPosition{Position: pos})

		center, ok := grid.Get(pos.Column, pos.Row)
		if !ok {
			continue
		}
		jobs = append(jobs, job{index: idx, position: pos, center: center})
	}

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			mark := ScoreOvalMark(page, template, j.center, j.position.Location(), DefaultMaximumSearchDistance, threshold)
			out[j.index].Mark = mark
		}(j)
	}
	wg.Wait()

	return out
}

// ScoreOvalMark searches a (2*maxDist)x(2*maxDist) neighborhood around
// expectedCenter for the offset whose cropped, thresholded page patch most
// closely resembles template, then reports both how good that match is and
// how filled in the matched region is.
//
// The search range is asymmetric ([-maxDist, maxDist)) to match the
// reference pipeline: negative offsets are tried, but the search never
// steps maxDist pixels in the positive direction.
func ScoreOvalMark(page, template *image.Gray, expectedCenter geometry.Point2D, loc election.GridLocation, maxDist int, threshold uint8) *Mark {
	tb := template.Bounds()
	tw, th := tb.Dx(), tb.Dy()

	rounded := expectedCenter.Round()
	baseX := rounded.X - tw/2
	baseY := rounded.Y - th/2

	originalBounds := geometry.RectInt{X: baseX, Y: baseY, Width: tw, Height: th}

	var (
		bestScore    float64 = -1
		bestX, bestY int
		found        bool
	)

	for dy := -maxDist; dy < maxDist; dy++ {
		for dx := -maxDist; dx < maxDist; dx++ {
			x, y := baseX+dx, baseY+dy
			if x < 0 || y < 0 {
				continue
			}
			rect := image.Rect(x, y, x+tw, y+th)
			if !rect.In(page.Bounds()) {
				continue
			}

			patch := imaging.Crop(page, rect)
			thresholdedPatch := binarize(patch, threshold)

			diff := imaging.Diff(thresholdedPatch, template)
			score := imaging.Ratio(diff, imaging.White)

			if score > bestScore {
				bestScore, bestX, bestY, found = score, x, y, true
			}
		}
	}

	if !found {
		return nil
	}

	matchedBounds := geometry.RectInt{X: bestX, Y: bestY, Width: tw, Height: th}
	matchedRect := image.Rect(bestX, bestY, bestX+tw, bestY+th)
	binarizedSource := binarize(imaging.Crop(page, matchedRect), threshold)

	fillDiff := imaging.Diff(template, binarizedSource)
	fillScore := imaging.Ratio(fillDiff, imaging.Black)

	return &Mark{
		Location:       loc,
		MatchScore:     bestScore,
		FillScore:      fillScore,
		OriginalBounds: originalBounds,
		MatchedBounds:  matchedBounds,
	}
}

// binarize thresholds a grayscale crop to pure black/white at a fixed
// cutoff, rather than re-running Otsu on what may be a near-uniform patch.
func binarize(img *image.Gray, threshold uint8) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y > threshold {
				out.SetGray(x, y, color.Gray{Y: imaging.White})
			} else {
				out.SetGray(x, y, color.Gray{Y: imaging.Black})
			}
		}
	}
	return out
}
