package timingmarks

import (
	"math"
	"testing"

	"ballotscan/pkg/geometry"
)

func TestFindBestLineThroughItemsPicksCollinearSubset(t *testing.T) {
	// A horizontal row of 5 marks, plus 2 stray marks well off the line.
	rects := []geometry.RectInt{
		{X: 0, Y: 100, Width: 10, Height: 10},
		{X: 20, Y: 100, Width: 10, Height: 10},
		{X: 40, Y: 100, Width: 10, Height: 10},
		{X: 60, Y: 100, Width: 10, Height: 10},
		{X: 80, Y: 100, Width: 10, Height: 10},
		{X: 30, Y: 500, Width: 10, Height: 10},
		{X: 70, Y: 700, Width: 10, Height: 10},
	}

	tolerance := 5 * math.Pi / 180
	best := FindBestLineThroughItems(rects, 0, tolerance)

	if len(best) != 5 {
		t.Fatalf("got %d rects in best line, want 5", len(best))
	}
	for _, r := range best {
		if r.Y != 100 {
			t.Errorf("unexpected rect in best-fit line: %+v", r)
		}
	}
}

func TestFindBestLineThroughItemsVertical(t *testing.T) {
	rects := []geometry.RectInt{
		{X: 50, Y: 0, Width: 10, Height: 10},
		{X: 50, Y: 20, Width: 10, Height: 10},
		{X: 50, Y: 40, Width: 10, Height: 10},
		{X: 200, Y: 10, Width: 10, Height: 10},
	}

	tolerance := 5 * math.Pi / 180
	best := FindBestLineThroughItems(rects, math.Pi/2, tolerance)

	if len(best) != 3 {
		t.Fatalf("got %d rects in best line, want 3", len(best))
	}
}

func TestFindBestLineThroughItemsEmpty(t *testing.T) {
	if got := FindBestLineThroughItems(nil, 0, 0.1); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}
