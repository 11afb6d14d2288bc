package timingmarks

import (
	"testing"

	"ballotscan/pkg/geometry"
)

func TestInferMissingMarksFillsGap(t *testing.T) {
	// Marks at x=0,10,30,40 (a gap where x=20 should be), evenly spaced by 10.
	known := []geometry.RectInt{
		{X: -2, Y: -2, Width: 4, Height: 4},
		{X: 8, Y: -2, Width: 4, Height: 4},
		{X: 28, Y: -2, Width: 4, Height: 4},
		{X: 38, Y: -2, Width: 4, Height: 4},
	}
	segment := geometry.Segment{Start: geometry.Point2D{X: 0, Y: 0}, End: geometry.Point2D{X: 40, Y: 0}}

	out := inferMissingMarks(known, segment, 10, 5, geometry.Size[int]{Width: 4, Height: 4})

	if len(out) != 5 {
		t.Fatalf("got %d marks, want 5", len(out))
	}
	for i, r := range out {
		wantX := float64(i * 10)
		if d := r.Center().X - wantX; d > 1.0 || d < -1.0 {
			t.Errorf("mark %d center X = %v, want ~%v", i, r.Center().X, wantX)
		}
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("median = %v, want 2", got)
	}
	if got := median(nil); got != 0 {
		t.Errorf("median(nil) = %v, want 0", got)
	}
}

func TestSharedEndpoint(t *testing.T) {
	a := geometry.RectInt{X: 1, Y: 2, Width: 3, Height: 4}
	b := a
	c := geometry.RectInt{X: 9, Y: 9, Width: 1, Height: 1}

	if sharedEndpoint(a, b) == nil {
		t.Errorf("expected shared endpoint for identical rects")
	}
	if sharedEndpoint(a, c) != nil {
		t.Errorf("expected no shared endpoint for distinct rects")
	}
}

func TestLeastSquaresLineAndResidual(t *testing.T) {
	points := []geometry.Point2D{
		{X: 0, Y: 1},
		{X: 1, Y: 3},
		{X: 2, Y: 5},
		{X: 3, Y: 7},
	}
	slope, intercept, ok := leastSquaresLine(points)
	if !ok {
		t.Fatalf("expected fit to succeed")
	}
	if d := slope - 2; d > 1e-6 || d < -1e-6 {
		t.Errorf("slope = %v, want 2", slope)
	}
	if d := intercept - 1; d > 1e-6 || d < -1e-6 {
		t.Errorf("intercept = %v, want 1", intercept)
	}

	residual, ok := lineFitResidual(points)
	if !ok {
		t.Fatalf("expected residual calc to succeed")
	}
	if residual > 1e-6 {
		t.Errorf("residual = %v, want ~0 for perfectly linear points", residual)
	}
}

func TestSideIsCollinearAcceptsStraightSide(t *testing.T) {
	rects := []geometry.RectInt{
		{X: 0, Y: 0, Width: 4, Height: 4},
		{X: 10, Y: 0, Width: 4, Height: 4},
		{X: 20, Y: 0, Width: 4, Height: 4},
		{X: 30, Y: 0, Width: 4, Height: 4},
	}
	if !sideIsCollinear(rects) {
		t.Errorf("expected a perfectly horizontal row of marks to pass the collinearity gate")
	}
}

func TestSideIsCollinearRejectsOutlier(t *testing.T) {
	rects := []geometry.RectInt{
		{X: 0, Y: 0, Width: 4, Height: 4},
		{X: 10, Y: 0, Width: 4, Height: 4},
		{X: 20, Y: 20, Width: 4, Height: 4}, // well off the line the others define
		{X: 30, Y: 0, Width: 4, Height: 4},
	}
	if sideIsCollinear(rects) {
		t.Errorf("expected an outlier mark to fail the collinearity gate")
	}
}

func TestSideIsCollinearHandlesVerticalSide(t *testing.T) {
	rects := []geometry.RectInt{
		{X: 0, Y: 0, Width: 4, Height: 4},
		{X: 0, Y: 10, Width: 4, Height: 4},
		{X: 0, Y: 20, Width: 4, Height: 4},
	}
	if !sideIsCollinear(rects) {
		t.Errorf("expected a perfectly vertical column of marks to pass the collinearity gate")
	}
}
