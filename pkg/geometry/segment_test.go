package geometry

import (
	"math"
	"testing"
)

func TestIntersectionOfLinesUnbounded(t *testing.T) {
	horizontal := Segment{Start: Point2D{X: 0, Y: 5}, End: Point2D{X: 10, Y: 5}}
	vertical := Segment{Start: Point2D{X: 3, Y: 0}, End: Point2D{X: 3, Y: 10}}

	p, ok := IntersectionOfLines(horizontal, vertical, false)
	if !ok {
		t.Fatalf("expected intersection, got none")
	}
	if p.X != 3 || p.Y != 5 {
		t.Errorf("got (%v, %v), want (3, 5)", p.X, p.Y)
	}
}

func TestIntersectionOfLinesBoundedRejectsOutOfRange(t *testing.T) {
	a := Segment{Start: Point2D{X: 0, Y: 0}, End: Point2D{X: 1, Y: 0}}
	b := Segment{Start: Point2D{X: 5, Y: -1}, End: Point2D{X: 5, Y: 1}}

	if _, ok := IntersectionOfLines(a, b, true); ok {
		t.Errorf("expected bounded intersection to fail, lines do not cross within segments")
	}
}

func TestIntersectionOfLinesParallel(t *testing.T) {
	a := Segment{Start: Point2D{X: 0, Y: 0}, End: Point2D{X: 10, Y: 0}}
	b := Segment{Start: Point2D{X: 0, Y: 5}, End: Point2D{X: 10, Y: 5}}

	if _, ok := IntersectionOfLines(a, b, false); ok {
		t.Errorf("expected parallel lines to have no intersection")
	}
}

func TestAngleDiffTreatsOppositeDirectionsAsSameLine(t *testing.T) {
	diff := AngleDiff(0, math.Pi)
	if diff > 1e-9 {
		t.Errorf("AngleDiff(0, pi) = %v, want ~0", diff)
	}
}

func TestAngleDiffQuarterTurn(t *testing.T) {
	diff := AngleDiff(0, math.Pi/2)
	want := math.Pi / 2
	if math.Abs(diff-want) > 1e-9 {
		t.Errorf("AngleDiff(0, pi/2) = %v, want %v", diff, want)
	}
}

func TestRectIntersectsLine(t *testing.T) {
	r := RectInt{X: 10, Y: 10, Width: 10, Height: 10}
	crossing := Segment{Start: Point2D{X: 0, Y: 15}, End: Point2D{X: 30, Y: 15}}
	missing := Segment{Start: Point2D{X: 0, Y: 100}, End: Point2D{X: 30, Y: 100}}

	if !RectIntersectsLine(r, crossing) {
		t.Errorf("expected crossing segment to intersect rect")
	}
	if RectIntersectsLine(r, missing) {
		t.Errorf("expected non-crossing segment to not intersect rect")
	}
}

func TestRectIntCenterUsesInclusiveEdges(t *testing.T) {
	r := RectInt{X: 0, Y: 0, Width: 10, Height: 20}
	c := r.Center()
	if c.X != 4.5 || c.Y != 9.5 {
		t.Errorf("Center() = (%v, %v), want (4.5, 9.5)", c.X, c.Y)
	}
}

func TestSegmentWithLength(t *testing.T) {
	s := Segment{Start: Point2D{X: 0, Y: 0}, End: Point2D{X: 1, Y: 0}}
	out := s.WithLength(5)
	if math.Abs(out.Length()-5) > 1e-9 {
		t.Errorf("WithLength(5).Length() = %v, want 5", out.Length())
	}
	if out.End.X != 5 || out.End.Y != 0 {
		t.Errorf("WithLength(5).End = %v, want (5, 0)", out.End)
	}
}

func TestDistancesBetweenRects(t *testing.T) {
	rects := []RectInt{
		{X: 0, Y: 0, Width: 10, Height: 10},
		{X: 20, Y: 0, Width: 10, Height: 10},
		{X: 40, Y: 0, Width: 10, Height: 10},
	}
	distances := DistancesBetweenRects(rects)
	if len(distances) != 2 {
		t.Fatalf("got %d distances, want 2", len(distances))
	}
	for i, d := range distances {
		if math.Abs(d-20) > 1e-9 {
			t.Errorf("distance[%d] = %v, want 20", i, d)
		}
	}
}
