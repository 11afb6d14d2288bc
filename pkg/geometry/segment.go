package geometry

import "math"

// Segment is a directed line segment between two points.
type Segment struct {
	Start Point2D
	End   Point2D
}

// NewSegment creates a segment between two points.
func NewSegment(start, end Point2D) Segment {
	return Segment{Start: start, End: end}
}

// Vector returns the segment's direction vector (End - Start).
func (s Segment) Vector() Point2D {
	return s.End.Sub(s.Start)
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.Start.Distance(s.End)
}

// Angle returns the segment's direction angle in radians, via atan2.
func (s Segment) Angle() float64 {
	v := s.Vector()
	return math.Atan2(v.Y, v.X)
}

// WithLength returns a new segment with the same start point and direction,
// but with the given length.
func (s Segment) WithLength(length float64) Segment {
	v := s.Vector()
	mag := math.Hypot(v.X, v.Y)
	if mag == 0 {
		return Segment{Start: s.Start, End: s.Start}
	}
	unit := Point2D{X: v.X / mag, Y: v.Y / mag}
	return Segment{Start: s.Start, End: s.Start.Add(unit.Scale(length))}
}

// NormalizeAngle reduces an angle (radians) to the range [0, pi), treating
// a line's direction as equivalent to its opposite direction.
func NormalizeAngle(angle float64) float64 {
	for angle < 0 {
		angle += math.Pi
	}
	for angle >= math.Pi {
		angle -= math.Pi
	}
	return angle
}

// AngleDiff returns the smallest difference between two line angles
// (radians), accounting for the fact that a line and its reverse direction
// are the same line.
func AngleDiff(a, b float64) float64 {
	diff := NormalizeAngle(a - b)
	return math.Min(diff, math.Pi-diff)
}

// IntersectionOfLines computes the intersection point of two segments.
// If bounded is true, the intersection must fall within both segments
// (not merely on the infinite lines they define); otherwise the segments
// are treated as infinite lines. Returns ok=false for parallel or
// non-intersecting (when bounded) lines.
func IntersectionOfLines(s1, s2 Segment, bounded bool) (Point2D, bool) {
	p1, p2 := s1.Start, s1.End
	p3, p4 := s2.Start, s2.End

	d := (p4.Y-p3.Y)*(p2.X-p1.X) - (p4.X-p3.X)*(p2.Y-p1.Y)
	if d == 0 {
		return Point2D{}, false
	}

	ua := ((p4.X-p3.X)*(p1.Y-p3.Y) - (p4.Y-p3.Y)*(p1.X-p3.X)) / d
	ub := ((p2.X-p1.X)*(p1.Y-p3.Y) - (p2.Y-p1.Y)*(p1.X-p3.X)) / d

	if bounded && (ua < 0 || ua > 1 || ub < 0 || ub > 1) {
		return Point2D{}, false
	}

	return Point2D{
		X: p1.X + ua*(p2.X-p1.X),
		Y: p1.Y + ua*(p2.Y-p1.Y),
	}, true
}

// SegmentsIntersect reports whether two bounded segments intersect.
func SegmentsIntersect(s1, s2 Segment) bool {
	_, ok := IntersectionOfLines(s1, s2, true)
	return ok
}

// RectIntersectsLine reports whether seg itself (bounded by its endpoints,
// not the infinite line through it) crosses any of the rect's four edges.
func RectIntersectsLine(r RectInt, seg Segment) bool {
	tl := Point2D{X: float64(r.Left()), Y: float64(r.Top())}
	tr := Point2D{X: float64(r.Right()), Y: float64(r.Top())}
	bl := Point2D{X: float64(r.Left()), Y: float64(r.Bottom())}
	br := Point2D{X: float64(r.Right()), Y: float64(r.Bottom())}

	edges := [4]Segment{
		{Start: tl, End: tr},
		{Start: tr, End: br},
		{Start: br, End: bl},
		{Start: bl, End: tl},
	}
	for _, edge := range edges {
		if _, ok := IntersectionOfLines(seg, edge, true); ok {
			return true
		}
	}
	return false
}

// DistancesBetweenRects returns the center-to-center distances between each
// consecutive pair of rects in the given (already ordered) slice.
func DistancesBetweenRects(rects []RectInt) []float64 {
	if len(rects) < 2 {
		return nil
	}
	out := make([]float64, 0, len(rects)-1)
	for i := 1; i < len(rects); i++ {
		out = append(out, rects[i-1].Center().Distance(rects[i].Center()))
	}
	return out
}

// SegmentFromPointTowardPointWithLength builds a segment starting at from,
// pointed at (but not necessarily reaching) toward, with the given length.
func SegmentFromPointTowardPointWithLength(from, toward Point2D, length float64) Segment {
	return Segment{Start: from, End: toward}.WithLength(length)
}
