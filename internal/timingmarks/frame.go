// Package timingmarks locates a ballot page's timing-mark frame: the rows
// and columns of rectangular marks printed along the page border that
// define an addressable grid of oval positions.
package timingmarks

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"ballotscan/internal/ballotcard"
	"ballotscan/pkg/geometry"
)

// angleTolerance bounds how far a candidate line's direction may stray from
// purely horizontal or vertical and still be accepted as a timing-mark row
// or column, absorbing the scanner skew the frame-detection step tolerates.
const angleTolerance = 5 * math.Pi / 180

// lineFitResidualTolerance bounds how far, in pixels, a side's mark centers
// may stray from their own least-squares line before the side is rejected
// as not actually collinear. Loose enough to tolerate contour-center
// antialiasing noise, tight enough to catch an outlier rect that slipped
// past the angle-tolerance check in FindBestLineThroughItems.
const lineFitResidualTolerance = 3.0

// PartialFrame is the timing-mark frame as directly observed: the four
// side lines found by best-fit assembly, and whichever of the four corner
// marks were identified among them. Corners are nil where a side failed to
// produce a shared endpoint with its neighbor.
type PartialFrame struct {
	Geometry ballotcard.Geometry

	TopRects, BottomRects, LeftRects, RightRects []geometry.RectInt

	TopLeftRect, TopRightRect, BottomLeftRect, BottomRightRect *geometry.RectInt

	TopLeftCorner, TopRightCorner, BottomLeftCorner, BottomRightCorner geometry.Point2D
}

// CompleteFrame is a PartialFrame after gap-filling: every side has exactly
// the number of marks the ballot card geometry's grid size calls for, and
// all four corners are present.
type CompleteFrame struct {
	Geometry ballotcard.Geometry

	TopRects, BottomRects, LeftRects, RightRects []geometry.RectInt

	TopLeftRect, TopRightRect, BottomLeftRect, BottomRightRect geometry.RectInt
}

// FindPartialFrame splits candidate timing-mark rects into the four sides
// of the page and fits a line through each, then determines which rects
// sit at the frame's four corners by finding line endpoints the adjacent
// sides share.
func FindPartialFrame(geom ballotcard.Geometry, rects []geometry.RectInt) *PartialFrame {
	if len(rects) == 0 {
		return nil
	}

	halfHeight := geom.CanvasSize.Height / 2
	halfWidth := geom.CanvasSize.Width / 2

	var topHalf, bottomHalf, leftHalf, rightHalf []geometry.RectInt
	for _, r := range rects {
		if r.Top() < halfHeight {
			topHalf = append(topHalf, r)
		} else {
			bottomHalf = append(bottomHalf, r)
		}
		if r.Left() < halfWidth {
			leftHalf = append(leftHalf, r)
		} else {
			rightHalf = append(rightHalf, r)
		}
	}

	top := FindBestLineThroughItems(topHalf, 0, angleTolerance)
	bottom := FindBestLineThroughItems(bottomHalf, 0, angleTolerance)
	left := FindBestLineThroughItems(leftHalf, math.Pi/2, angleTolerance)
	right := FindBestLineThroughItems(rightHalf, math.Pi/2, angleTolerance)

	if len(top) == 0 || len(bottom) == 0 || len(left) == 0 || len(right) == 0 {
		return nil
	}
	for _, side := range [][]geometry.RectInt{top, bottom, left, right} {
		if !sideIsCollinear(side) {
			return nil
		}
	}

	sort.Slice(top, func(i, j int) bool { return top[i].Left() < top[j].Left() })
	sort.Slice(bottom, func(i, j int) bool { return bottom[i].Left() < bottom[j].Left() })
	sort.Slice(left, func(i, j int) bool { return left[i].Top() < left[j].Top() })
	sort.Slice(right, func(i, j int) bool { return right[i].Top() < right[j].Top() })

	pf := &PartialFrame{
		Geometry:    geom,
		TopRects:    top,
		BottomRects: bottom,
		LeftRects:   left,
		RightRects:  right,
	}

	pf.TopLeftRect = sharedEndpoint(top[0], left[0])
	pf.TopRightRect = sharedEndpoint(top[len(top)-1], right[0])
	pf.BottomLeftRect = sharedEndpoint(bottom[0], left[len(left)-1])
	pf.BottomRightRect = sharedEndpoint(bottom[len(bottom)-1], right[len(right)-1])

	pf.TopLeftCorner, _ = intersectEndLines(top, left, true, true)
	pf.TopRightCorner, _ = intersectEndLines(top, right, false, true)
	pf.BottomLeftCorner, _ = intersectEndLines(bottom, left, true, false)
	pf.BottomRightCorner, _ = intersectEndLines(bottom, right, false, false)

	return pf
}

// sharedEndpoint returns a pointer to a if a and b are the same rect (two
// sides meeting at a shared corner mark), or nil otherwise.
func sharedEndpoint(a, b geometry.RectInt) *geometry.RectInt {
	if a == b {
		r := a
		return &r
	}
	return nil
}

// intersectEndLines computes the unbounded intersection of the line through
// a side's rect centers and the line through a perpendicular side's rect
// centers, used to reconstruct a frame corner even when no single mark sits
// exactly at that corner.
func intersectEndLines(side, other []geometry.RectInt, otherFirst, sideFirst bool) (geometry.Point2D, bool) {
	if len(side) < 2 || len(other) < 2 {
		return geometry.Point2D{}, false
	}

	var sideSeg geometry.Segment
	if sideFirst {
		sideSeg = geometry.Segment{Start: side[0].Center(), End: side[len(side)-1].Center()}
	} else {
		sideSeg = geometry.Segment{Start: side[len(side)-1].Center(), End: side[0].Center()}
	}

	var otherSeg geometry.Segment
	if otherFirst {
		otherSeg = geometry.Segment{Start: other[0].Center(), End: other[len(other)-1].Center()}
	} else {
		otherSeg = geometry.Segment{Start: other[len(other)-1].Center(), End: other[0].Center()}
	}

	return geometry.IntersectionOfLines(sideSeg, otherSeg, false)
}

// CompleteFromPartial fills gaps in a partial frame's four sides until each
// has exactly the mark count its grid geometry calls for, synthesizing
// rects at their expected positions where a mark was not detected.
func CompleteFromPartial(pf *PartialFrame) *CompleteFrame {
	if pf.TopLeftRect == nil || pf.TopRightRect == nil || pf.BottomLeftRect == nil || pf.BottomRightRect == nil {
		return nil
	}

	allDistances := append(append(append(
		geometry.DistancesBetweenRects(pf.TopRects),
		geometry.DistancesBetweenRects(pf.BottomRects)...),
		geometry.DistancesBetweenRects(pf.LeftRects)...),
		geometry.DistancesBetweenRects(pf.RightRects)...)
	expectedDistance := median(allDistances)

	tmSize := geometry.Size[int]{
		Width:  int(pf.Geometry.TimingMarkSize.Width),
		Height: int(pf.Geometry.TimingMarkSize.Height),
	}

	top := inferMissingMarks(pf.TopRects, geometry.Segment{Start: pf.TopLeftCorner, End: pf.TopRightCorner}, expectedDistance, pf.Geometry.GridSize.Width, tmSize)
	bottom := inferMissingMarks(pf.BottomRects, geometry.Segment{Start: pf.BottomLeftCorner, End: pf.BottomRightCorner}, expectedDistance, pf.Geometry.GridSize.Width, tmSize)
	left := inferMissingMarks(pf.LeftRects, geometry.Segment{Start: pf.TopLeftCorner, End: pf.BottomLeftCorner}, expectedDistance, pf.Geometry.GridSize.Height, tmSize)
	right := inferMissingMarks(pf.RightRects, geometry.Segment{Start: pf.TopRightCorner, End: pf.BottomRightCorner}, expectedDistance, pf.Geometry.GridSize.Height, tmSize)

	gridSize := pf.Geometry.GridSize
	if len(top) != gridSize.Width || len(bottom) != gridSize.Width ||
		len(left) != gridSize.Height || len(right) != gridSize.Height {
		return nil
	}

	return &CompleteFrame{
		Geometry:        pf.Geometry,
		TopRects:        top,
		BottomRects:     bottom,
		LeftRects:       left,
		RightRects:      right,
		TopLeftRect:     *pf.TopLeftRect,
		TopRightRect:    *pf.TopRightRect,
		BottomLeftRect:  *pf.BottomLeftRect,
		BottomRightRect: *pf.BottomRightRect,
	}
}

// inferMissingMarks walks segment from its start toward its end in steps of
// expectedDistance, reusing an already-known mark wherever one falls close
// enough to the current walking point and otherwise synthesizing a nominal
// mark, until expectedCount marks have been produced.
func inferMissingMarks(known []geometry.RectInt, segment geometry.Segment, expectedDistance float64, expectedCount int, nominalSize geometry.Size[int]) []geometry.RectInt {
	if expectedDistance <= 0 {
		return known
	}

	step := segment.WithLength(expectedDistance).Vector()
	current := segment.Start

	out := make([]geometry.RectInt, 0, expectedCount)
	for len(out) < expectedCount {
		nearest, dist, found := nearestRect(known, current)
		if found && dist <= expectedDistance/2 {
			out = append(out, nearest)
			current = nearest.Center()
		} else {
			synth := geometry.RectInt{
				X:      int(math.Round(current.X)) - nominalSize.Width/2,
				Y:      int(math.Round(current.Y)) - nominalSize.Height/2,
				Width:  nominalSize.Width,
				Height: nominalSize.Height,
			}
			out = append(out, synth)
		}
		current = current.Add(step)
	}
	return out
}

func nearestRect(rects []geometry.RectInt, point geometry.Point2D) (geometry.RectInt, float64, bool) {
	if len(rects) == 0 {
		return geometry.RectInt{}, 0, false
	}
	best := rects[0]
	bestDist := best.Center().Distance(point)
	for _, r := range rects[1:] {
		d := r.Center().Distance(point)
		if d < bestDist {
			best, bestDist = r, d
		}
	}
	return best, bestDist, true
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return sorted[len(sorted)/2]
}

// sideIsCollinear is the gonum-backed quality gate applied to every side
// FindBestLineThroughItems returns: its mark centers must actually sit
// close to a single straight line, not merely fall within angle tolerance
// of one. Fewer than 3 points can't distinguish a line from noise, so they
// pass trivially.
func sideIsCollinear(rects []geometry.RectInt) bool {
	if len(rects) < 3 {
		return true
	}
	points := make([]geometry.Point2D, len(rects))
	for i, r := range rects {
		points[i] = r.Center()
	}
	residual, ok := lineFitResidualAuto(points)
	return !ok || residual <= lineFitResidualTolerance
}

// lineFitResidualAuto fits points to whichever axis varies more (y = f(x)
// for a roughly horizontal scatter, x = f(y) for a roughly vertical one),
// avoiding the near-vertical-line instability of always solving y = f(x).
func lineFitResidualAuto(points []geometry.Point2D) (float64, bool) {
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	if maxX-minX >= maxY-minY {
		return lineFitResidual(points)
	}

	swapped := make([]geometry.Point2D, len(points))
	for i, p := range points {
		swapped[i] = geometry.Point2D{X: p.Y, Y: p.X}
	}
	return lineFitResidual(swapped)
}

// leastSquaresLine fits y = slope*x + intercept through points using
// gonum's dense linear solver over the normal equations, used to validate
// that a best-fit line assembled from contour centers is actually tight
// (low residual) rather than merely angle-consistent.
func leastSquaresLine(points []geometry.Point2D) (slope, intercept float64, ok bool) {
	n := len(points)
	if n < 2 {
		return 0, 0, false
	}

	a := mat.NewDense(n, 2, nil)
	b := mat.NewVecDense(n, nil)
	for i, p := range points {
		a.Set(i, 0, p.X)
		a.Set(i, 1, 1)
		b.SetVec(i, p.Y)
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var atb mat.VecDense
	atb.MulVec(a.T(), b)

	var x mat.VecDense
	if err := x.SolveVec(&ata, &atb); err != nil {
		return 0, 0, false
	}
	return x.AtVec(0), x.AtVec(1), true
}

// lineFitResidual returns the root-mean-square vertical distance between
// points and the least-squares line fit through them, used as a collinearity
// quality gate after FindBestLineThroughItems.
func lineFitResidual(points []geometry.Point2D) (residual float64, ok bool) {
	slope, intercept, ok := leastSquaresLine(points)
	if !ok {
		return 0, false
	}
	var sumSq float64
	for _, p := range points {
		predicted := slope*p.X + intercept
		d := p.Y - predicted
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(points))), true
}
