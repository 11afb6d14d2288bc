package timingmarks

import (
	"sort"

	"gocv.io/x/gocv"

	"ballotscan/internal/ballotcard"
	"ballotscan/pkg/geometry"
)

// contourNode mirrors one row of an OpenCV contour hierarchy: the index of
// the next sibling, previous sibling, first child, and parent contour, each
// -1 when absent.
type contourNode struct {
	next, prev, firstChild, parent int32
}

// FindCandidateRects runs contour detection on an Otsu-thresholded page and
// returns the bounding boxes of every contour that could plausibly be a
// timing mark: rectangular, appropriately sized, and an innermost hole
// (a contour with no children, nested inside an outer border) rather than
// the page's outer frame or noise.
func FindCandidateRects(thresholded gocv.Mat, geom ballotcard.Geometry) []geometry.RectInt {
	hierarchy := gocv.NewMat()
	defer hierarchy.Close()

	contours := gocv.FindContoursWithParams(thresholded, &hierarchy, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	nodes := parseHierarchy(hierarchy, contours.Size())

	var rects []geometry.RectInt
	for i := 0; i < contours.Size(); i++ {
		if !isInnermostHole(nodes, i) {
			continue
		}
		cvRect := gocv.BoundingRect(contours.At(i))
		rect := geometry.RectInt{X: cvRect.Min.X, Y: cvRect.Min.Y, Width: cvRect.Dx(), Height: cvRect.Dy()}

		if !rectCouldBeTimingMark(geom, rect) {
			continue
		}
		if !isContourRectangular(contours.At(i), rect) {
			continue
		}
		rects = append(rects, rect)
	}

	sort.Slice(rects, func(i, j int) bool {
		if rects[i].Y != rects[j].Y {
			return rects[i].Y < rects[j].Y
		}
		return rects[i].X < rects[j].X
	})
	return rects
}

// parseHierarchy unpacks OpenCV's flat CV_32SC4 hierarchy Mat ([next, prev,
// firstChild, parent] per contour) into a slice of contourNode.
func parseHierarchy(hierarchy gocv.Mat, count int) []contourNode {
	nodes := make([]contourNode, count)
	if count == 0 {
		return nodes
	}
	flat := hierarchy.DataPtrInt32()
	for i := 0; i < count; i++ {
		base := i * 4
		if base+3 >= len(flat) {
			break
		}
		nodes[i] = contourNode{
			next:       flat[base],
			prev:       flat[base+1],
			firstChild: flat[base+2],
			parent:     flat[base+3],
		}
	}
	return nodes
}

// isInnermostHole reports whether contour i has a parent (it is nested
// inside some outer border, i.e. it is a "hole" in OpenCV's tree-retrieval
// sense) and has no children of its own (it is the innermost shape at that
// nesting level, ruling out the page's outer frame and nested noise).
func isInnermostHole(nodes []contourNode, i int) bool {
	n := nodes[i]
	return n.parent != -1 && n.firstChild == -1
}

// rectCouldBeTimingMark filters candidate rects by plausible timing-mark
// dimensions, generous enough to tolerate minor scan noise and partial
// occlusion while rejecting ovals, gridlines, and page-border artifacts.
func rectCouldBeTimingMark(geom ballotcard.Geometry, rect geometry.RectInt) bool {
	tmWidth := geom.TimingMarkSize.Width
	tmHeight := geom.TimingMarkSize.Height

	minWidth := int(tmWidth / 4)
	maxWidth := int(tmWidth*1.5) + 1
	minHeight := int(tmHeight * 2 / 3)
	maxHeight := int(tmHeight*1.5) + 1

	return rect.Width >= minWidth && rect.Width <= maxWidth &&
		rect.Height >= minHeight && rect.Height <= maxHeight
}

// isContourRectangular scores how closely a contour's points hug the edges
// of its bounding rect: for each point, the distance to its nearest edge is
// summed, and the contour passes if the mean per-point error is under one
// pixel.
func isContourRectangular(points gocv.PointVector, rect geometry.RectInt) bool {
	n := points.Size()
	if n == 0 {
		return false
	}

	left, top, right, bottom := float64(rect.Left()), float64(rect.Top()), float64(rect.Right()), float64(rect.Bottom())

	var errSum float64
	for i := 0; i < n; i++ {
		p := points.At(i)
		x, y := float64(p.X), float64(p.Y)

		distances := [4]float64{
			abs(x - left),
			abs(x - right),
			abs(y - top),
			abs(y - bottom),
		}
		minDist := distances[0]
		for _, d := range distances[1:] {
			if d < minDist {
				minDist = d
			}
		}
		errSum += minDist
	}

	return errSum/float64(n) < 1.0
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
