package timingmarks

import (
	"sync"

	"ballotscan/pkg/geometry"
)

// FindBestLineThroughItems finds the largest subset of rects whose centers
// are collinear along the given angle (within tolerance radians of it, in
// either direction). For every rect, it considers the line from that rect's
// center to every other rect's center, keeps the line only if its angle is
// within tolerance of angle, and collects every rect the line segment
// passes through. The outer rect producing the largest such set wins; ties
// keep whichever outer rect was tried first, making the result
// deterministic regardless of goroutine scheduling.
func FindBestLineThroughItems(rects []geometry.RectInt, angle, tolerance float64) []geometry.RectInt {
	if len(rects) == 0 {
		return nil
	}

	type candidate struct {
		index int
		set   []geometry.RectInt
	}

	results := make([]candidate, len(rects))
	var wg sync.WaitGroup
	for i := range rects {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = candidate{index: i, set: bestLineFrom(rects, i, angle, tolerance)}
		}(i)
	}
	wg.Wait()

	best := results[0]
	for _, c := range results[1:] {
		if len(c.set) > len(best.set) {
			best = c
		}
	}
	return best.set
}

// bestLineFrom finds the best-fit line passing through rects[outer],
// trying every other rect as the line's second defining point.
func bestLineFrom(rects []geometry.RectInt, outer int, angle, tolerance float64) []geometry.RectInt {
	center := rects[outer].Center()

	var best []geometry.RectInt
	for j := range rects {
		if j == outer {
			continue
		}
		other := rects[j].Center()
		lineAngle := geometry.Segment{Start: center, End: other}.Angle()
		if geometry.AngleDiff(lineAngle, angle) > tolerance {
			continue
		}

		seg := geometry.Segment{Start: center, End: other}
		set := make([]geometry.RectInt, 0, len(rects))
		for k := range rects {
			if geometry.RectIntersectsLine(rects[k], seg) {
				set = append(set, rects[k])
			}
		}
		if len(set) > len(best) {
			best = set
		}
	}
	return best
}
