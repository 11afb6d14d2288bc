package timingmarks

import (
	"ballotscan/pkg/geometry"
)

// Grid addresses a complete timing-mark frame by (column, row), resolving
// each position to the pixel coordinate where that column's vertical
// timing-mark line crosses that row's horizontal one.
type Grid struct {
	frame *CompleteFrame
}

// NewGrid wraps a complete frame as an addressable grid.
func NewGrid(frame *CompleteFrame) *Grid {
	return &Grid{frame: frame}
}

// Size returns the grid's (columns, rows) dimensions.
func (g *Grid) Size() geometry.Size[int] {
	return g.frame.Geometry.GridSize
}

// Get resolves a (column, row) grid address to the pixel point where the
// corresponding vertical and horizontal timing-mark lines intersect.
// Returns ok=false for an out-of-bounds address or a degenerate frame.
func (g *Grid) Get(column, row int) (geometry.Point2D, bool) {
	size := g.Size()
	if column < 0 || column >= size.Width || row < 0 || row >= size.Height {
		return geometry.Point2D{}, false
	}
	if row >= len(g.frame.LeftRects) || row >= len(g.frame.RightRects) {
		return geometry.Point2D{}, false
	}
	if column >= len(g.frame.TopRects) || column >= len(g.frame.BottomRects) {
		return geometry.Point2D{}, false
	}

	horizontal := geometry.Segment{
		Start: g.frame.LeftRects[row].Center(),
		End:   g.frame.RightRects[row].Center(),
	}
	vertical := geometry.Segment{
		Start: g.frame.TopRects[column].Center(),
		End:   g.frame.BottomRects[column].Center(),
	}

	return geometry.IntersectionOfLines(horizontal, vertical, false)
}
