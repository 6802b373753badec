package pyramid

import (
	"cmp"
	"math"
)

// CompareZoom orders zoom levels for fetching: the root level first, then
// levels closer to viewZoom, then the coarser of two equally close levels.
//
// Root always sorts first, whichever side of the comparison it is on, which
// keeps the order a valid total order for slices.SortFunc.
func CompareZoom(a, b, viewZoom int) int {
	switch {
	case a == b:
		return 0
	case a == 0:
		return -1
	case b == 0:
		return 1
	}
	da, db := abs(a-viewZoom), abs(b-viewZoom)
	if da != db {
		return cmp.Compare(da, db)
	}
	return cmp.Compare(a, b)
}

// CompareGrid orders tiles for fetching: by CompareZoom, then by distance
// from the centre of the view.
func CompareGrid(a, b Address, w ViewWindow) int {
	if c := CompareZoom(a.Zoom, b.Zoom, w.Zoom); c != 0 {
		return c
	}
	return cmp.Compare(GridDistance(a, w), GridDistance(b, w))
}

// GridDistance is the distance, in tiles of a's zoom, between the centre of
// a and the fractional centre of the view. The column distance takes the
// shorter way around the world.
func GridDistance(a Address, w ViewWindow) float64 {
	scale := math.Ldexp(1, a.Zoom-w.Zoom)
	n := float64(GridSize(a.Zoom))

	dx := math.Abs(float64(a.Column) + 0.5 - w.ColumnCenterFrac*scale)
	dx = math.Mod(dx, n)
	dx = math.Min(dx, n-dx)
	dy := float64(a.Row) + 0.5 - w.RowCenterFrac*scale

	return math.Hypot(dx, dy)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
