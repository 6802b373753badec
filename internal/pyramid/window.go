package pyramid

import "math"

// Bounds is an axis-aligned rectangle in map units, Y growing north.
type Bounds struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

func (b Bounds) Empty() bool {
	return !(b.MaxX > b.MinX && b.MaxY > b.MinY)
}

func (b Bounds) Intersects(o Bounds) bool {
	return b.MinX < o.MaxX && o.MinX < b.MaxX && b.MinY < o.MaxY && o.MinY < b.MaxY
}

// ViewWindow is the rectangle of tiles a viewport needs at one zoom level.
// Columns may be unwrapped and rows may be out of range; the centre fields
// are fractional tile coordinates of the viewport centre.
type ViewWindow struct {
	Zoom             int
	ColumnMin        int
	ColumnMax        int
	ColumnCenterFrac float64
	RowMin           int
	RowMax           int
	RowCenterFrac    float64
}

// VisibleWindow projects viewport onto the tile grid of zoom. total is the
// extent of the root tile. Row 0 is the northernmost row.
func VisibleWindow(total, viewport Bounds, zoom int) ViewWindow {
	n := float64(GridSize(zoom))
	tileW := total.Width() / n
	tileH := total.Height() / n

	x0 := (viewport.MinX - total.MinX) / tileW
	x1 := (viewport.MaxX - total.MinX) / tileW
	y0 := (total.MaxY - viewport.MaxY) / tileH
	y1 := (total.MaxY - viewport.MinY) / tileH

	w := ViewWindow{
		Zoom:             zoom,
		ColumnMin:        int(math.Floor(x0)),
		ColumnMax:        int(math.Ceil(x1)) - 1,
		ColumnCenterFrac: (x0 + x1) / 2,
		RowMin:           int(math.Floor(y0)),
		RowMax:           int(math.Ceil(y1)) - 1,
		RowCenterFrac:    (y0 + y1) / 2,
	}
	if w.ColumnMax < w.ColumnMin {
		w.ColumnMax = w.ColumnMin
	}
	if w.RowMax < w.RowMin {
		w.RowMax = w.RowMin
	}
	return w
}

// VisibleColumns lists the window's columns in ascending order, skipping any
// column whose wrapped value was already listed. The returned values stay
// unwrapped.
func VisibleColumns(w ViewWindow) []int {
	n := GridSize(w.Zoom)
	seen := make(map[int]struct{}, min(n, w.ColumnMax-w.ColumnMin+1))
	var cols []int
	for c := w.ColumnMin; c <= w.ColumnMax && len(cols) < n; c++ {
		wc := WrapColumn(c, w.Zoom)
		if _, ok := seen[wc]; ok {
			continue
		}
		seen[wc] = struct{}{}
		cols = append(cols, c)
	}
	return cols
}

// CellCount is the number of cells VisibleColumns and VisibleRows yield for
// w, computed without listing them.
func CellCount(w ViewWindow) int {
	n := GridSize(w.Zoom)
	cols := min(w.ColumnMax-w.ColumnMin+1, n)
	rows := min(w.RowMax, n-1) - max(w.RowMin, 0) + 1
	if cols <= 0 || rows <= 0 {
		return 0
	}
	return cols * rows
}

// VisibleRows lists the window's rows clamped to [0, 2^zoom).
func VisibleRows(w ViewWindow) []int {
	lo := max(w.RowMin, 0)
	hi := min(w.RowMax, GridSize(w.Zoom)-1)
	if hi < lo {
		return nil
	}
	rows := make([]int, 0, hi-lo+1)
	for r := lo; r <= hi; r++ {
		rows = append(rows, r)
	}
	return rows
}

// TileBounds is the map-unit rectangle covered by a, given the root extent.
func TileBounds(total Bounds, a Address) Bounds {
	n := float64(GridSize(a.Zoom))
	tileW := total.Width() / n
	tileH := total.Height() / n
	return Bounds{
		MinX: total.MinX + float64(a.Column)*tileW,
		MaxX: total.MinX + float64(a.Column+1)*tileW,
		MaxY: total.MaxY - float64(a.Row)*tileH,
		MinY: total.MaxY - float64(a.Row+1)*tileH,
	}
}
