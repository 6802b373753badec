// Package pyramid holds the pure quad-tree math of a tile pyramid: tile
// addresses and their ancestors, fetch priorities and the projection of a
// viewport rectangle onto the tile grid of one zoom level.
package pyramid

import (
	"fmt"
	"strings"
)

// Address identifies a tile. Column may lie outside [0, 2^Zoom) when the view
// spans more than one copy of the world; it is kept unwrapped so that every
// copy is addressed separately.
type Address struct {
	Zoom   int
	Column int
	Row    int
}

func (a Address) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Zoom, a.Column, a.Row)
}

// Parent is the tile one level coarser covering a. Column and row are halved
// with floor division, so negative columns stay in their world copy.
func (a Address) Parent() Address {
	return Address{
		Zoom:   a.Zoom - 1,
		Column: a.Column >> 1,
		Row:    a.Row >> 1,
	}
}

// Wrapped returns a with its column folded into [0, 2^Zoom).
func (a Address) Wrapped() Address {
	a.Column = WrapColumn(a.Column, a.Zoom)
	return a
}

// Valid reports whether the wrapped address exists in the pyramid.
func (a Address) Valid() bool {
	return a.Zoom >= 0 && a.Zoom < 31 && a.Row >= 0 && a.Row < GridSize(a.Zoom)
}

// GridSize is the number of columns (and rows) at zoom.
func GridSize(zoom int) int {
	return 1 << zoom
}

// WrapColumn folds column into [0, 2^zoom).
func WrapColumn(column, zoom int) int {
	n := GridSize(zoom)
	m := column % n
	if m < 0 {
		m += n
	}
	return m
}

// AncestorChain returns a followed by each coarser tile covering it, ending
// at zoom 0. The chain has a.Zoom+1 elements; no wraparound is applied.
func AncestorChain(a Address) []Address {
	if a.Zoom < 0 {
		return nil
	}
	chain := make([]Address, 0, a.Zoom+1)
	for {
		chain = append(chain, a)
		if a.Zoom == 0 {
			return chain
		}
		a = a.Parent()
	}
}

// Quadkey is the Bing-style quadtree key of the wrapped address.
func Quadkey(a Address) string {
	a = a.Wrapped()
	var sb strings.Builder
	sb.Grow(a.Zoom)
	for i := a.Zoom; i > 0; i-- {
		digit := byte('0')
		mask := 1 << (i - 1)
		if a.Column&mask != 0 {
			digit++
		}
		if a.Row&mask != 0 {
			digit += 2
		}
		sb.WriteByte(digit)
	}
	return sb.String()
}
