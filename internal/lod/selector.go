// Package lod picks the zoom level to render for the current view resolution.
package lod

import (
	"math"

	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
)

// Selector maps a view scale (map units per screen pixel) to a zoom level in
// [MinZoom, MaxZoom]. Footprint is the scale at which the root tile is shown
// at its nominal pixel size.
type Selector struct {
	Footprint float64
	MinZoom   int
	MaxZoom   int
}

// RootFootprint is the map units per pixel of a root tile covering total and
// drawn tileSize pixels wide.
func RootFootprint(total pyramid.Bounds, tileSize int) float64 {
	return total.Width() / float64(tileSize)
}

// Select returns round(log2(Footprint/scale)) clamped into range. A larger
// scale (zooming out) never selects a higher level. A non-positive scale
// selects MaxZoom and NaN selects MinZoom.
func (s Selector) Select(scale float64) int {
	switch {
	case math.IsNaN(scale):
		return s.MinZoom
	case scale <= 0:
		return s.MaxZoom
	}

	z := math.Round(math.Log2(s.Footprint / scale))
	if math.IsNaN(z) || z < float64(s.MinZoom) {
		return s.MinZoom
	}
	if z > float64(s.MaxZoom) {
		return s.MaxZoom
	}
	return int(z)
}
