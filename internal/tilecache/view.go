package tilecache

import (
	"github.com/jaennil/guide_helper/backend/tileview/internal/lod"
	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
)

// SelectZoom picks the zoom level for a view of scale map units per pixel.
// It reports false while no tileset is installed.
func (c *Cache[W, P]) SelectZoom(scale float64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sel, ok := c.selectorLocked()
	if !ok {
		return 0, false
	}
	return sel.Select(scale), true
}

// Window projects viewport onto the grid of the zoom level chosen for scale.
func (c *Cache[W, P]) Window(viewport pyramid.Bounds, scale float64) (pyramid.ViewWindow, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sel, ok := c.selectorLocked()
	if !ok || viewport.Empty() {
		return pyramid.ViewWindow{}, false
	}
	return pyramid.VisibleWindow(c.tileset.Extent, viewport, sel.Select(scale)), true
}

func (c *Cache[W, P]) selectorLocked() (lod.Selector, bool) {
	if c.disposed || c.tileset == nil {
		return lod.Selector{}, false
	}
	return lod.Selector{
		Footprint: lod.RootFootprint(c.tileset.Extent, c.tileSize),
		MinZoom:   c.tileset.MinZoom,
		MaxZoom:   c.tileset.MaxZoom,
	}, true
}
