package tilecache

import (
	"cmp"
	"slices"
	"time"

	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/metrics"
)

// GetTilesToRender returns the tiles to draw for window at frame, coarsest
// first. Missing tiles are scheduled in the background; until they settle
// their nearest loaded ancestor is returned instead. Entries the window no
// longer needs are evicted and their requests cancelled. A window needing
// more than Config.MaxCells cells renders nothing and touches no entry.
func (c *Cache[W, P]) GetTilesToRender(frame uint64, window pyramid.ViewWindow) []Tile[P] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || c.tileset == nil {
		return nil
	}
	if n := pyramid.CellCount(window); n > c.maxCells {
		c.logger.Warn("window needs too many tiles, frame skipped", "frame", frame,
			"zoom", window.Zoom, "cells", n, "max_cells", c.maxCells)
		return nil
	}

	now := c.now()
	cells := c.needSetLocked(window)

	work := c.gapFillLocked(cells, window, now)
	for _, a := range work {
		c.scheduleLocked(frame, window, a)
	}

	// select
	chosen := make(map[pyramid.Address]*entry[P])
	for _, cell := range cells {
		found := false
		for _, a := range c.chainLocked(cell) {
			e, ok := c.entries[a]
			if !ok || e.state == StateUnavailable {
				continue
			}
			e.lastNeeded = frame
			if !found && e.state == StateReady {
				chosen[a] = e
				found = true
			}
		}
	}

	c.evictLocked(frame, now)

	tiles := make([]Tile[P], 0, len(chosen))
	for _, e := range chosen {
		tiles = append(tiles, Tile[P]{URL: e.url, Address: e.addr, Payload: e.payload})
	}
	slices.SortFunc(tiles, func(a, b Tile[P]) int {
		return compareAddress(a.Address, b.Address)
	})

	metrics.FramesRendered.Inc()
	metrics.BusyWorkers.Set(float64(c.pool.Busy()))
	recordEntries(c.statsLocked())

	if len(work) > 0 {
		c.logger.Debug("frame scheduled tiles", "frame", frame,
			"zoom", window.Zoom, "scheduled", len(work), "rendered", len(tiles))
	}

	return tiles
}

// needSetLocked lists the cells of window that hold data, with unwrapped
// columns whose wrapped values are distinct.
func (c *Cache[W, P]) needSetLocked(window pyramid.ViewWindow) []pyramid.Address {
	cols := pyramid.VisibleColumns(window)
	rows := pyramid.VisibleRows(window)

	cells := make([]pyramid.Address, 0, len(cols)*len(rows))
	for _, row := range rows {
		for _, col := range cols {
			a := pyramid.Address{Zoom: window.Zoom, Column: col, Row: row}
			if !c.tileset.Covers(a) {
				continue
			}
			cells = append(cells, a)
		}
	}
	return cells
}

// gapFillLocked lists, in fetch order, every address on the ancestor chains of
// cells that has no entry or whose entry has finished its cool-down.
func (c *Cache[W, P]) gapFillLocked(cells []pyramid.Address, window pyramid.ViewWindow, now time.Time) []pyramid.Address {
	seen := make(map[pyramid.Address]struct{})
	var work []pyramid.Address
	for _, cell := range cells {
		for _, a := range c.chainLocked(cell) {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			if e, ok := c.entries[a]; ok && !e.expired(now) {
				continue
			}
			work = append(work, a)
		}
	}

	slices.SortStableFunc(work, func(a, b pyramid.Address) int {
		return pyramid.CompareGrid(a, b, window)
	})
	return work
}

// chainLocked is the ancestor chain of a restricted to the tileset's zoom
// range.
func (c *Cache[W, P]) chainLocked(a pyramid.Address) []pyramid.Address {
	chain := pyramid.AncestorChain(a)
	return slices.DeleteFunc(chain, func(x pyramid.Address) bool {
		return x.Zoom < c.tileset.MinZoom || x.Zoom > c.tileset.MaxZoom
	})
}

func (c *Cache[W, P]) evictLocked(frame uint64, now time.Time) {
	for key, e := range c.entries {
		switch e.state {
		case StatePending:
			if e.lastNeeded >= frame {
				continue
			}
			e.cancel()
			metrics.TileCancellations.Inc()
		case StateReady:
			if e.lastNeeded >= frame {
				continue
			}
		case StateUnavailable:
			if !e.expired(now) {
				continue
			}
		}
		delete(c.entries, key)
		metrics.TileEvictions.WithLabelValues(e.state.String()).Inc()
	}
}

func compareAddress(a, b pyramid.Address) int {
	return cmp.Or(
		cmp.Compare(a.Zoom, b.Zoom),
		cmp.Compare(a.Row, b.Row),
		cmp.Compare(a.Column, b.Column),
	)
}

func recordEntries(s Stats) {
	metrics.TileEntries.WithLabelValues(StatePending.String()).Set(float64(s.Pending))
	metrics.TileEntries.WithLabelValues(StateReady.String()).Set(float64(s.Ready))
	metrics.TileEntries.WithLabelValues(StateUnavailable.String()).Set(float64(s.Unavailable))
}
