// Package tilecache decides, frame by frame, which tiles of a pyramid are
// drawn. It fetches and decodes missing tiles in the background, draws the
// nearest loaded ancestor while a tile is still loading, and drops tiles that
// left the view.
//
// A Cache is driven by one goroutine calling GetTilesToRender once per frame
// with a non-decreasing frame number. Fetch and decode chains settle on their
// own goroutines and signal Repaint when they do.
package tilecache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/tileview/internal/tileset"
	"github.com/jaennil/guide_helper/backend/tileview/internal/workerpool"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/telemetry"
)

const (
	DefaultCoolDown = 10 * time.Second
	DefaultTileSize = 256
	DefaultMaxCells = 4096
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Decoder turns raw tile bytes into a render payload. It runs on a pool
// worker; window is the view the tile was requested for.
type Decoder[W workerpool.Worker, P any] func(ctx context.Context, w W, window pyramid.ViewWindow, a pyramid.Address, raw []byte) (P, error)

// Tile is one entry of the render list.
type Tile[P any] struct {
	URL     string
	Address pyramid.Address
	Payload P
}

type Config struct {
	// CoolDown is how long a failed tile stays unavailable before it is
	// requested again.
	CoolDown time.Duration
	// TileSize is the nominal on-screen size of a tile in pixels.
	TileSize int
	// MaxCells bounds the number of cells a single window may need. Larger
	// windows render nothing.
	MaxCells int
}

type Option func(*options)

type options struct {
	now    func() time.Time
	tracer trace.Tracer
}

// WithClock replaces time.Now for cool-down bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

type Cache[W workerpool.Worker, P any] struct {
	id      string
	pool    *workerpool.Pool[W]
	fetcher Fetcher
	decode  Decoder[W, P]

	coolDown time.Duration
	tileSize int
	maxCells int
	now      func() time.Time
	tracer   trace.Tracer
	logger   logger.Logger

	repaint chan struct{}

	// inflight counts load goroutines that have not settled yet.
	inflight sync.WaitGroup

	mu       sync.Mutex
	tileset  *tileset.Tileset
	entries  map[pyramid.Address]*entry[P]
	disposed bool
}

func New[W workerpool.Worker, P any](pool *workerpool.Pool[W], fetcher Fetcher, decode Decoder[W, P], cfg Config, l logger.Logger, opts ...Option) *Cache[W, P] {
	o := options{
		now:    time.Now,
		tracer: telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	coolDown := cfg.CoolDown
	if coolDown <= 0 {
		coolDown = DefaultCoolDown
	}
	tileSize := cfg.TileSize
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	maxCells := cfg.MaxCells
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}

	id := uuid.NewString()
	c := &Cache[W, P]{
		id:       id,
		pool:     pool,
		fetcher:  fetcher,
		decode:   decode,
		coolDown: coolDown,
		tileSize: tileSize,
		maxCells: maxCells,
		now:      o.now,
		tracer:   o.tracer,
		logger:   logger.With(l, "cache_id", id),
		repaint:  make(chan struct{}, 1),
		entries:  make(map[pyramid.Address]*entry[P]),
	}

	c.logger.Info("tile cache created", "cool_down", coolDown, "workers", pool.Size())

	return c
}

// SetTileset installs the tileset to draw. Entries of a previous tileset are
// dropped and their requests cancelled. A nil tileset makes the cache inert.
func (c *Cache[W, P]) SetTileset(ts *tileset.Tileset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}

	c.clearLocked()
	c.tileset = ts

	if ts != nil {
		c.logger.Info("tileset installed", "name", ts.Name,
			"min_zoom", ts.MinZoom, "max_zoom", ts.MaxZoom, "templates", len(ts.Templates))
	}
}

func (c *Cache[W, P]) Tileset() *tileset.Tileset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tileset
}

// Repaint receives a value whenever a tile settled since the last receive.
func (c *Cache[W, P]) Repaint() <-chan struct{} {
	return c.repaint
}

func (c *Cache[W, P]) signalRepaint() {
	select {
	case c.repaint <- struct{}{}:
	default:
	}
}

type Stats struct {
	Pending     int `json:"pending"`
	Ready       int `json:"ready"`
	Unavailable int `json:"unavailable"`
}

func (s Stats) Total() int {
	return s.Pending + s.Ready + s.Unavailable
}

func (c *Cache[W, P]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statsLocked()
}

func (c *Cache[W, P]) statsLocked() Stats {
	var s Stats
	for _, e := range c.entries {
		switch e.state {
		case StatePending:
			s.Pending++
		case StateReady:
			s.Ready++
		case StateUnavailable:
			s.Unavailable++
		}
	}
	return s
}

// Dispose cancels every outstanding request and drops all entries. Later
// calls to GetTilesToRender return nil. The pool is not closed.
func (c *Cache[W, P]) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.disposed = true
	c.clearLocked()
	c.tileset = nil

	c.logger.Info("tile cache disposed")
}

// Wait blocks until every load the cache started has settled. After Dispose
// it returns once cancelled loads have unwound, so nothing writes through
// the fetcher any more.
func (c *Cache[W, P]) Wait() {
	c.inflight.Wait()
}

func (c *Cache[W, P]) clearLocked() {
	for key, e := range c.entries {
		if e.cancel != nil {
			e.cancel()
		}
		delete(c.entries, key)
	}
	recordEntries(Stats{})
}
