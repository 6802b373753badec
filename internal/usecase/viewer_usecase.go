package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jaennil/guide_helper/backend/tileview/internal/decode"
	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/tileview/internal/tilecache"
	"github.com/jaennil/guide_helper/backend/tileview/internal/tileset"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
)

// DefaultMaxViewportPixels bounds each side of a viewport, in pixels.
const DefaultMaxViewportPixels = 8192

var (
	ErrInvalidViewport = errors.New("viewport must have positive size and scale")
	ErrNoViewport      = errors.New("no viewport set")
	ErrNoTileset       = errors.New("no tileset loaded")
	ErrNoFrame         = errors.New("no frame rendered yet")
)

type TileCache interface {
	GetTilesToRender(frame uint64, window pyramid.ViewWindow) []tilecache.Tile[*decode.Image]
	Window(viewport pyramid.Bounds, scale float64) (pyramid.ViewWindow, bool)
	Repaint() <-chan struct{}
	Stats() tilecache.Stats
	Tileset() *tileset.Tileset
}

// Viewport is the visible map rectangle and its resolution in map units per
// pixel.
type Viewport struct {
	Bounds pyramid.Bounds
	Scale  float64
}

type Frame struct {
	Number     uint64
	Window     pyramid.ViewWindow
	Tiles      []tilecache.Tile[*decode.Image]
	Stats      tilecache.Stats
	RenderedAt time.Time
}

type ViewerUseCase struct {
	cache     TileCache
	interval  time.Duration
	maxPixels int
	logger    logger.Logger

	kick chan struct{}

	mu       sync.RWMutex
	viewport *Viewport
	frame    uint64
	last     *Frame
}

// NewViewerUseCase renders frames of cache every interval. Viewports larger
// than maxPixels on either side are refused; zero selects
// DefaultMaxViewportPixels.
func NewViewerUseCase(cache TileCache, interval time.Duration, maxPixels int, l logger.Logger) *ViewerUseCase {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxViewportPixels
	}
	return &ViewerUseCase{
		cache:     cache,
		interval:  interval,
		maxPixels: maxPixels,
		logger:    l,
		kick:      make(chan struct{}, 1),
	}
}

func (uc *ViewerUseCase) SetViewport(v Viewport) error {
	if v.Bounds.Empty() || !(v.Scale > 0) || math.IsInf(v.Scale, 0) {
		return ErrInvalidViewport
	}
	limit := float64(uc.maxPixels)
	width, height := v.Bounds.Width()/v.Scale, v.Bounds.Height()/v.Scale
	if !(width <= limit) || !(height <= limit) {
		return fmt.Errorf("%w: %.0fx%.0f px exceeds %d px per side", ErrInvalidViewport, width, height, uc.maxPixels)
	}

	uc.mu.Lock()
	uc.viewport = &v
	uc.mu.Unlock()

	uc.logger.Debug("viewport set", "bounds", v.Bounds, "scale", v.Scale)

	select {
	case uc.kick <- struct{}{}:
	default:
	}
	return nil
}

func (uc *ViewerUseCase) Viewport() (Viewport, bool) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if uc.viewport == nil {
		return Viewport{}, false
	}
	return *uc.viewport, true
}

func (uc *ViewerUseCase) Tileset() (*tileset.Tileset, error) {
	ts := uc.cache.Tileset()
	if ts == nil {
		return nil, ErrNoTileset
	}
	return ts, nil
}

// Render computes the next frame for the current viewport. Only the frame
// loop calls it, so frame numbers reach the cache in order.
func (uc *ViewerUseCase) Render() (Frame, error) {
	v, ok := uc.Viewport()
	if !ok {
		return Frame{}, ErrNoViewport
	}

	window, ok := uc.cache.Window(v.Bounds, v.Scale)
	if !ok {
		return Frame{}, ErrNoTileset
	}

	uc.mu.Lock()
	uc.frame++
	number := uc.frame
	uc.mu.Unlock()

	f := Frame{
		Number:     number,
		Window:     window,
		Tiles:      uc.cache.GetTilesToRender(number, window),
		Stats:      uc.cache.Stats(),
		RenderedAt: time.Now(),
	}

	uc.mu.Lock()
	uc.last = &f
	uc.mu.Unlock()

	return f, nil
}

func (uc *ViewerUseCase) LastFrame() (Frame, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if uc.last == nil {
		return Frame{}, ErrNoFrame
	}
	return *uc.last, nil
}

// Run renders a frame every interval, whenever the viewport changes and
// whenever the cache reports settled tiles, until ctx is done.
func (uc *ViewerUseCase) Run(ctx context.Context) {
	ticker := time.NewTicker(uc.interval)
	defer ticker.Stop()

	uc.logger.Info("frame loop started", "interval", uc.interval)

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("frame loop stopped")
			return
		case <-ticker.C:
		case <-uc.kick:
		case <-uc.cache.Repaint():
		}

		f, err := uc.Render()
		if err != nil {
			if !errors.Is(err, ErrNoViewport) && !errors.Is(err, ErrNoTileset) {
				uc.logger.Warn("failed to render frame", "error", err)
			}
			continue
		}

		uc.logger.Debug("frame rendered", "frame", f.Number, "zoom", f.Window.Zoom,
			"tiles", len(f.Tiles), "pending", f.Stats.Pending)
	}
}
