package tilecache

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaennil/guide_helper/backend/tileview/internal/fetch"
	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/tileview/internal/workerpool"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/metrics"
)

// scheduleLocked creates a Pending entry for a and starts loading it.
func (c *Cache[W, P]) scheduleLocked(frame uint64, window pyramid.ViewWindow, a pyramid.Address) {
	ctx, cancel := context.WithCancel(context.Background())
	e := &entry[P]{
		state:      StatePending,
		url:        c.tileset.URL(a),
		addr:       a,
		lastNeeded: frame,
		cancel:     cancel,
	}
	c.entries[a] = e

	metrics.TileFetches.Inc()
	c.inflight.Add(1)
	go c.load(ctx, e, window)
}

// load fetches and decodes e. Every suspension point is followed by a check
// of ctx, which is cancelled when e is evicted.
func (c *Cache[W, P]) load(ctx context.Context, e *entry[P], window pyramid.ViewWindow) {
	defer c.inflight.Done()
	defer c.signalRepaint()

	ctx, span := c.tracer.Start(ctx, "tilecache.load", trace.WithAttributes(
		attribute.String("cache.id", c.id),
		attribute.String("tile.url", e.url),
		attribute.Int("tile.z", e.addr.Zoom),
		attribute.Int("tile.x", e.addr.Column),
		attribute.Int("tile.y", e.addr.Row),
	))
	defer span.End()

	raw, err := c.fetcher.Fetch(ctx, e.url)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		c.fail(span, e, "fetch", err)
		return
	}

	future, err := workerpool.Submit(ctx, c.pool, func(ctx context.Context, w W) (P, error) {
		ctx, decodeSpan := c.tracer.Start(ctx, "tilecache.decode")
		defer decodeSpan.End()
		return c.decode(ctx, w, window, e.addr, raw)
	})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		c.fail(span, e, "decode", err)
		return
	}

	payload, err := future.Wait(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		c.fail(span, e, "decode", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[e.addr] != e {
		return
	}
	e.cancel()
	e.state = StateReady
	e.payload = payload
	e.cancel = nil
	span.SetAttributes(attribute.Int("tile.bytes", len(raw)))
}

// fail marks e unavailable for the cool-down, unless it was evicted meanwhile.
func (c *Cache[W, P]) fail(span trace.Span, e *entry[P], stage string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage+" failed")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[e.addr] != e {
		return
	}

	e.cancel()
	e.state = StateUnavailable
	e.retryAfter = c.now().Add(c.coolDown)
	e.cancel = nil

	kind := failureKind(stage, err)
	metrics.TileFailures.WithLabelValues(kind).Inc()
	c.logger.Warn("tile unavailable", "tile", e.addr.String(), "url", e.url,
		"kind", kind, "retry_after", e.retryAfter, "error", err)
}

func failureKind(stage string, err error) string {
	switch {
	case errors.Is(err, fetch.ErrStatus):
		return "status"
	case errors.Is(err, fetch.ErrNetwork):
		return "network"
	case errors.Is(err, workerpool.ErrWorkerTerminated):
		return "worker_terminated"
	case errors.Is(err, workerpool.ErrPoolClosed):
		return "pool_closed"
	case errors.Is(err, workerpool.ErrNoWorkers):
		return "no_workers"
	default:
		return stage
	}
}
