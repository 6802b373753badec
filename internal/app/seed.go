package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/google/hilbert"
	"github.com/schollz/progressbar/v3"

	"github.com/jaennil/guide_helper/backend/tileview/internal/decode"
	"github.com/jaennil/guide_helper/backend/tileview/internal/fetch"
	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/tileview/internal/repository/tilestore"
	"github.com/jaennil/guide_helper/backend/tileview/internal/tileset"
	"github.com/jaennil/guide_helper/backend/tileview/internal/workerpool"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/config"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
)

type SeedOptions struct {
	MinZoom int
	MaxZoom int
	// Progress receives the progress bar; nil means stderr.
	Progress io.Writer
}

type SeedResult struct {
	Tiles  int
	Failed int
}

// Seed fetches every tile of the tileset's data bounds between the given
// zoom levels into the configured tile store.
func Seed(cfg *config.Config, opts SeedOptions) (SeedResult, error) {
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return seed(ctx, cfg, opts, l)
}

func seed(ctx context.Context, cfg *config.Config, opts SeedOptions, l logger.Logger) (SeedResult, error) {
	var res SeedResult

	if cfg.Store.Type == "disabled" || cfg.Store.Type == "memory" {
		return res, fmt.Errorf("seeding needs a persistent store, got %q", cfg.Store.Type)
	}

	store, err := tilestore.New(cfg.Store, l)
	if err != nil {
		return res, fmt.Errorf("failed to initialize tile store: %w", err)
	}
	defer store.Close()

	httpFetcher := fetch.NewHTTPFetcher(fetch.Config{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
		Referer:   cfg.Fetch.Referer,
	}, l)

	ts, err := tileset.Load(ctx, httpFetcher, cfg.Tileset.URL)
	if err != nil {
		return res, err
	}

	minZoom := ts.ClampZoom(opts.MinZoom)
	maxZoom := ts.ClampZoom(opts.MaxZoom)
	if minZoom > maxZoom {
		return res, fmt.Errorf("min zoom %d is above max zoom %d", minZoom, maxZoom)
	}

	var addrs []pyramid.Address
	for z := minZoom; z <= maxZoom; z++ {
		zoomAddrs, err := seedOrder(ts, z)
		if err != nil {
			return res, err
		}
		addrs = append(addrs, zoomAddrs...)
	}

	l.Info("seeding tiles", "url", cfg.Tileset.URL, "min_zoom", minZoom, "max_zoom", maxZoom, "tiles", len(addrs))

	pool, err := workerpool.New(cfg.Pool.Workers, decode.NewWorker)
	if err != nil {
		return res, err
	}
	defer pool.Close()

	progress := opts.Progress
	if progress == nil {
		progress = os.Stderr
	}
	bar := progressbar.NewOptions(len(addrs),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription("seeding"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
	)

	tileFetcher := fetch.NewCachingFetcher(httpFetcher, store, l)

	futures := make([]*workerpool.Future[struct{}], 0, len(addrs))
	for _, a := range addrs {
		url := ts.URL(a)
		f, err := workerpool.Submit(ctx, pool, func(ctx context.Context, _ *decode.Worker) (struct{}, error) {
			defer bar.Add(1)
			raw, err := tileFetcher.Fetch(ctx, url)
			if err != nil {
				return struct{}{}, err
			}
			if _, _, err := decode.Config(raw); err != nil {
				return struct{}{}, fmt.Errorf("tile %s: %w", a, err)
			}
			return struct{}{}, nil
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			return res, err
		}
		futures = append(futures, f)
	}

	for _, f := range futures {
		res.Tiles++
		if _, err := f.Wait(context.WithoutCancel(ctx)); err != nil {
			res.Failed++
			l.Warn("failed to seed tile", "error", err)
		}
	}

	bar.Finish()
	fmt.Fprintln(progress)

	l.Info("seeding finished", "tiles", res.Tiles, "failed", res.Failed)

	return res, ctx.Err()
}

// seedOrder lists the tiles of ts's data bounds at zoom z along a Hilbert
// curve, so neighbouring requests hit neighbouring tiles.
func seedOrder(ts *tileset.Tileset, z int) ([]pyramid.Address, error) {
	w := pyramid.VisibleWindow(ts.Extent, ts.DataBounds, z)
	n := pyramid.GridSize(z)

	h, err := hilbert.NewHilbert(n)
	if err != nil {
		return nil, err
	}

	type ordered struct {
		addr pyramid.Address
		code int
	}

	var tiles []ordered
	for _, row := range pyramid.VisibleRows(w) {
		for col := max(w.ColumnMin, 0); col <= min(w.ColumnMax, n-1); col++ {
			a := pyramid.Address{Zoom: z, Column: col, Row: row}
			if !ts.Covers(a) {
				continue
			}
			code, err := h.MapInverse(col, row)
			if err != nil {
				return nil, err
			}
			tiles = append(tiles, ordered{addr: a, code: code})
		}
	}

	slices.SortFunc(tiles, func(a, b ordered) int {
		return cmp.Compare(a.code, b.code)
	})

	addrs := make([]pyramid.Address, len(tiles))
	for i, t := range tiles {
		addrs[i] = t.addr
	}
	return addrs, nil
}
