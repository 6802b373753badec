package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/tileview/internal/decode"
	"github.com/jaennil/guide_helper/backend/tileview/internal/fetch"
	v1 "github.com/jaennil/guide_helper/backend/tileview/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/tileview/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/tileview/internal/repository/tilestore"
	"github.com/jaennil/guide_helper/backend/tileview/internal/tilecache"
	"github.com/jaennil/guide_helper/backend/tileview/internal/tileset"
	"github.com/jaennil/guide_helper/backend/tileview/internal/usecase"
	"github.com/jaennil/guide_helper/backend/tileview/internal/workerpool"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/config"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/telemetry"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	l.Info("app config", "cfg", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithLogger(ctx, l)

	// Initialize OpenTelemetry if enabled
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	// Initialize the tile store
	store, err := tilestore.New(cfg.Store, l)
	if err != nil {
		l.Fatal("failed to initialize tile store", "error", err)
	}
	defer store.Close()

	httpFetcher := fetch.NewHTTPFetcher(fetch.Config{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
		Referer:   cfg.Fetch.Referer,
	}, l)
	tileFetcher := fetch.NewCachingFetcher(httpFetcher, store, l)

	pool, err := workerpool.New(cfg.Pool.Workers, decode.NewWorker)
	if err != nil {
		l.Fatal("failed to initialize decode pool", "error", err)
	}
	defer pool.Close()

	cache := tilecache.New(pool, tileFetcher, decode.Raster, tilecache.Config{
		CoolDown: cfg.Fetch.CoolDown,
		TileSize: cfg.View.TileSize,
		MaxCells: cfg.View.MaxCells,
	}, l)
	// loads still writing through the caching fetcher must finish before
	// the pool and the store close
	defer func() {
		cache.Dispose()
		cache.Wait()
		l.Info("tile loads drained")
	}()

	go watchTileset(ctx, httpFetcher, cache, cfg, l)

	viewerUseCase := usecase.NewViewerUseCase(cache, cfg.View.FrameInterval, cfg.View.MaxViewportPixels, l)
	go viewerUseCase.Run(ctx)

	// Initialize the HTTP handler
	validate := validator.New(validator.WithRequiredStructEnabled())
	h := handler.NewHandler(validate, viewerUseCase)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	httpServer := http_server.NewServer(ctx, cfg.HTTP.Server, router, l.StdLog())

	go func() {
		l.Info("starting http server...", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("http server failed", "error", err)
		}
		l.Info("http server stopped", "address", httpServer.Addr)
	}()

	<-ctx.Done()
	l.Info("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	l.Info("shutting down http server...", "address", httpServer.Addr)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Error("http server shutdown failed", "error", err)
	} else {
		l.Info("http_server shutdown completed")
	}

	l.Info("application shutdown completed")
}

// watchTileset loads the tileset metadata, retrying after the cool-down
// until it succeeds. The cache draws nothing until then.
func watchTileset(ctx context.Context, src tileset.Source, cache *tilecache.Cache[*decode.Worker, *decode.Image], cfg *config.Config, l logger.Logger) {
	for {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.Fetch.Timeout)
		ts, err := tileset.Load(loadCtx, src, cfg.Tileset.URL)
		cancel()
		if err == nil {
			cache.SetTileset(ts)
			return
		}

		l.Error("failed to load tileset", "url", cfg.Tileset.URL, "retry_in", cfg.Fetch.CoolDown, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(cfg.Fetch.CoolDown):
		}
	}
}
