package fetch

import (
	"context"

	"github.com/jaennil/guide_helper/backend/tileview/internal/repository/tilestore"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/metrics"
)

// CachingFetcher reads through a tile store before asking upstream and
// stores every upstream success. Store failures never fail a fetch.
type CachingFetcher struct {
	upstream Fetcher
	store    tilestore.TileStore
	logger   logger.Logger
}

func NewCachingFetcher(upstream Fetcher, store tilestore.TileStore, l logger.Logger) *CachingFetcher {
	return &CachingFetcher{
		upstream: upstream,
		store:    store,
		logger:   l,
	}
}

var _ Fetcher = (*CachingFetcher)(nil)

func (f *CachingFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	data, ok, err := f.store.Get(ctx, url)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("get").Inc()
		f.logger.Warn("failed to check tile store, will fetch from upstream", "url", url, "error", err)
	} else if ok {
		metrics.StoreHits.Inc()
		f.logger.Debug("store hit", "url", url, "size", len(data))
		return data, nil
	} else {
		metrics.StoreMisses.Inc()
	}

	data, err = f.upstream.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := f.store.Set(context.WithoutCancel(ctx), url, data); err != nil {
		metrics.StoreErrors.WithLabelValues("set").Inc()
		f.logger.Warn("failed to store tile", "url", url, "error", err)
	} else {
		metrics.StoreStores.Inc()
	}

	return data, nil
}
