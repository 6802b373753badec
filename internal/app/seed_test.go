package app

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaennil/guide_helper/backend/tileview/internal/pyramid"
	"github.com/jaennil/guide_helper/backend/tileview/internal/tileset"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/config"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
)

func newTileServer(t *testing.T, metadata string, missing string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	tile := buf.Bytes()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tileset.json":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, metadata)
		case missing:
			hits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		default:
			hits.Add(1)
			w.Write(tile)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func seedConfig(srv *httptest.Server, dir string) *config.Config {
	return &config.Config{
		Tileset: config.Tileset{URL: srv.URL + "/tileset.json"},
		Fetch:   config.Fetch{Timeout: 5 * time.Second, CoolDown: time.Second},
		Pool:    config.Pool{Workers: 3},
		Store:   config.Store{Type: "file", FileDir: dir},
	}
}

func TestSeed(t *testing.T) {
	srv, hits := newTileServer(t, `{"tiles":["tiles/{z}/{x}/{y}.png"],"maxzoom":2}`, "")
	cfg := seedConfig(srv, t.TempDir())
	opts := SeedOptions{MinZoom: 0, MaxZoom: 5, Progress: io.Discard}

	res, err := seed(context.Background(), cfg, opts, logger.NewNop())
	require.NoError(t, err)
	// maxzoom clamps the request to 1 + 4 + 16 tiles
	assert.Equal(t, SeedResult{Tiles: 21}, res)
	assert.Equal(t, int32(21), hits.Load())

	// a second run is served from the store
	res, err = seed(context.Background(), cfg, opts, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Tiles: 21}, res)
	assert.Equal(t, int32(21), hits.Load())
}

func TestSeed_CountsFailures(t *testing.T) {
	srv, _ := newTileServer(t, `{"tiles":["/tiles/{z}/{x}/{y}.png"],"maxzoom":1}`, "/tiles/1/1/0.png")
	cfg := seedConfig(srv, t.TempDir())

	res, err := seed(context.Background(), cfg, SeedOptions{MinZoom: 1, MaxZoom: 1, Progress: io.Discard}, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Tiles: 4, Failed: 1}, res)
}

func TestSeed_RejectsVolatileStore(t *testing.T) {
	srv, hits := newTileServer(t, `{"tiles":["tiles/{z}/{x}/{y}.png"]}`, "")
	cfg := seedConfig(srv, t.TempDir())
	cfg.Store.Type = "memory"

	_, err := seed(context.Background(), cfg, SeedOptions{MaxZoom: 1, Progress: io.Discard}, logger.NewNop())
	require.Error(t, err)
	assert.Zero(t, hits.Load())
}

func TestSeed_InvalidMetadata(t *testing.T) {
	srv, _ := newTileServer(t, `{"tiles":[]}`, "")
	cfg := seedConfig(srv, t.TempDir())

	_, err := seed(context.Background(), cfg, SeedOptions{MaxZoom: 1, Progress: io.Discard}, logger.NewNop())
	require.ErrorIs(t, err, tileset.ErrInvalidMetadata)
}

func TestSeedOrder_HilbertAdjacency(t *testing.T) {
	ts, err := tileset.New(tileset.Metadata{Tiles: []string{"https://t/{z}/{x}/{y}.png"}})
	require.NoError(t, err)

	addrs, err := seedOrder(ts, 3)
	require.NoError(t, err)
	require.Len(t, addrs, 64)

	seen := make(map[pyramid.Address]bool)
	for i, a := range addrs {
		require.False(t, seen[a], "duplicate %s", a)
		seen[a] = true
		if i == 0 {
			continue
		}
		prev := addrs[i-1]
		dist := abs(a.Column-prev.Column) + abs(a.Row-prev.Row)
		assert.Equal(t, 1, dist, "%s follows %s", a, prev)
	}
}

func TestSeedOrder_DataBounds(t *testing.T) {
	ts, err := tileset.New(tileset.Metadata{
		Tiles:  []string{"https://t/{z}/{x}/{y}.png"},
		Bounds: []float64{10, 10, 170, 80},
	})
	require.NoError(t, err)

	addrs, err := seedOrder(ts, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []pyramid.Address{
		{Zoom: 2, Column: 2, Row: 0},
		{Zoom: 2, Column: 3, Row: 0},
		{Zoom: 2, Column: 2, Row: 1},
		{Zoom: 2, Column: 3, Row: 1},
	}, addrs)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
