package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/tileview/internal/repository/tilestore"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher_Success(t *testing.T) {
	var gotUA, gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte("tile"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Config{UserAgent: "tileview-test", Referer: "https://example.com"}, logger.NewNop())
	data, err := f.Fetch(context.Background(), srv.URL+"/1/0/0.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("tile"), data)
	assert.Equal(t, "tileview-test", gotUA)
	assert.Equal(t, "https://example.com", gotReferer)
}

func TestHTTPFetcher_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Config{}, logger.NewNop())
	_, err := f.Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrStatus)
	assert.NotErrorIs(t, err, ErrNetwork)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestHTTPFetcher_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher(Config{}, logger.NewNop())
	_, err := f.Fetch(context.Background(), url)
	require.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrStatus)
}

func TestHTTPFetcher_Cancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	f := NewHTTPFetcher(Config{}, logger.NewNop())
	_, err := f.Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrNetwork)
}

type countingFetcher struct {
	calls atomic.Int32
	data  []byte
	err   error
}

func (f *countingFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	return f.data, f.err
}

func TestCachingFetcher_ReadThrough(t *testing.T) {
	upstream := &countingFetcher{data: []byte("tile")}
	store := tilestore.NewMapStore()
	f := NewCachingFetcher(upstream, store, logger.NewNop())

	for range 3 {
		data, err := f.Fetch(context.Background(), "https://t/1/0/0.png")
		require.NoError(t, err)
		assert.Equal(t, []byte("tile"), data)
	}
	assert.Equal(t, int32(1), upstream.calls.Load())

	stored, ok, err := store.Get(context.Background(), "https://t/1/0/0.png")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("tile"), stored)
}

func TestCachingFetcher_FailureNotStored(t *testing.T) {
	upstream := &countingFetcher{err: &StatusError{URL: "u", Code: http.StatusNotFound}}
	store := tilestore.NewMapStore()
	f := NewCachingFetcher(upstream, store, logger.NewNop())

	_, err := f.Fetch(context.Background(), "u")
	require.ErrorIs(t, err, ErrStatus)

	_, ok, err := store.Get(context.Background(), "u")
	require.NoError(t, err)
	assert.False(t, ok)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}
func (brokenStore) Set(context.Context, string, []byte) error { return errors.New("disk on fire") }
func (brokenStore) Close() error                              { return nil }

func TestCachingFetcher_StoreErrorsIgnored(t *testing.T) {
	upstream := &countingFetcher{data: []byte("tile")}
	f := NewCachingFetcher(upstream, brokenStore{}, logger.NewNop())

	data, err := f.Fetch(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, []byte("tile"), data)
}
