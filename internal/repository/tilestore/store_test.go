package tilestore

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/jaennil/guide_helper/backend/tileview/pkg/config"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeContract(t *testing.T, s TileStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "https://tiles.example.com/1/0/0.png")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "https://tiles.example.com/1/0/0.png", []byte("first")))
	data, ok, err := s.Get(ctx, "https://tiles.example.com/1/0/0.png")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("first"), data)

	require.NoError(t, s.Set(ctx, "https://tiles.example.com/1/0/0.png", []byte("second")))
	data, ok, err = s.Get(ctx, "https://tiles.example.com/1/0/0.png")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), data)

	_, ok, err = s.Get(ctx, "https://tiles.example.com/1/0/1.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMapStore(t *testing.T) {
	storeContract(t, NewMapStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "tiles.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	storeContract(t, s)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.db")

	s, err := NewSQLiteStore(path, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "u", []byte{1, 2, 3}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	data, ok, err := s.Get(context.Background(), "u")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestFilesystemStore(t *testing.T) {
	s, err := NewFilesystemStore(filepath.Join(t.TempDir(), "tiles"))
	require.NoError(t, err)

	storeContract(t, s)
}

func TestFilesystemStore_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFilesystemStore(dir)
	require.NoError(t, err)

	for i := range 10 {
		require.NoError(t, s.Set(context.Background(), "u"+strconv.Itoa(i), []byte("x")))
	}

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		assert.NotContains(t, filepath.Base(path), ".tile-")
		return nil
	})
	require.NoError(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TILESTORE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TILESTORE_TEST_REDIS_ADDR not set")
	}

	s, err := NewRedisStore(RedisConfig{Addr: addr, DB: 15, TTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() {
		s.client.FlushDB(context.Background())
		s.Close()
	})

	storeContract(t, s)
}

func TestNoopStore(t *testing.T) {
	s := NewNoopStore()
	require.NoError(t, s.Set(context.Background(), "u", []byte("x")))

	_, ok, err := s.Get(context.Background(), "u")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.Store
		want    any
		wantErr bool
	}{
		{name: "memory", cfg: config.Store{Type: "memory"}, want: &MapStore{}},
		{name: "disabled", cfg: config.Store{Type: "disabled"}, want: &NoopStore{}},
		{name: "file", cfg: config.Store{Type: "file", FileDir: filepath.Join(dir, "f")}, want: &FilesystemStore{}},
		{name: "sqlite", cfg: config.Store{Type: "sqlite", SQLitePath: filepath.Join(dir, "s.db")}, want: &SQLiteStore{}},
		{name: "unknown", cfg: config.Store{Type: "s3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg, logger.NewNop())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			assert.IsType(t, tt.want, s)
		})
	}
}
