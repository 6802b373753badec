package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("LOGGER_LEVEL", "debug")
	t.Setenv("TILESET_URL", "https://tiles.example/tiles.json")
}

func TestNewDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "8080", cfg.HTTP.Server.Port)
	assert.Equal(t, 8192, cfg.View.MaxViewportPixels)
	assert.Equal(t, 4096, cfg.View.MaxCells)
	assert.Equal(t, 10*time.Second, cfg.Fetch.CoolDown)
}

func TestNewOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("VIEW_MAX_VIEWPORT_PIXELS", "2048")
	t.Setenv("VIEW_MAX_CELLS", "512")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 2048, cfg.View.MaxViewportPixels)
	assert.Equal(t, 512, cfg.View.MaxCells)
}
