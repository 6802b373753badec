package tilestore

import (
	"fmt"

	"github.com/jaennil/guide_helper/backend/tileview/pkg/config"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
)

// New creates a tile store based on the configured store type
func New(cfg config.Store, l logger.Logger) (TileStore, error) {
	switch cfg.Type {
	case "memory":
		l.Info("using memory tile store")
		return NewMapStore(), nil
	case "sqlite":
		l.Info("using sqlite tile store", "path", cfg.SQLitePath)
		return NewSQLiteStore(cfg.SQLitePath, l)
	case "redis":
		l.Info("using redis tile store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return NewRedisStore(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisTTL,
		})
	case "file":
		l.Info("using file tile store", "dir", cfg.FileDir)
		return NewFilesystemStore(cfg.FileDir)
	case "disabled":
		l.Info("tile store disabled")
		return NewNoopStore(), nil
	default:
		return nil, fmt.Errorf("unknown store type: %s (supported: memory, sqlite, redis, file, disabled)", cfg.Type)
	}
}
