package tilestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jaennil/guide_helper/backend/tileview/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSQLiteStore(path string, l logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}

	c := &SQLiteStore{
		db:     db,
		logger: l,
	}

	err = c.runMigrations()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	l.Info("sqlite tile store initialized", "path", path)

	return c, nil
}

func (c *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	return goose.Up(c.db, "migrations")
}

var _ TileStore = (*SQLiteStore)(nil)

func (c *SQLiteStore) Get(ctx context.Context, url string) ([]byte, bool, error) {
	c.logger.Debug("sqlite store get", "url", url)

	query := `SELECT tile_data
	FROM tile_store
	WHERE url = ?`

	var tileData []byte
	err := c.db.QueryRowContext(ctx, query, url).Scan(&tileData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		c.logger.Error("sqlite store get failed", "url", url, "error", err)
		return nil, false, err
	}

	return tileData, true, nil
}

func (c *SQLiteStore) Set(ctx context.Context, url string, data []byte) error {
	c.logger.Debug("sqlite store set", "url", url, "size", len(data))

	query := `INSERT INTO tile_store (url, tile_data, stored_at)
	VALUES (?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET tile_data = excluded.tile_data, stored_at = excluded.stored_at`

	_, err := c.db.ExecContext(ctx, query, url, data, time.Now().Unix())
	if err != nil {
		c.logger.Error("sqlite store set failed", "url", url, "error", err)
		return err
	}

	return nil
}

func (c *SQLiteStore) Close() error {
	return c.db.Close()
}
