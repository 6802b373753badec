package tilestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FilesystemStore keeps one file per tile under dir.
// Structure: {dir}/{h[0:2]}/{h[2:4]}/{h} where h is the hex sha256 of the URL.
type FilesystemStore struct {
	dir string
}

func NewFilesystemStore(dir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &FilesystemStore{
		dir: dir,
	}, nil
}

var _ TileStore = (*FilesystemStore)(nil)

func (c *FilesystemStore) pathFor(url string) string {
	sum := sha256.Sum256([]byte(url))
	h := hex.EncodeToString(sum[:])
	return filepath.Join(c.dir, h[0:2], h[2:4], h)
}

func (c *FilesystemStore) Get(_ context.Context, url string) ([]byte, bool, error) {
	content, err := os.ReadFile(c.pathFor(url))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return content, true, nil
}

func (c *FilesystemStore) Set(_ context.Context, url string, data []byte) error {
	filePath := c.pathFor(url)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}

	// Write atomically
	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".tile-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), filePath); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (c *FilesystemStore) Close() error {
	return nil
}
