// Package tilestore keeps raw tile bytes keyed by tile URL so that tiles
// survive eviction from the in-memory tile cache and process restarts.
package tilestore

import "context"

type TileStore interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Set(ctx context.Context, url string, data []byte) error
	Close() error
}
