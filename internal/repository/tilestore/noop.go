package tilestore

import "context"

type NoopStore struct{}

func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

var _ TileStore = (*NoopStore)(nil)

func (c *NoopStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *NoopStore) Set(context.Context, string, []byte) error {
	return nil
}

func (c *NoopStore) Close() error {
	return nil
}
