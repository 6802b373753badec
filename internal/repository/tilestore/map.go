package tilestore

import (
	"context"
	"sync"
)

type MapStore struct {
	m *TypedSyncMap
}

type TypedSyncMap struct {
	m sync.Map
}

func (c *TypedSyncMap) Load(k string) ([]byte, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return nil, false
	}
	return v.([]byte), exists
}

func (c *TypedSyncMap) Store(k string, v []byte) {
	c.m.Store(k, v)
}

func NewMapStore() *MapStore {
	return &MapStore{
		m: &TypedSyncMap{},
	}
}

var _ TileStore = (*MapStore)(nil)

func (c *MapStore) Get(_ context.Context, url string) ([]byte, bool, error) {
	v, exists := c.m.Load(url)
	return v, exists, nil
}

func (c *MapStore) Set(_ context.Context, url string, data []byte) error {
	c.m.Store(url, data)
	return nil
}

func (c *MapStore) Close() error {
	return nil
}
