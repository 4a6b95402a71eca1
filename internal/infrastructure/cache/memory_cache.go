package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryBarcodeCache keeps the most recently rendered barcodes in process.
// It is used when no Redis server is configured.
type MemoryBarcodeCache struct {
	entries *lru.Cache[string, []byte]
}

func NewMemoryBarcodeCache(size int) (*MemoryBarcodeCache, error) {
	entries, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("create barcode lru: %w", err)
	}
	return &MemoryBarcodeCache{entries: entries}, nil
}

func (c *MemoryBarcodeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, ok := c.entries.Get(key)
	return data, ok, nil
}

func (c *MemoryBarcodeCache) Set(_ context.Context, key string, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	c.entries.Add(key, data)
	return nil
}

func (c *MemoryBarcodeCache) Len() int {
	return c.entries.Len()
}
