package cache

import (
	"context"
)

// BarcodeCache stores rendered barcode PNGs keyed by symbology, geometry and payload
type BarcodeCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
}

type NoopBarcodeCache struct{}

func (NoopBarcodeCache) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopBarcodeCache) Set(_ context.Context, _ string, _ []byte) error {
	return nil
}
