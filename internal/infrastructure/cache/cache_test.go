package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryBarcodeCacheEvictsOldest(t *testing.T) {
	c, err := NewMemoryBarcodeCache(2)
	if err != nil {
		t.Fatalf("NewMemoryBarcodeCache() error = %v", err)
	}
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"))
	_ = c.Set(ctx, "b", []byte("2"))
	_ = c.Set(ctx, "c", []byte("3"))

	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatal("expected a to be evicted")
	}
	if data, ok, _ := c.Get(ctx, "c"); !ok || string(data) != "3" {
		t.Fatalf("Get(c) = %q, %v", data, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}

func TestMemoryBarcodeCacheIgnoresEmpty(t *testing.T) {
	c, _ := NewMemoryBarcodeCache(4)
	_ = c.Set(context.Background(), "empty", nil)
	if c.Len() != 0 {
		t.Fatal("empty payload should not be cached")
	}
}

func TestMemoryBarcodeCacheRejectsBadSize(t *testing.T) {
	if _, err := NewMemoryBarcodeCache(0); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestNoopImplementations(t *testing.T) {
	var bc BarcodeCache = NoopBarcodeCache{}
	if err := bc.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, _ := bc.Get(context.Background(), "k"); ok {
		t.Fatal("noop cache should never hit")
	}

	var l Locker = NoopLocker{}
	release, err := l.Obtain(context.Background(), "bill:1", time.Second)
	if err != nil || release == nil {
		t.Fatalf("Obtain() = %v", err)
	}
	release()
}
