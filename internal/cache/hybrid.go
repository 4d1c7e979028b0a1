package cache

import (
	"context"
	"time"
)

// noop never stores anything; it backs CacheNone.
type noop struct{}

func (noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (noop) Delete(context.Context, string) error { return nil }
func (noop) Close() error { return nil }

// NewNoop returns a cache that stores nothing.
func NewNoop() Cache { return noop{} }

// Hybrid checks an in-memory layer first and falls through to a
// durable sqlite store on miss, populating the memory layer on a
// sqlite hit. This is the default strategy (config.CacheHybrid).
type Hybrid struct {
	memory *MemoryCache
	durable *SQLiteStore
}

// NewHybrid combines a MemoryCache in front of a SQLiteStore.
func NewHybrid(durable *SQLiteStore) *Hybrid {
	return &Hybrid{memory: NewMemory(), durable: durable}
}

func (h *Hybrid) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := h.memory.Get(ctx, key); err != nil {
		return nil, false, err
	} else if ok {
		return v, true, nil
	}
	v, ok, err := h.durable.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if ok {
		_ = h.memory.Set(ctx, key, v, time.Hour)
	}
	return v, ok, nil
}

func (h *Hybrid) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := h.memory.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return h.durable.Set(ctx, key, value, ttl)
}

func (h *Hybrid) Delete(ctx context.Context, key string) error {
	_ = h.memory.Delete(ctx, key)
	return h.durable.Delete(ctx, key)
}

func (h *Hybrid) Close() error {
	return h.durable.Close()
}
