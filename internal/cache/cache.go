// Package cache implements the four C2 cache strategies: memory, file,
// hybrid, and none. The file/hybrid backends persist through a
// modernc.org/sqlite store, adapting the teacher's mbtiles.Writer
// batched-transaction-with-pragma idiom to a generic key/value table
// instead of a tile grid.
package cache

import (
	"context"
	"time"
)

// Cache is the interface every component fetching from a slow or
// rate-limited upstream uses to avoid redundant calls.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Stats reports cache hit/miss accounting, mirrored from the original
// Python MemoryCache's hits/misses/total_calls bookkeeping.
type Stats struct {
	Hits   int64
	Misses int64
}

func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
