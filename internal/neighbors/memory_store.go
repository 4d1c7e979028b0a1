package neighbors

import (
	"context"
	"fmt"
	"sync"

	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/types"
)

// MemoryStore is the non-durable C4 repository (config.RepositoryMemory),
// useful for tests and short-lived runs that don't need persistence
// across processes.
type MemoryStore struct {
	mu             sync.RWMutex
	countyNeighbors map[string][]types.NeighborRelationship
	pointCache      map[string]types.GeocodeResult
}

// NewMemoryStore builds an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		countyNeighbors: map[string][]types.NeighborRelationship{},
		pointCache:      map[string]types.GeocodeResult{},
	}
}

func (s *MemoryStore) StateNeighbors(_ context.Context, stateFIPS string) ([]string, error) {
	neighbors, ok := StateNeighborsStatic(stateFIPS)
	if !ok {
		return nil, errs.New(errs.KindNoDataFound, "neighbors",
			fmt.Sprintf("unknown state FIPS code %q", stateFIPS))
	}
	return neighbors, nil
}

func (s *MemoryStore) CountyNeighbors(_ context.Context, stateFIPS, countyFIPS string) ([]types.NeighborRelationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countyNeighbors[stateFIPS+countyFIPS], nil
}

func (s *MemoryStore) SaveCountyNeighbors(_ context.Context, rels []types.NeighborRelationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rel := range rels {
		s.countyNeighbors[rel.SourceGEOID] = append(s.countyNeighbors[rel.SourceGEOID], rel)
	}
	return nil
}

func (s *MemoryStore) CachedGeography(_ context.Context, lat, lon float64) (types.GeocodeResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.pointCache[pointKey(lat, lon)]
	return result, ok, nil
}

func (s *MemoryStore) CacheGeography(_ context.Context, result types.GeocodeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pointCache[pointKey(result.Lat, result.Lon)] = result
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func pointKey(lat, lon float64) string {
	return fmt.Sprintf("%.6f,%.6f", lat, lon)
}
