// Package neighbors implements the C4 neighbor store: state adjacency
// (a fixed table), county adjacency (computed from shared boundary
// geometry), and a point-to-geography cache, persisted the way
// neighbors.py's NeighborManager persists them to DuckDB — here to
// modernc.org/sqlite instead.
package neighbors

import (
	"context"
	"sort"

	"github.com/socialmapper/socialmapper/internal/types"
)

// Store is the C4 neighbor repository contract.
type Store interface {
	// StateNeighbors returns the FIPS codes of states adjacent to
	// stateFIPS.
	StateNeighbors(ctx context.Context, stateFIPS string) ([]string, error)

	// CountyNeighbors returns the neighbor relationships for a county,
	// computed and cached by InitializeCountyNeighbors.
	CountyNeighbors(ctx context.Context, stateFIPS, countyFIPS string) ([]types.NeighborRelationship, error)

	// SaveCountyNeighbors persists computed county adjacency edges.
	SaveCountyNeighbors(ctx context.Context, rels []types.NeighborRelationship) error

	// CachedGeography returns a previously geocoded point's result, if
	// stored in the point_geography_cache table.
	CachedGeography(ctx context.Context, lat, lon float64) (types.GeocodeResult, bool, error)

	// CacheGeography persists a point's geocode result.
	CacheGeography(ctx context.Context, result types.GeocodeResult) error

	Close() error
}

// StateNeighborsStatic returns the neighbor FIPS list for a state from
// the fixed adjacency table, independent of any store — used by
// MemoryStore to answer StateNeighbors (SQLiteStore seeds its
// state_neighbors table from the same adjacency table).
func StateNeighborsStatic(stateFIPS string) ([]string, bool) {
	neighbors, ok := stateAdjacency[stateFIPS]
	return neighbors, ok
}

// AllStateFIPS returns every state FIPS code in the adjacency table, in
// the order needed to deterministically seed a store.
func AllStateFIPS() []string {
	codes := make([]string, 0, len(stateAdjacency))
	for code := range stateAdjacency {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
