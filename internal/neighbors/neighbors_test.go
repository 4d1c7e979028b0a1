package neighbors

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialmapper/socialmapper/internal/types"
)

func TestStateAdjacencyHas51Entries(t *testing.T) {
	assert.Len(t, stateAdjacency, 51)
}

func TestStateAdjacencyAlaskaHawaiiHaveNoNeighbors(t *testing.T) {
	assert.Empty(t, stateAdjacency["02"])
	assert.Empty(t, stateAdjacency["15"])
}

func TestStateAdjacencyDCMarylandVirginia(t *testing.T) {
	assert.ElementsMatch(t, []string{"24", "51"}, stateAdjacency["11"])
}

func TestMemoryStoreStateNeighbors(t *testing.T) {
	store := NewMemoryStore()
	neighbors, err := store.StateNeighbors(context.Background(), "37")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"13", "45", "47", "51"}, neighbors)
}

func TestMemoryStoreUnknownState(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.StateNeighbors(context.Background(), "99")
	require.Error(t, err)
}

func TestSQLiteStoreSeedsStateNeighbors(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStore(filepath.Join(dir, "neighbors.db"))
	require.NoError(t, err)
	defer store.Close()

	neighbors, err := store.StateNeighbors(context.Background(), "06")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"04", "32", "41"}, neighbors)
}

func TestSQLiteStoreCountyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStore(filepath.Join(dir, "neighbors.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.SaveCountyNeighbors(ctx, []types.NeighborRelationship{
		{SourceGEOID: "37183", NeighborGEOID: "37063", Kind: types.NeighborAdjacent, SharedBoundaryLength: 1.5},
	}))

	rels, err := store.CountyNeighbors(ctx, "37", "183")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "37063", rels[0].NeighborGEOID)
}

func TestSQLiteStorePointGeographyCache(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStore(filepath.Join(dir, "neighbors.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	_, ok, err := store.CachedGeography(ctx, 35.5, -78.5)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.CacheGeography(ctx, types.GeocodeResult{
		Lat: 35.5, Lon: -78.5, StateFIPS: "37", CountyFIPS: "183",
	}))
	result, ok, err := store.CachedGeography(ctx, 35.5, -78.5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "37", result.StateFIPS)
}

func TestSharedBoundaryLengthAdjacentSquares(t *testing.T) {
	// Two unit squares sharing the right edge of a / left edge of b.
	a := orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
	b := orb.Polygon{orb.Ring{{1, 0}, {2, 0}, {2, 1}, {1, 1}, {1, 0}}}
	assert.Greater(t, sharedBoundaryLength(a, b), 0.0)
}

func TestSharedBoundaryLengthDisjointSquares(t *testing.T) {
	a := orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
	b := orb.Polygon{orb.Ring{{5, 5}, {6, 5}, {6, 6}, {5, 6}, {5, 5}}}
	assert.Equal(t, 0.0, sharedBoundaryLength(a, b))
}
