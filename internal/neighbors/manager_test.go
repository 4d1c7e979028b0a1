package neighbors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialmapper/socialmapper/internal/types"
)

type countingGeocoder struct {
	calls  int
	result types.GeocodeResult
}

func (f *countingGeocoder) GeocodePoint(_ context.Context, lat, lon float64) (types.GeocodeResult, error) {
	f.calls++
	r := f.result
	r.Lat, r.Lon = lat, lon
	return r, nil
}

func TestManagerGeographyOfPointUsesCacheOnSecondCall(t *testing.T) {
	store := NewMemoryStore()
	geo := &countingGeocoder{result: types.GeocodeResult{StateFIPS: "37", CountyFIPS: "183"}}
	m := NewManager(store, nil, geo, nil)

	_, err := m.GeographyOfPoint(context.Background(), 35.78, -78.64)
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls)

	_, err = m.GeographyOfPoint(context.Background(), 35.78, -78.64)
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls, "second lookup for the same point should hit the cache, not the geocoder")
}

func TestManagerCountiesOfPOIsWithoutNeighbors(t *testing.T) {
	store := NewMemoryStore()
	geo := &simpleGeocoder{
		byPOI: map[string]types.GeocodeResult{
			"a": {StateFIPS: "37", CountyFIPS: "183"},
			"b": {StateFIPS: "37", CountyFIPS: "063"},
		},
	}
	m := NewManager(store, nil, geo, nil)

	pois := []types.POI{
		{ID: "a", Lat: 35.78, Lon: -78.64},
		{ID: "b", Lat: 36.0, Lon: -79.0},
	}

	counties, err := m.CountiesOfPOIs(context.Background(), pois, false, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"37183", "37063"}, counties)
}

func TestManagerCountiesOfPOIsWithNeighborsExpands(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.SaveCountyNeighbors(context.Background(), []types.NeighborRelationship{
		{SourceGEOID: "37183", NeighborGEOID: "37063", Kind: types.NeighborAdjacent},
	}))
	geo := &simpleGeocoder{byPOI: map[string]types.GeocodeResult{
		"a": {StateFIPS: "37", CountyFIPS: "183"},
	}}
	m := NewManager(store, nil, geo, nil)

	counties, err := m.CountiesOfPOIs(context.Background(), []types.POI{{ID: "a", Lat: 35.78, Lon: -78.64}}, true, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"37183", "37063"}, counties)
}

// simpleGeocoder resolves by POI coordinates, looked up by round-tripping
// the test's fixed lat/lon pairs back to a POI ID.
type simpleGeocoder struct {
	byPOI map[string]types.GeocodeResult
}

func (s *simpleGeocoder) GeocodePoint(_ context.Context, lat, lon float64) (types.GeocodeResult, error) {
	switch {
	case lat == 35.78 && lon == -78.64:
		return s.byPOI["a"], nil
	case lat == 36.0 && lon == -79.0:
		return s.byPOI["b"], nil
	}
	return types.GeocodeResult{}, nil
}
