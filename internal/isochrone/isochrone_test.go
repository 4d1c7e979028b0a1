package isochrone

import (
	"context"
	"testing"

	"github.com/katalvlaran/lvlath/core"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialmapper/socialmapper/internal/invalid"
	"github.com/socialmapper/socialmapper/internal/poi/osm"
	"github.com/socialmapper/socialmapper/internal/types"
)

// fakeNetworkProvider returns a fixed grid network regardless of bbox,
// or an error when fail is set.
type fakeNetworkProvider struct {
	network *RoadNetwork
	fail    bool
}

func (f *fakeNetworkProvider) FetchNetwork(ctx context.Context, bbox osm.BoundingBox) (*RoadNetwork, error) {
	if f.fail {
		return nil, assert.AnError
	}
	return f.network, nil
}

func gridNetwork() *RoadNetwork {
	g := core.NewGraph(core.WithWeighted())
	// A small grid of nodes, each edge 60 seconds of travel time.
	edges := [][2]string{
		{"n1", "n2"}, {"n2", "n3"}, {"n3", "n4"},
		{"n1", "n5"}, {"n2", "n6"}, {"n3", "n7"}, {"n4", "n8"},
	}
	for _, e := range edges {
		g.AddEdge(e[0], e[1], 60)
	}
	coords := map[string]orb.Point{
		"n1": {-78.64, 35.78}, "n2": {-78.63, 35.78}, "n3": {-78.62, 35.78}, "n4": {-78.61, 35.78},
		"n5": {-78.64, 35.79}, "n6": {-78.63, 35.79}, "n7": {-78.62, 35.79}, "n8": {-78.61, 35.79},
	}
	return &RoadNetwork{Graph: g, NodeCoords: coords}
}

func TestEngineGenerateProducesIsochrone(t *testing.T) {
	provider := &fakeNetworkProvider{network: gridNetwork()}
	e := New(provider, invalid.New(), nil, DefaultOptions())

	pois := []types.POI{{ID: "p1", Name: "Library", Lat: 35.78, Lon: -78.64}}
	isochrones, err := e.Generate(context.Background(), pois, 15)
	require.NoError(t, err)
	require.Len(t, isochrones, 1)

	iso := isochrones[0]
	assert.Equal(t, "p1", iso.POIID)
	assert.Equal(t, 15, iso.TravelTimeMinutes)
	assert.False(t, iso.Degenerate)
	assert.NotEmpty(t, iso.Polygon)
}

func TestEngineGenerateRecordsFailedClusterDownload(t *testing.T) {
	provider := &fakeNetworkProvider{fail: true}
	tracker := invalid.New()
	e := New(provider, tracker, nil, DefaultOptions())

	pois := []types.POI{{ID: "p1", Name: "Library", Lat: 35.78, Lon: -78.64}}
	isochrones, err := e.Generate(context.Background(), pois, 15)
	require.NoError(t, err)
	assert.Empty(t, isochrones)
	assert.Len(t, tracker.Summary().InvalidClusters, 1)
}

func TestEngineGenerateEmptyPOIs(t *testing.T) {
	provider := &fakeNetworkProvider{network: gridNetwork()}
	e := New(provider, nil, nil, DefaultOptions())

	isochrones, err := e.Generate(context.Background(), nil, 15)
	require.NoError(t, err)
	assert.Empty(t, isochrones)
}
