package isochrone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialmapper/socialmapper/internal/types"
)

func TestClusterPOIsGroupsNearbyPoints(t *testing.T) {
	pois := []types.POI{
		{ID: "a", Lat: 35.780, Lon: -78.640},
		{ID: "b", Lat: 35.781, Lon: -78.641},
		{ID: "c", Lat: 35.782, Lon: -78.642},
		{ID: "far", Lat: 40.000, Lon: -75.000},
	}

	clusters := clusterPOIs(pois, 10, 2)
	require.NotEmpty(t, clusters)

	var total int
	var sawSingleton bool
	for _, c := range clusters {
		total += len(c.POIs)
		if c.IsSingleton {
			sawSingleton = true
		}
	}
	assert.Equal(t, 4, total)
	assert.True(t, sawSingleton, "the isolated POI should form its own singleton cluster")
}

func TestClusterPOIsEmptyInput(t *testing.T) {
	assert.Nil(t, clusterPOIs(nil, 10, 2))
}

func TestHaversineKMKnownDistance(t *testing.T) {
	// Raleigh to Durham, NC is roughly 30km.
	d := haversineKM(35.7796, -78.6382, 35.9940, -78.8986)
	assert.InDelta(t, 30, d, 8)
}

func TestDBSCANAllNoiseWhenSparse(t *testing.T) {
	points := []projectedPOI{
		{x: 0, y: 0}, {x: 100, y: 100}, {x: 200, y: 0},
	}
	labels := dbscan(points, 1, 2)
	for _, l := range labels {
		assert.Equal(t, noiseLabel, l)
	}
}
