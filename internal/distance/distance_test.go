package distance

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialmapper/socialmapper/internal/types"
)

func square(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}}
}

func TestAlbersProjectRoundTrip(t *testing.T) {
	lat, lon := 35.7796, -78.6382 // Raleigh, NC

	x, y := conusAlbers.project(lat, lon)
	gotLat, gotLon := conusAlbers.unproject(x, y)

	assert.InDelta(t, lat, gotLat, 1e-6)
	assert.InDelta(t, lon, gotLon, 1e-6)
}

func TestProjectedDistanceMetersIsPositive(t *testing.T) {
	d := projectedDistanceMeters(35.7796, -78.6382, 35.9940, -78.8986)
	assert.Greater(t, d, 0.0)
	// Raleigh to Durham is roughly 30km as the crow flies.
	assert.InDelta(t, 30000, d, 8000)
}

func TestEngineEnrichFindsNearestPOI(t *testing.T) {
	units := []types.GeographicUnit{
		{GEOID: "37183000100", Geometry: square(-78.65, 35.77, -78.63, 35.79)},
	}
	pois := []types.POI{
		{ID: "near", Name: "Near Library", Lat: 35.78, Lon: -78.64},
		{ID: "far", Name: "Far Library", Lat: 40.0, Lon: -75.0},
	}
	isochrones := []types.Isochrone{
		{POIID: "near", TravelTimeMinutes: 15, AvgTravelSpeedKMH: 50, AvgTravelSpeedMPH: 31},
	}

	e := New(nil)
	rows, err := e.Enrich(context.Background(), units, pois, isochrones)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "37183000100", row.GEOID)
	assert.Equal(t, "near", row.POIID)
	assert.Equal(t, 15, row.TravelTimeMinutes)
	assert.Greater(t, row.TravelDistanceKM, 0.0)
	assert.InDelta(t, row.TravelDistanceKM*kmToMiles, row.TravelDistanceMiles, 1e-9)
}

func TestEngineEnrichNoPOIsReturnsNil(t *testing.T) {
	e := New(nil)
	rows, err := e.Enrich(context.Background(), []types.GeographicUnit{{GEOID: "x"}}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestEngineEnrichUsesWorkerPoolAboveThreshold(t *testing.T) {
	units := make([]types.GeographicUnit, 12)
	for i := range units {
		units[i] = types.GeographicUnit{
			GEOID:    "unit",
			Geometry: square(float64(i), 0, float64(i)+1, 1),
		}
	}
	pois := []types.POI{{ID: "p1", Name: "P1", Lat: 0.5, Lon: 0.5}}

	e := New(nil, WithChunkThreshold(10), WithWorkers(4))
	rows, err := e.Enrich(context.Background(), units, pois, nil)
	require.NoError(t, err)
	require.Len(t, rows, len(units))
	for i, r := range rows {
		assert.Equal(t, "p1", r.POIID, "row %d", i)
	}
}

func TestKmToMilesConstant(t *testing.T) {
	assert.True(t, math.Abs(1*kmToMiles-0.621371) < 1e-9)
}
