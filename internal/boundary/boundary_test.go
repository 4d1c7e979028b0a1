package boundary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialmapper/socialmapper/internal/httpclient"
	"github.com/socialmapper/socialmapper/internal/types"
)

const sampleCountyFeature = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "properties": {"GEOID": "37183", "NAME": "Wake", "STATE": "37", "COUNTY": "183"},
    "geometry": {"type": "Polygon", "coordinates": [[[-78.7,35.7],[-78.5,35.7],[-78.5,35.9],[-78.7,35.9],[-78.7,35.7]]]}
  }]
}`

func TestGetFetchesAndCaches(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(sampleCountyFeature))
	}))
	defer srv.Close()

	dir := t.TempDir()
	client := httpclient.New(httpclient.DefaultOptions())
	store, err := New(filepath.Join(dir, "boundary.db"), client, nil)
	require.NoError(t, err)
	defer store.Close()
	mapServerByLevel[types.LevelCounty] = srv.URL

	ctx := context.Background()
	unit, err := store.Get(ctx, "37183", types.LevelCounty)
	require.NoError(t, err)
	assert.Equal(t, "Wake", unit.Name)
	assert.NotEmpty(t, unit.Geometry)

	// Second call should hit the cache, not the server.
	_, err = store.Get(ctx, "37183", types.LevelCounty)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

const sampleZCTAFeatures = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"GEOID": "27601"}, "geometry": {"type": "Polygon", "coordinates": [[[-78.7,35.7],[-78.5,35.7],[-78.5,35.9],[-78.7,35.9],[-78.7,35.7]]]}},
    {"type": "Feature", "properties": {"GEOID": "29601"}, "geometry": {"type": "Polygon", "coordinates": [[[-81.7,34.7],[-81.5,34.7],[-81.5,34.9],[-81.7,34.9],[-81.7,34.7]]]}}
  ]
}`

func TestGetManyByStateQueriesNationalZCTALayerAndFiltersByPrefix(t *testing.T) {
	var gotWhere string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotWhere = r.URL.Query().Get("where")
		w.Write([]byte(sampleZCTAFeatures))
	}))
	defer srv.Close()

	dir := t.TempDir()
	client := httpclient.New(httpclient.DefaultOptions())
	store, err := New(filepath.Join(dir, "boundary.db"), client, nil)
	require.NoError(t, err)
	defer store.Close()
	mapServerByLevel[types.LevelZCTA] = srv.URL

	units, err := store.GetManyByState(context.Background(), "27", types.LevelZCTA)
	require.NoError(t, err)
	assert.Equal(t, "1=1", gotWhere)
	require.Len(t, units, 1)
	assert.Equal(t, "27601", units[0].GEOID)
}
