package osm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialmapper/socialmapper/internal/httpclient"
)

const sampleOverpassResponse = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 35.78, "lon": -78.64, "tags": {"name": "Main Library", "amenity": "library"}},
    {"type": "way", "id": 2, "center": {"lat": 35.79, "lon": -78.65}, "tags": {"name": "Branch Library", "amenity": "library"}}
  ]
}`

func TestQueryPOITypeParsesNodesAndWays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleOverpassResponse))
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.DefaultOptions())
	source := New(client, Config{Endpoint: srv.URL, Timeout: 60})

	pois, err := source.QueryPOIType(context.Background(), BoundingBox{34, -79, 36, -78}, "amenity=library")
	require.NoError(t, err)
	require.Len(t, pois, 2)
	assert.Equal(t, "Main Library", pois[0].Name)
	assert.Equal(t, "Branch Library", pois[1].Name)
	assert.NotEqual(t, pois[0].ID, pois[1].ID)
}

func TestSplitTagRejectsMalformed(t *testing.T) {
	_, _, err := splitTag("amenity")
	require.Error(t, err)
}

func TestStableIDIsDeterministic(t *testing.T) {
	a := stableID("node", 42)
	b := stableID("node", 42)
	assert.Equal(t, a, b)
}

const sampleRoadNetworkResponse = `{
  "elements": [
    {"type": "node", "id": 10, "lat": 35.78, "lon": -78.64},
    {"type": "node", "id": 11, "lat": 35.79, "lon": -78.65},
    {"type": "node", "id": 12, "lat": 35.80, "lon": -78.66},
    {"type": "way", "id": 100, "nodes": [10, 11, 12], "tags": {"highway": "residential"}}
  ]
}`

func TestQueryRoadNetworkParsesNodesAndWays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRoadNetworkResponse))
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.DefaultOptions())
	source := New(client, Config{Endpoint: srv.URL, Timeout: 60})

	nodes, ways, err := source.QueryRoadNetwork(context.Background(), BoundingBox{34, -79, 36, -78})
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	require.Len(t, ways, 1)
	assert.Equal(t, []int64{10, 11, 12}, ways[0].NodeIDs)
	assert.Equal(t, "residential", ways[0].Tags["highway"])
}
