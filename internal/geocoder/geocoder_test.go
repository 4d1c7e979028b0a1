package geocoder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialmapper/socialmapper/internal/cache"
	"github.com/socialmapper/socialmapper/internal/httpclient"
)

const sampleGeographiesResponse = `{
  "result": {
    "geographies": {
      "Census Block Groups": [{"GEOID": "371830525012", "STATE": "37", "COUNTY": "183"}],
      "Census Tracts": [{"GEOID": "37183052501"}],
      "States": [{"STATE": "37"}],
      "Zip Code Tabulation Areas": [{"ZCTA5": "27601"}]
    }
  }
}`

func TestGeocodePointParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleGeographiesResponse))
	}))
	defer srv.Close()

	c := httpclient.New(httpclient.DefaultOptions())
	g := New(c, cache.NewMemory(), nil).WithBaseURL(srv.URL)

	result, err := g.GeocodePoint(context.Background(), 35.78, -78.64)
	require.NoError(t, err)
	assert.Equal(t, "37", result.StateFIPS)
	assert.Equal(t, "371830525012", result.BlockGroupGEOID)
	assert.Equal(t, "27601", result.ZCTAGEOID)
}

func TestGeocodePointRejectsOutOfBounds(t *testing.T) {
	g := New(httpclient.New(httpclient.DefaultOptions()), cache.NewMemory(), nil)
	_, err := g.GeocodePoint(context.Background(), 999, 0)
	require.Error(t, err)
}

func TestParseGeographiesResponseNoState(t *testing.T) {
	_, err := parseGeographiesResponse([]byte(`{"result":{"geographies":{}}}`), 0, 0)
	require.Error(t, err)
}
