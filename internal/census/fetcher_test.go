package census

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socialmapper/socialmapper/internal/cache"
	"github.com/socialmapper/socialmapper/internal/httpclient"
	"github.com/socialmapper/socialmapper/internal/types"
)

const sampleDataAPIResponse = `[
  ["B01003_001E","NAME","state","county","tract","block group"],
  ["2543","Block Group 1","37","183","052501","2"],
  ["-666666666","Block Group 2","37","183","052501","3"]
]`

func TestGetBlockGroupDataParsesAndNullsSentinels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleDataAPIResponse))
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.DefaultOptions())
	f, err := New(client, cache.NewMemory(), Options{APIKey: "test-key"}, nil)
	require.NoError(t, err)
	f.WithBaseURL(srv.URL)

	points, err := f.GetBlockGroupData(context.Background(), []string{"371830525012", "371830525013"}, []string{"B01003_001E"})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.NotNil(t, points[0].Value)
	assert.Equal(t, 2543.0, *points[0].Value)
	assert.Nil(t, points[1].Value)
}

func TestGetBlockGroupDataIntersectsWithRequestedGEOIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleDataAPIResponse))
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.DefaultOptions())
	f, err := New(client, cache.NewMemory(), Options{APIKey: "test-key"}, nil)
	require.NoError(t, err)
	f.WithBaseURL(srv.URL)

	// Only one of the two GEOIDs the fixture response contains was
	// requested; the other must be dropped.
	points, err := f.GetBlockGroupData(context.Background(), []string{"371830525012"}, []string{"B01003_001E"})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "371830525012", points[0].GEOID)
}

func TestGetZCTADataIssuesOneRequestPerGEOID(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		forVal := r.URL.Query().Get("for")
		geoid := strings.TrimPrefix(forVal, "zip code tabulation area:")
		resp := `[["B01003_001E","NAME","zip code tabulation area"],["4210","ZCTA `+geoid+`","`+geoid+`"]]`
		w.Write([]byte(resp))
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.DefaultOptions())
	f, err := New(client, cache.NewMemory(), Options{APIKey: "test-key"}, nil)
	require.NoError(t, err)
	f.WithBaseURL(srv.URL)

	points, err := f.GetZCTAData(context.Background(), []string{"27601", "29601"}, []string{"B01003_001E"})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
	geoids := []string{points[0].GEOID, points[1].GEOID}
	assert.Contains(t, geoids, "27601")
	assert.Contains(t, geoids, "29601")
}

func TestGetDataDispatchesByLevel(t *testing.T) {
	var gotFor string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFor = r.URL.Query().Get("for")
		w.Write([]byte(`[["B01003_001E","NAME","state"],["2543","NC","37"]]`))
	}))
	defer srv.Close()

	client := httpclient.New(httpclient.DefaultOptions())
	f, err := New(client, cache.NewMemory(), Options{APIKey: "test-key"}, nil)
	require.NoError(t, err)
	f.WithBaseURL(srv.URL)

	points, err := f.GetData(context.Background(), []string{"37"}, []string{"B01003_001E"}, types.LevelState)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "state:37", gotFor)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(httpclient.New(httpclient.DefaultOptions()), cache.NewMemory(), Options{}, nil)
	require.Error(t, err)
}

func TestCacheKeyIsOrderIndependent(t *testing.T) {
	a := CacheKey([]string{"1", "2"}, []string{"X", "Y"}, 2022, "acs/acs5")
	b := CacheKey([]string{"2", "1"}, []string{"Y", "X"}, 2022, "acs/acs5")
	assert.Equal(t, a, b)
}

func TestGroupGEOIDsByStateCounty(t *testing.T) {
	groups := groupGEOIDsByStateCounty([]string{"371830525012", "371830525013", "060010001001"})
	require.Contains(t, groups, "37")
	require.Contains(t, groups, "06")
	assert.True(t, groups["37"]["183"])
}
