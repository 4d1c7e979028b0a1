package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(DefaultOptions())
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	body, resp, err := c.Get(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestGetRetriesOn500ThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.MaxRetries = 2
	c := New(opts)
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	body, _, err := c.Get(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, 2, attempts)
}

func TestGetReturnsErrorOn4xxWithoutRetry(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(DefaultOptions())
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, _, err = c.Get(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestAdaptiveLimiterBounds(t *testing.T) {
	opts := DefaultOptions()
	opts.Adaptive = true
	opts.RateLimits = map[string]int{"example.com": 60}
	c := New(opts)
	a := c.adaptiveFor("example.com")
	require.NotNil(t, a)

	for i := 0; i < 20; i++ {
		a.OnSuccess()
	}
	assert.LessOrEqual(t, float64(a.current), float64(a.base*2))

	for i := 0; i < 20; i++ {
		a.OnRateLimit()
	}
	assert.GreaterOrEqual(t, float64(a.current), float64(a.base/4))
}
