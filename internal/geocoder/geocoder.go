// Package geocoder resolves coordinates to census geographies and
// addresses to coordinates via the Census Bureau's geocoder, caching
// results behind the shared cache package the way
// BattermanZ-FundaMental's Geocoder caches Nominatim lookups.
package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/socialmapper/socialmapper/internal/cache"
	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/httpclient"
	"github.com/socialmapper/socialmapper/internal/types"
)

const (
	defaultBaseURL = "https://geocoding.geo.census.gov/geocoder"
	benchmark      = "Public_AR_Current"
	vintage        = "Current_Current"
	cacheTTL       = 30 * 24 * time.Hour
)

// Geocoder resolves POI coordinates/addresses to census geography
// identifiers (state, county, tract, block group, ZCTA FIPS codes).
type Geocoder struct {
	client  *httpclient.Client
	cache   cache.Cache
	logger  *slog.Logger
	baseURL string
}

// New builds a Geocoder backed by the shared HTTP client and cache.
func New(client *httpclient.Client, c cache.Cache, logger *slog.Logger) *Geocoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Geocoder{client: client, cache: c, logger: logger.With("component", "geocoder"), baseURL: defaultBaseURL}
}

// WithBaseURL overrides the geocoder endpoint, mirroring the teacher's
// PrivateInstanceConfig pattern for pointing at a private mirror or test
// server.
func (g *Geocoder) WithBaseURL(url string) *Geocoder {
	g.baseURL = url
	return g
}

// GeocodePoint resolves coordinates to the census geographies (block
// group, tract, county, state, ZCTA) containing that point.
func (g *Geocoder) GeocodePoint(ctx context.Context, lat, lon float64) (types.GeocodeResult, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return types.GeocodeResult{}, errs.New(errs.KindInvalidLocation, "geocoding",
			fmt.Sprintf("coordinates (%f, %f) are out of WGS84 bounds", lat, lon),
			"verify the POI's latitude/longitude values")
	}

	key := fmt.Sprintf("geocode:point:%.6f,%.6f", lat, lon)
	if cached, ok, err := g.cache.Get(ctx, key); err == nil && ok {
		var result types.GeocodeResult
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
	}

	u, _ := url.Parse(g.baseURL + "/geographies/coordinates")
	q := u.Query()
	q.Set("x", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("y", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("benchmark", benchmark)
	q.Set("vintage", vintage)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return types.GeocodeResult{}, errs.Wrap(errs.KindExternalService, "geocoding", err, "failed to build geocode request")
	}

	body, _, err := g.client.Get(ctx, req)
	if err != nil {
		return types.GeocodeResult{}, errs.Wrap(errs.KindExternalService, "geocoding", err,
			"census coordinate geocoder request failed", "check network connectivity")
	}

	result, err := parseGeographiesResponse(body, lat, lon)
	if err != nil {
		return types.GeocodeResult{}, err
	}

	if encoded, err := json.Marshal(result); err == nil {
		_ = g.cache.Set(ctx, key, encoded, cacheTTL)
	}
	return result, nil
}

// GeocodeAddress resolves a one-line address string to coordinates and
// geographies via the Census one-line address endpoint, recovering the
// "Addresses path" POI source named in spec.md §6 Input.
func (g *Geocoder) GeocodeAddress(ctx context.Context, address string) (types.GeocodeResult, error) {
	key := "geocode:address:" + address
	if cached, ok, err := g.cache.Get(ctx, key); err == nil && ok {
		var result types.GeocodeResult
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
	}

	u, _ := url.Parse(g.baseURL + "/locations/onelineaddress")
	q := u.Query()
	q.Set("address", address)
	q.Set("benchmark", benchmark)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return types.GeocodeResult{}, errs.Wrap(errs.KindExternalService, "geocoding", err, "failed to build address geocode request")
	}

	body, _, err := g.client.Get(ctx, req)
	if err != nil {
		return types.GeocodeResult{}, errs.Wrap(errs.KindExternalService, "geocoding", err,
			"census address geocoder request failed")
	}

	lat, lon, err := parseOneLineAddressResponse(body)
	if err != nil {
		return types.GeocodeResult{}, errs.Wrap(errs.KindNoDataFound, "geocoding", err,
			fmt.Sprintf("address %q could not be geocoded", address),
			"verify the address is complete and US-based")
	}

	result, err := g.GeocodePoint(ctx, lat, lon)
	if err != nil {
		return types.GeocodeResult{}, err
	}
	result.Source = "address"

	if encoded, err := json.Marshal(result); err == nil {
		_ = g.cache.Set(ctx, key, encoded, cacheTTL)
	}
	return result, nil
}
