// Package census is C7: the Census Data API fetcher. It groups
// requested GEOIDs by state/county, queries the ACS detailed tables
// API, and checks the cache before calling the API; there is no
// persistent repository layer between the two.
package census

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/socialmapper/socialmapper/internal/cache"
	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/httpclient"
	"github.com/socialmapper/socialmapper/internal/types"
	"github.com/socialmapper/socialmapper/internal/worker"
)

const dataAPIBaseURL = "https://api.census.gov/data"

// DefaultZCTAConcurrency bounds the number of simultaneous per-ZCTA
// subrequests, since the ACS API has no list-in support for ZCTAs and
// every geoid needs its own request.
const DefaultZCTAConcurrency = 8

// Fetcher retrieves ACS variable values for a set of GEOIDs at a given
// geography level.
type Fetcher struct {
	client          *httpclient.Client
	cache           cache.Cache
	apiKey          string
	year            int
	dataset         string
	logger          *slog.Logger
	baseURL         string
	zctaConcurrency int
}

// Options configures a Fetcher.
type Options struct {
	APIKey          string
	Year            int    // defaults to 2022 (most recent 5-year ACS at spec authoring time)
	Dataset         string // defaults to "acs/acs5"
	ZCTAConcurrency int    // defaults to DefaultZCTAConcurrency
}

// New builds a Fetcher.
func New(client *httpclient.Client, c cache.Cache, opts Options, logger *slog.Logger) (*Fetcher, error) {
	if opts.APIKey == "" {
		return nil, errs.New(errs.KindMissingAPIKey, "census",
			"a Census API key is required to query the Census Data API",
			"set census_api_key in configuration or the CENSUS_API_KEY environment variable",
			"request a free key at https://api.census.gov/data/key_signup.html")
	}
	if opts.Year == 0 {
		opts.Year = 2022
	}
	if opts.Dataset == "" {
		opts.Dataset = "acs/acs5"
	}
	if logger == nil {
		logger = slog.Default()
	}
	zctaConcurrency := opts.ZCTAConcurrency
	if zctaConcurrency <= 0 {
		zctaConcurrency = DefaultZCTAConcurrency
	}
	return &Fetcher{
		client: client, cache: c, apiKey: opts.APIKey, year: opts.Year, dataset: opts.Dataset,
		logger: logger.With("component", "census"), baseURL: dataAPIBaseURL,
		zctaConcurrency: zctaConcurrency,
	}, nil
}

// WithBaseURL overrides the Census Data API endpoint, for tests.
func (f *Fetcher) WithBaseURL(url string) *Fetcher {
	f.baseURL = url
	return f
}

// GetData dispatches to the appropriate fetch path for level, per
// spec.md §4.7: ZCTAs have no list-in support on the API and are
// fetched one request per geoid; counties get one request per state;
// states share a single request. Every other level, tracts included,
// goes through GetBlockGroupData, which groups by state/county and
// queries block groups only, so tract GEOIDs match no returned row.
func (f *Fetcher) GetData(ctx context.Context, geoids []string, variableCodes []string, level types.GeographyLevel) ([]types.CensusDataPoint, error) {
	switch level {
	case types.LevelZCTA:
		return f.GetZCTAData(ctx, geoids, variableCodes)
	case types.LevelCounty:
		return f.GetCountyData(ctx, geoids, variableCodes)
	case types.LevelState:
		return f.GetStateData(ctx, geoids, variableCodes)
	default:
		return f.GetBlockGroupData(ctx, geoids, variableCodes)
	}
}

// GetBlockGroupData fetches the requested variables for every GEOID in
// geoids, grouped into one API call per state/county pair.
func (f *Fetcher) GetBlockGroupData(ctx context.Context, geoids []string, variableCodes []string) ([]types.CensusDataPoint, error) {
	if len(geoids) == 0 {
		return nil, nil
	}
	variableCodes = ensureNamePresent(variableCodes)

	key := CacheKey(geoids, variableCodes, f.year, f.dataset)
	if cached, ok, err := f.cache.Get(ctx, key); err == nil && ok {
		var points []types.CensusDataPoint
		if err := json.Unmarshal(cached, &points); err == nil {
			return points, nil
		}
	}

	requested := toSet(geoids)
	groups := groupGEOIDsByStateCounty(geoids)
	var all []types.CensusDataPoint
	for stateFIPS, counties := range groups {
		for countyFIPS := range counties {
			points, err := f.fetchStateCounty(ctx, stateFIPS, countyFIPS, variableCodes)
			if err != nil {
				return nil, err
			}
			all = append(all, intersectByGEOID(points, requested)...)
		}
	}

	if encoded, err := json.Marshal(all); err == nil {
		_ = f.cache.Set(ctx, key, encoded, 0)
	}
	return all, nil
}

// GetZCTAData fetches the requested variables for every ZCTA GEOID,
// issuing one request per geoid (the ACS API has no list-in support for
// ZCTAs) with bounded concurrency through a worker pool.
func (f *Fetcher) GetZCTAData(ctx context.Context, geoids []string, variableCodes []string) ([]types.CensusDataPoint, error) {
	if len(geoids) == 0 {
		return nil, nil
	}
	variableCodes = ensureNamePresent(variableCodes)

	key := CacheKey(geoids, variableCodes, f.year, f.dataset)
	if cached, ok, err := f.cache.Get(ctx, key); err == nil && ok {
		var points []types.CensusDataPoint
		if err := json.Unmarshal(cached, &points); err == nil {
			return points, nil
		}
	}

	pool := worker.New(worker.Config[string, []types.CensusDataPoint]{
		Workers: f.zctaConcurrency,
		Fn: func(ctx context.Context, geoid string, _ int) ([]types.CensusDataPoint, error) {
			return f.fetchZCTA(ctx, geoid, variableCodes)
		},
	})
	results := pool.Run(ctx, geoids)

	var all []types.CensusDataPoint
	for _, r := range results {
		if r.Err != nil {
			f.logger.Warn("ZCTA subrequest failed", "geoid", r.Item, "error", r.Err)
			continue
		}
		all = append(all, r.Value...)
	}

	if encoded, err := json.Marshal(all); err == nil {
		_ = f.cache.Set(ctx, key, encoded, 0)
	}
	return all, nil
}

// GetCountyData fetches the requested variables for every county GEOID
// (5-digit state+county), grouped into one API call per state.
func (f *Fetcher) GetCountyData(ctx context.Context, geoids []string, variableCodes []string) ([]types.CensusDataPoint, error) {
	if len(geoids) == 0 {
		return nil, nil
	}
	variableCodes = ensureNamePresent(variableCodes)

	key := CacheKey(geoids, variableCodes, f.year, f.dataset)
	if cached, ok, err := f.cache.Get(ctx, key); err == nil && ok {
		var points []types.CensusDataPoint
		if err := json.Unmarshal(cached, &points); err == nil {
			return points, nil
		}
	}

	requested := toSet(geoids)
	states := map[string]bool{}
	for _, geoid := range geoids {
		if len(geoid) >= 2 {
			states[geoid[:2]] = true
		}
	}

	var all []types.CensusDataPoint
	for stateFIPS := range states {
		points, err := f.fetchCounty(ctx, stateFIPS, variableCodes)
		if err != nil {
			return nil, err
		}
		all = append(all, intersectByGEOID(points, requested)...)
	}

	if encoded, err := json.Marshal(all); err == nil {
		_ = f.cache.Set(ctx, key, encoded, 0)
	}
	return all, nil
}

// GetStateData fetches the requested variables for every state GEOID in
// a single request, since the Data API supports a comma-separated list
// of states in the "for" clause.
func (f *Fetcher) GetStateData(ctx context.Context, geoids []string, variableCodes []string) ([]types.CensusDataPoint, error) {
	if len(geoids) == 0 {
		return nil, nil
	}
	variableCodes = ensureNamePresent(variableCodes)

	key := CacheKey(geoids, variableCodes, f.year, f.dataset)
	if cached, ok, err := f.cache.Get(ctx, key); err == nil && ok {
		var points []types.CensusDataPoint
		if err := json.Unmarshal(cached, &points); err == nil {
			return points, nil
		}
	}

	requested := toSet(geoids)
	points, err := f.fetchState(ctx, geoids, variableCodes)
	if err != nil {
		return nil, err
	}
	all := intersectByGEOID(points, requested)

	if encoded, err := json.Marshal(all); err == nil {
		_ = f.cache.Set(ctx, key, encoded, 0)
	}
	return all, nil
}

func (f *Fetcher) fetchStateCounty(ctx context.Context, stateFIPS, countyFIPS string, variableCodes []string) ([]types.CensusDataPoint, error) {
	u, _ := url.Parse(fmt.Sprintf("%s/%d/%s", f.baseURL, f.year, f.dataset))
	q := u.Query()
	q.Set("get", strings.Join(variableCodes, ","))
	q.Set("for", "block group:*")
	q.Set("in", fmt.Sprintf("state:%s county:%s", stateFIPS, countyFIPS))
	q.Set("key", f.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "census", err, "failed to build Census Data API request")
	}

	body, _, err := f.client.Get(ctx, req)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "census", err,
			"Census Data API request failed", "check the API key and state/county FIPS codes")
	}

	return parseDataAPIResponse(body, variableCodes, f.year, f.dataset)
}

// fetchZCTA issues a single request for one ZCTA geoid, since the Data
// API's "in"/"for" geography clause doesn't accept a list of ZCTAs.
func (f *Fetcher) fetchZCTA(ctx context.Context, geoid string, variableCodes []string) ([]types.CensusDataPoint, error) {
	u, _ := url.Parse(fmt.Sprintf("%s/%d/%s", f.baseURL, f.year, f.dataset))
	q := u.Query()
	q.Set("get", strings.Join(variableCodes, ","))
	q.Set("for", "zip code tabulation area:"+geoid)
	q.Set("key", f.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "census", err, "failed to build Census Data API request")
	}

	body, _, err := f.client.Get(ctx, req)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "census", err,
			fmt.Sprintf("Census Data API request failed for ZCTA %s", geoid), "check the API key and ZCTA code")
	}

	return parseDataAPIResponse(body, variableCodes, f.year, f.dataset)
}

// fetchCounty issues a single request for every county in stateFIPS.
func (f *Fetcher) fetchCounty(ctx context.Context, stateFIPS string, variableCodes []string) ([]types.CensusDataPoint, error) {
	u, _ := url.Parse(fmt.Sprintf("%s/%d/%s", f.baseURL, f.year, f.dataset))
	q := u.Query()
	q.Set("get", strings.Join(variableCodes, ","))
	q.Set("for", "county:*")
	q.Set("in", "state:"+stateFIPS)
	q.Set("key", f.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "census", err, "failed to build Census Data API request")
	}

	body, _, err := f.client.Get(ctx, req)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "census", err,
			"Census Data API request failed", "check the API key and state FIPS code")
	}

	return parseDataAPIResponse(body, variableCodes, f.year, f.dataset)
}

// fetchState issues a single request for the given list of state GEOIDs.
func (f *Fetcher) fetchState(ctx context.Context, stateFIPSs []string, variableCodes []string) ([]types.CensusDataPoint, error) {
	u, _ := url.Parse(fmt.Sprintf("%s/%d/%s", f.baseURL, f.year, f.dataset))
	q := u.Query()
	q.Set("get", strings.Join(variableCodes, ","))
	q.Set("for", "state:"+strings.Join(stateFIPSs, ","))
	q.Set("key", f.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "census", err, "failed to build Census Data API request")
	}

	body, _, err := f.client.Get(ctx, req)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "census", err,
			"Census Data API request failed", "check the API key and state FIPS codes")
	}

	return parseDataAPIResponse(body, variableCodes, f.year, f.dataset)
}

func toSet(geoids []string) map[string]bool {
	set := make(map[string]bool, len(geoids))
	for _, g := range geoids {
		set[g] = true
	}
	return set
}

// intersectByGEOID drops any point whose GEOID wasn't in the originally
// requested set, per spec.md §4.7 ("Intersect response GEOIDs with
// requested set") — a county/state/block-group query can return more
// rows than requested since the "for" clause enumerates every unit in
// the containing area.
func intersectByGEOID(points []types.CensusDataPoint, requested map[string]bool) []types.CensusDataPoint {
	filtered := make([]types.CensusDataPoint, 0, len(points))
	for _, p := range points {
		if requested[p.GEOID] {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// ensureNamePresent appends NAME to the variable list if absent, since
// the human-readable name column is useful for diagnostics even though
// it's dropped before the final enriched output (C6 supplies the
// human-readable column labels instead).
func ensureNamePresent(codes []string) []string {
	for _, c := range codes {
		if c == "NAME" {
			return codes
		}
	}
	return append(append([]string{}, codes...), "NAME")
}

func groupGEOIDsByStateCounty(geoids []string) map[string]map[string]bool {
	groups := map[string]map[string]bool{}
	for _, geoid := range geoids {
		if len(geoid) < 5 {
			continue
		}
		state, county := geoid[:2], geoid[2:5]
		if groups[state] == nil {
			groups[state] = map[string]bool{}
		}
		groups[state][county] = true
	}
	return groups
}

// CacheKey builds a deterministic cache key from the request
// parameters, mirroring census_data/cache.py's generate_cache_key
// (sorted inputs hashed via a stable JSON encoding).
func CacheKey(geoids, variableCodes []string, year int, dataset string) string {
	sortedGEOIDs := append([]string{}, geoids...)
	sort.Strings(sortedGEOIDs)
	sortedVars := append([]string{}, variableCodes...)
	sort.Strings(sortedVars)

	params := struct {
		GEOIDs    []string `json:"geoids"`
		Variables []string `json:"variables"`
		Year      int      `json:"year"`
		Dataset   string   `json:"dataset"`
	}{sortedGEOIDs, sortedVars, year, dataset}

	encoded, _ := json.Marshal(params)
	return "census:" + strconv.Itoa(len(encoded)) + ":" + hashBytes(encoded)
}
