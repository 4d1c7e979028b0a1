package neighbors

import (
	"context"
	"log/slog"

	"github.com/socialmapper/socialmapper/internal/httpclient"
	"github.com/socialmapper/socialmapper/internal/types"
)

// pointGeocoder resolves a coordinate to its containing census
// geographies, satisfied by *geocoder.Geocoder. Defined locally to
// avoid an import cycle (geocoder has no need to know about neighbors).
type pointGeocoder interface {
	GeocodePoint(ctx context.Context, lat, lon float64) (types.GeocodeResult, error)
}

// Manager orchestrates neighbor computation and lookup, mirroring
// NeighborManager: state adjacency is static, county adjacency is
// computed per state by InitializeCountyNeighbors and cached in Store.
type Manager struct {
	store    Store
	client   *httpclient.Client
	geocoder pointGeocoder
	logger   *slog.Logger
}

// NewManager builds a Manager over the given store, HTTP client, and
// point geocoder.
func NewManager(store Store, client *httpclient.Client, geocoder pointGeocoder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, client: client, geocoder: geocoder, logger: logger.With("component", "neighbors")}
}

// StateNeighbors returns the FIPS codes of states adjacent to stateFIPS.
func (m *Manager) StateNeighbors(ctx context.Context, stateFIPS string) ([]string, error) {
	return m.store.StateNeighbors(ctx, stateFIPS)
}

// GeographyOfPoint resolves a coordinate to its containing geographies,
// checking the point cache before falling through to the geocoder.
func (m *Manager) GeographyOfPoint(ctx context.Context, lat, lon float64) (types.GeocodeResult, error) {
	if cached, ok, err := m.store.CachedGeography(ctx, lat, lon); err == nil && ok {
		return cached, nil
	}

	result, err := m.geocoder.GeocodePoint(ctx, lat, lon)
	if err != nil {
		return types.GeocodeResult{}, err
	}
	if err := m.store.CacheGeography(ctx, result); err != nil {
		m.logger.Warn("failed to cache point geography", "lat", lat, "lon", lon, "error", err)
	}
	return result, nil
}

// CountiesOfPOIs returns the set union of each POI's home county and,
// when includeNeighbors is true, the neighbor-closure of those counties
// up to depth hops over county adjacency (BFS, visited set prevents
// revisits).
func (m *Manager) CountiesOfPOIs(ctx context.Context, pois []types.POI, includeNeighbors bool, depth int) ([]string, error) {
	visited := map[string]bool{}
	queue := make([]string, 0, len(pois))

	for _, p := range pois {
		geo, err := m.GeographyOfPoint(ctx, p.Lat, p.Lon)
		if err != nil {
			m.logger.Warn("failed to resolve POI geography", "poi", p.ID, "error", err)
			continue
		}
		if geo.StateFIPS == "" || geo.CountyFIPS == "" {
			continue
		}
		countyGEOID := geo.StateFIPS + geo.CountyFIPS
		if !visited[countyGEOID] {
			visited[countyGEOID] = true
			queue = append(queue, countyGEOID)
		}
	}

	if includeNeighbors {
		for d := 0; d < depth && len(queue) > 0; d++ {
			var next []string
			for _, countyGEOID := range queue {
				state, county := countyGEOID[:2], countyGEOID[2:]
				rels, err := m.store.CountyNeighbors(ctx, state, county)
				if err != nil {
					return nil, err
				}
				for _, r := range rels {
					if !visited[r.NeighborGEOID] {
						visited[r.NeighborGEOID] = true
						next = append(next, r.NeighborGEOID)
					}
				}
			}
			queue = next
		}
	}

	result := make([]string, 0, len(visited))
	for geoid := range visited {
		result = append(result, geoid)
	}
	return result, nil
}

// InitializeCountyNeighbors computes and persists intra-state county
// adjacency for stateFIPS, fetching county boundaries from TIGERweb and
// testing each pair for a shared edge. It fetches and recomputes on
// every call; it does not check for rows already stored.
func (m *Manager) InitializeCountyNeighbors(ctx context.Context, stateFIPS string) (int, error) {
	counties, err := FetchCountiesFromAPI(ctx, m.client, stateFIPS)
	if err != nil {
		return 0, err
	}

	rels := computeCountyNeighborsSpatial(counties)
	if len(rels) == 0 {
		return 0, nil
	}
	if err := m.store.SaveCountyNeighbors(ctx, rels); err != nil {
		return 0, err
	}
	m.logger.Info("computed county neighbors", "state", stateFIPS, "relationships", len(rels))
	return len(rels), nil
}

// CountyNeighbors returns cached county adjacency rows for a county.
func (m *Manager) CountyNeighbors(ctx context.Context, stateFIPS, countyFIPS string) ([]string, error) {
	rels, err := m.store.CountyNeighbors(ctx, stateFIPS, countyFIPS)
	if err != nil {
		return nil, err
	}
	geoids := make([]string, 0, len(rels))
	for _, r := range rels {
		geoids = append(geoids, r.NeighborGEOID)
	}
	return geoids, nil
}
