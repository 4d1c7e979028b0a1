// Package isochrone is C10: for each POI and a travel-time budget,
// produce the polygon of places reachable by road within that budget.
// POIs are first grouped with DBSCAN so nearby POIs share a single
// road-network download (cluster.go); each cluster's network is
// assembled into a weighted graph (network.go); a POI's isochrone is
// the convex hull (hull.go) of the ego-subgraph reachable within the
// time budget (dijkstra.go).
package isochrone

import (
	"context"
	"log/slog"
	"math"

	"github.com/paulmach/orb"

	"github.com/socialmapper/socialmapper/internal/invalid"
	"github.com/socialmapper/socialmapper/internal/poi/osm"
	"github.com/socialmapper/socialmapper/internal/types"
)

const (
	// DefaultBufferKM expands a cluster's bounding box before
	// downloading its road network, so POIs near the edge of the
	// cluster still see roads just outside it.
	DefaultBufferKM = 5.0
	// assumedMaxSpeedKMH bounds the point-radius download for a
	// singleton cluster; it is intentionally higher than
	// defaultEdgeSpeedKMH since it must cover the fastest plausible
	// route out of the POI, not a typical one.
	assumedMaxSpeedKMH = 105.0
)

// Options configures Engine.
type Options struct {
	MaxClusterRadiusKM float64 // DBSCAN eps, default 10
	MinClusterSize     int     // DBSCAN min_samples, default 2
	BufferKM           float64 // default DefaultBufferKM
	AvgTravelSpeedKMH  float64 // reported constant speed, default 50
}

// DefaultOptions mirrors spec.md's defaults.
func DefaultOptions() Options {
	return Options{
		MaxClusterRadiusKM: 10,
		MinClusterSize:     2,
		BufferKM:           DefaultBufferKM,
		AvgTravelSpeedKMH:  50,
	}
}

// Engine generates isochrones for a batch of POIs.
type Engine struct {
	provider NetworkProvider
	tracker  *invalid.Tracker
	logger   *slog.Logger
	opts     Options
}

// New builds an Engine. tracker may be nil, in which case failures are
// only logged, not recorded for the end-of-run report.
func New(provider NetworkProvider, tracker *invalid.Tracker, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxClusterRadiusKM <= 0 {
		opts.MaxClusterRadiusKM = DefaultOptions().MaxClusterRadiusKM
	}
	if opts.MinClusterSize <= 0 {
		opts.MinClusterSize = DefaultOptions().MinClusterSize
	}
	if opts.BufferKM <= 0 {
		opts.BufferKM = DefaultBufferKM
	}
	if opts.AvgTravelSpeedKMH <= 0 {
		opts.AvgTravelSpeedKMH = DefaultOptions().AvgTravelSpeedKMH
	}
	return &Engine{provider: provider, tracker: tracker, logger: logger.With("component", "isochrone"), opts: opts}
}

// Generate produces one isochrone per POI for the given travel-time
// budget in minutes. POIs whose cluster's network download fails, that
// cannot be snapped to a node, or whose ego-subgraph has fewer than 2
// reachable nodes, are recorded in the invalid tracker (if set) and
// excluded from the result rather than failing the whole batch. A POI
// whose reachable nodes give fewer than 3 distinct hull points is
// recorded too, but stays in the result with Degenerate set and an
// empty polygon.
func (e *Engine) Generate(ctx context.Context, pois []types.POI, travelTimeMinutes int) ([]types.Isochrone, error) {
	clusters := clusterPOIs(pois, e.opts.MaxClusterRadiusKM, e.opts.MinClusterSize)
	budgetSec := int64(travelTimeMinutes * 60)

	var isochrones []types.Isochrone
	for _, cluster := range clusters {
		bbox := e.clusterBoundingBox(cluster, travelTimeMinutes)

		network, err := e.provider.FetchNetwork(ctx, bbox)
		if err != nil {
			e.logger.Warn("road network download failed for cluster", "error", err, "pois", len(cluster.POIs))
			if e.tracker != nil {
				e.tracker.RecordCluster(types.InvalidRecord{
					Reason: err.Error(),
					Stage:  types.StageIsochrone,
					Data:   map[string]any{"poi_count": len(cluster.POIs)},
				})
			}
			continue
		}

		for _, p := range cluster.POIs {
			iso, ok := e.isochroneForPOI(p, network, budgetSec, travelTimeMinutes)
			if !ok {
				continue
			}
			isochrones = append(isochrones, iso)
		}
	}

	return isochrones, nil
}

func (e *Engine) isochroneForPOI(p types.POI, network *RoadNetwork, budgetSec int64, travelTimeMinutes int) (types.Isochrone, bool) {
	startKey, found := nearestNode(network.NodeCoords, p.Lat, p.Lon)
	if !found {
		e.recordDegenerate(p, "POI could not be snapped to any road network node")
		return types.Isochrone{}, false
	}

	reachable := egoGraph(network.Graph, startKey, budgetSec)
	if len(reachable) < 2 {
		e.recordDegenerate(p, "fewer than 2 reachable nodes within travel-time budget")
		return types.Isochrone{}, false
	}

	coords := make([]orb.Point, 0, len(reachable))
	for _, key := range reachable {
		if pt, ok := network.NodeCoords[key]; ok {
			coords = append(coords, pt)
		}
	}

	hull := convexHull(coords)
	mphFactor := 0.621371
	iso := types.Isochrone{
		POIID:             p.ID,
		POIName:           p.Name,
		TravelTimeMinutes: travelTimeMinutes,
		AvgTravelSpeedKMH: e.opts.AvgTravelSpeedKMH,
		AvgTravelSpeedMPH: e.opts.AvgTravelSpeedKMH * mphFactor,
	}
	if hull == nil {
		iso.Degenerate = true
		if e.tracker != nil {
			e.tracker.RecordCluster(types.InvalidRecord{
				Reason: "isolated POI: fewer than 3 distinct reachable nodes",
				Stage:  types.StageIsochrone,
				Data:   map[string]any{"poi_id": p.ID},
			})
		}
		return iso, true
	}
	iso.Polygon = orb.Polygon{hull}
	return iso, true
}

func (e *Engine) recordDegenerate(p types.POI, reason string) {
	e.logger.Warn("degenerate isochrone", "poi_id", p.ID, "reason", reason)
	if e.tracker != nil {
		e.tracker.RecordCluster(types.InvalidRecord{
			Reason: reason,
			Stage:  types.StageIsochrone,
			Data:   map[string]any{"poi_id": p.ID},
		})
	}
}

// clusterBoundingBox derives the Overpass query region for a cluster:
// a point-radius buffer around a singleton POI (sized to the distance
// the fastest plausible route could cover in the travel-time budget),
// or the cluster's own bounding box expanded by BufferKM otherwise.
func (e *Engine) clusterBoundingBox(cluster Cluster, travelTimeMinutes int) osm.BoundingBox {
	if cluster.IsSingleton {
		radiusKM := (float64(travelTimeMinutes)/60)*assumedMaxSpeedKMH + e.opts.BufferKM
		return expandPointByKM(cluster.CentroidLat, cluster.CentroidLon, radiusKM)
	}

	minLat, minLon := math.MaxFloat64, math.MaxFloat64
	maxLat, maxLon := -math.MaxFloat64, -math.MaxFloat64
	for _, p := range cluster.POIs {
		minLat, maxLat = math.Min(minLat, p.Lat), math.Max(maxLat, p.Lat)
		minLon, maxLon = math.Min(minLon, p.Lon), math.Max(maxLon, p.Lon)
	}

	latDelta := e.opts.BufferKM / kmPerDegreeLat
	cosLat := math.Cos(cluster.CentroidLat * math.Pi / 180)
	lonDelta := e.opts.BufferKM / (kmPerDegreeLat * math.Max(cosLat, 0.01))

	return osm.BoundingBox{
		MinLat: minLat - latDelta,
		MinLon: minLon - lonDelta,
		MaxLat: maxLat + latDelta,
		MaxLon: maxLon + lonDelta,
	}
}

func expandPointByKM(lat, lon, radiusKM float64) osm.BoundingBox {
	latDelta := radiusKM / kmPerDegreeLat
	cosLat := math.Cos(lat * math.Pi / 180)
	lonDelta := radiusKM / (kmPerDegreeLat * math.Max(cosLat, 0.01))

	return osm.BoundingBox{
		MinLat: lat - latDelta,
		MinLon: lon - lonDelta,
		MaxLat: lat + latDelta,
		MaxLon: lon + lonDelta,
	}
}
