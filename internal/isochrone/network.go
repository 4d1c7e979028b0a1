package isochrone

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/lvlath/core"
	"github.com/paulmach/orb"

	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/poi/osm"
)

// defaultEdgeSpeedKMH is the fallback speed assigned to a road segment
// whose "highway" tag has no entry in highwaySpeedsKMH.
const defaultEdgeSpeedKMH = 50.0

// highwaySpeedsKMH assigns a default travel speed by OSM highway
// classification; unlisted classes fall back to defaultEdgeSpeedKMH.
var highwaySpeedsKMH = map[string]float64{
	"motorway":      105,
	"motorway_link": 70,
	"trunk":         90,
	"trunk_link":    60,
	"primary":       70,
	"primary_link":  50,
	"secondary":     60,
	"tertiary":      50,
	"residential":   30,
	"living_street": 15,
	"unclassified":  40,
	"service":       20,
}

// RoadNetwork is a routable graph built from OSM highway ways: vertex
// IDs are stringified OSM node IDs, edge weights are travel time in
// whole seconds, and NodeCoords recovers each vertex's WGS84 position
// for the convex-hull step.
type RoadNetwork struct {
	Graph      *core.Graph
	NodeCoords map[string]orb.Point
}

// NetworkProvider acquires a routable road network covering bbox. The
// one production implementation, overpassNetworkProvider, synthesizes
// the graph from OSM ways; tests substitute a fixed in-memory network.
type NetworkProvider interface {
	FetchNetwork(ctx context.Context, bbox osm.BoundingBox) (*RoadNetwork, error)
}

// overpassNetworkProvider fetches highway ways from OSM via C8's
// Overpass query machinery and assembles them into a weighted graph.
type overpassNetworkProvider struct {
	source *osm.Source
}

// NewOverpassNetworkProvider builds a NetworkProvider backed by the
// shared Overpass source.
func NewOverpassNetworkProvider(source *osm.Source) NetworkProvider {
	return &overpassNetworkProvider{source: source}
}

func (p *overpassNetworkProvider) FetchNetwork(ctx context.Context, bbox osm.BoundingBox) (*RoadNetwork, error) {
	nodes, ways, err := p.source.QueryRoadNetwork(ctx, bbox)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 || len(ways) == 0 {
		return nil, errs.New(errs.KindNoDataFound, "isochrone", "no road network data returned for cluster bounding box")
	}

	coordsByID := make(map[int64]orb.Point, len(nodes))
	for _, n := range nodes {
		coordsByID[n.ID] = orb.Point{n.Lon, n.Lat}
	}

	g := core.NewGraph(core.WithWeighted())
	nodeCoords := make(map[string]orb.Point)

	for _, way := range ways {
		speed := edgeSpeedKMH(way.Tags["highway"])
		for i := 0; i+1 < len(way.NodeIDs); i++ {
			fromID, toID := way.NodeIDs[i], way.NodeIDs[i+1]
			fromPt, ok1 := coordsByID[fromID]
			toPt, ok2 := coordsByID[toID]
			if !ok1 || !ok2 {
				continue
			}

			lengthM := haversineKM(fromPt.Lat(), fromPt.Lon(), toPt.Lat(), toPt.Lon()) * 1000
			travelTimeSec := lengthM / (speed * 1000 / 3600)

			fromKey, toKey := nodeKey(fromID), nodeKey(toID)
			if _, err := g.AddEdge(fromKey, toKey, int64(math.Round(travelTimeSec))); err != nil {
				continue
			}
			nodeCoords[fromKey] = fromPt
			nodeCoords[toKey] = toPt
		}
	}

	return &RoadNetwork{Graph: g, NodeCoords: nodeCoords}, nil
}

func edgeSpeedKMH(highway string) float64 {
	if speed, ok := highwaySpeedsKMH[highway]; ok {
		return speed
	}
	return defaultEdgeSpeedKMH
}

func nodeKey(osmNodeID int64) string {
	return fmt.Sprintf("n%d", osmNodeID)
}

// nearestNode returns the graph vertex closest to (lat, lon), used to
// snap a POI onto the road network.
func nearestNode(coords map[string]orb.Point, lat, lon float64) (string, bool) {
	var bestKey string
	bestDist := math.MaxFloat64
	found := false
	for key, pt := range coords {
		d := haversineKM(lat, lon, pt.Lat(), pt.Lon())
		if d < bestDist {
			bestDist = d
			bestKey = key
			found = true
		}
	}
	return bestKey, found
}
