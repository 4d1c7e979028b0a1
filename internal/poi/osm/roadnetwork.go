package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/socialmapper/socialmapper/internal/errs"
)

// RoadNode is a single OSM node that participates in at least one
// highway way, as returned by QueryRoadNetwork.
type RoadNode struct {
	ID  int64
	Lat float64
	Lon float64
}

// RoadWay is a single OSM highway way, carrying the ordered node IDs
// that make up its geometry and its relevant tags (notably "highway",
// used to pick a default edge speed).
type RoadWay struct {
	ID      int64
	NodeIDs []int64
	Tags    map[string]string
}

// QueryRoadNetwork fetches every highway way within bbox along with
// its constituent nodes, generalizing buildPOIQuery's bbox-filter
// pattern to the "(._;>;)" recurse-down idiom needed to resolve a way's
// node geometry instead of just its computed center.
func (s *Source) QueryRoadNetwork(ctx context.Context, bbox BoundingBox) ([]RoadNode, []RoadWay, error) {
	query := s.buildRoadNetworkQuery(bbox)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, errs.Wrap(errs.KindExternalService, "isochrone", err, "failed to build Overpass road network request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, _, err := s.client.Get(ctx, req)
	if err != nil {
		return nil, nil, errs.Wrap(errs.KindExternalService, "isochrone", err,
			"Overpass road network query failed", "check network connectivity to the Overpass endpoint")
	}

	return parseRoadNetworkResponse(body)
}

// buildRoadNetworkQuery builds an Overpass QL query for every highway
// way in bbox plus its member nodes: "(._;>;)" recurses from the way
// set down to the nodes that define each way's geometry.
func (s *Source) buildRoadNetworkQuery(bbox BoundingBox) string {
	bboxStr := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", bbox.MinLat, bbox.MinLon, bbox.MaxLat, bbox.MaxLon)

	return fmt.Sprintf(`[out:json][timeout:%d];
way["highway"](%s);
(._;>;);
out body;`, s.cfg.Timeout, bboxStr)
}

type roadElement struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

type roadNetworkResponse struct {
	Elements []roadElement `json:"elements"`
}

func parseRoadNetworkResponse(body []byte) ([]RoadNode, []RoadWay, error) {
	var resp roadNetworkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, errs.Wrap(errs.KindDataProcessing, "isochrone", err, "failed to parse Overpass road network response")
	}

	var nodes []RoadNode
	var ways []RoadWay
	for _, el := range resp.Elements {
		switch el.Type {
		case "node":
			nodes = append(nodes, RoadNode{ID: el.ID, Lat: el.Lat, Lon: el.Lon})
		case "way":
			ways = append(ways, RoadWay{ID: el.ID, NodeIDs: el.Nodes, Tags: el.Tags})
		}
	}
	return nodes, ways, nil
}
