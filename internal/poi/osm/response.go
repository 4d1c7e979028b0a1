package osm

import (
	"encoding/json"

	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/types"
)

// overpassResponse models the subset of the Overpass JSON response this
// module consumes: nodes have lat/lon directly, ways carry a "center"
// point (from "out center").
type overpassResponse struct {
	Elements []struct {
		Type string            `json:"type"`
		ID   int64             `json:"id"`
		Lat  float64           `json:"lat"`
		Lon  float64           `json:"lon"`
		Tags map[string]string `json:"tags"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
	} `json:"elements"`
}

func parseOverpassResponse(body []byte, tag string) ([]types.POI, error) {
	var resp overpassResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errs.Wrap(errs.KindDataProcessing, "poi_extraction", err, "failed to parse Overpass response")
	}

	pois := make([]types.POI, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		lat, lon := el.Lat, el.Lon
		if el.Center != nil {
			lat, lon = el.Center.Lat, el.Center.Lon
		}
		poi := types.POI{
			ID:   stableID(el.Type, el.ID),
			Name: el.Tags["name"],
			Lat:  lat,
			Lon:  lon,
			Type: tag,
			Tags: el.Tags,
		}
		if poi.Valid() {
			pois = append(pois, poi)
		}
	}
	return pois, nil
}
