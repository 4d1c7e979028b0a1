package neighbors

import (
	"context"
	"net/http"
	"net/url"

	"github.com/paulmach/orb/geojson"

	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/geoutil"
	"github.com/socialmapper/socialmapper/internal/httpclient"
	"github.com/socialmapper/socialmapper/internal/types"
)

const countyMapServerURL = "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/State_County/MapServer/1/query"

// FetchCountiesFromAPI fetches every county boundary in a state from
// TIGERweb, mirroring _fetch_counties_from_api's where=STATE='..' query
// against MapServer/1.
func FetchCountiesFromAPI(ctx context.Context, client *httpclient.Client, stateFIPS string) ([]types.GeographicUnit, error) {
	u, _ := url.Parse(countyMapServerURL)
	q := u.Query()
	q.Set("where", "STATE='"+stateFIPS+"'")
	q.Set("outFields", "STATE,COUNTY,NAME,GEOID")
	q.Set("returnGeometry", "true")
	q.Set("f", "geojson")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "neighbors", err, "failed to build TIGERweb county request")
	}

	body, _, err := client.Get(ctx, req)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "neighbors", err,
			"TIGERweb county query failed", "check network connectivity to tigerweb.geo.census.gov")
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to parse TIGERweb county response")
	}

	units := make([]types.GeographicUnit, 0, len(fc.Features))
	for _, f := range fc.Features {
		unit, err := featureToCountyUnit(f)
		if err != nil {
			continue
		}
		units = append(units, unit)
	}
	if len(units) == 0 {
		return nil, errs.New(errs.KindNoDataFound, "neighbors",
			"no counties returned for state "+stateFIPS)
	}
	return units, nil
}

func featureToCountyUnit(f *geojson.Feature) (types.GeographicUnit, error) {
	geoid, _ := f.Properties["GEOID"].(string)
	state, _ := f.Properties["STATE"].(string)
	county, _ := f.Properties["COUNTY"].(string)
	name, _ := f.Properties["NAME"].(string)
	if geoid == "" {
		geoid = state + county
	}

	polygon, err := geoutil.GeometryToPolygon(f.Geometry)
	if err != nil {
		return types.GeographicUnit{}, err
	}

	return types.GeographicUnit{
		GEOID:      geoid,
		Level:      types.LevelCounty,
		Name:       name,
		StateFIPS:  state,
		CountyFIPS: county,
		Geometry:   polygon,
	}, nil
}
