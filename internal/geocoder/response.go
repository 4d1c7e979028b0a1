package geocoder

import (
	"encoding/json"

	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/types"
)

// geographiesResponse models the subset of the Census coordinates
// geography response this module consumes.
type geographiesResponse struct {
	Result struct {
		Geographies map[string][]geographyEntry `json:"geographies"`
	} `json:"result"`
}

type geographyEntry struct {
	GEOID    string `json:"GEOID"`
	State    string `json:"STATE"`
	County   string `json:"COUNTY"`
	Tract    string `json:"TRACT"`
	BlkGrp   string `json:"BLKGRP"`
	ZCTA5    string `json:"ZCTA5"`
}

func parseGeographiesResponse(body []byte, lat, lon float64) (types.GeocodeResult, error) {
	var resp geographiesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return types.GeocodeResult{}, errs.Wrap(errs.KindDataProcessing, "geocoding", err,
			"failed to parse census geographies response")
	}

	result := types.GeocodeResult{Lat: lat, Lon: lon, Source: "coordinates", Confidence: 1.0}

	for layer, entries := range resp.Result.Geographies {
		if len(entries) == 0 {
			continue
		}
		entry := entries[0]
		switch layer {
		case "Census Block Groups":
			result.StateFIPS = entry.State
			result.CountyFIPS = entry.County
			result.BlockGroupGEOID = entry.GEOID
		case "Census Tracts":
			result.TractGEOID = entry.GEOID
		case "Counties":
			result.CountyFIPS = entry.County
			result.StateFIPS = entry.State
		case "States":
			result.StateFIPS = entry.State
		case "Zip Code Tabulation Areas":
			result.ZCTAGEOID = entry.ZCTA5
		}
	}

	if result.StateFIPS == "" {
		return types.GeocodeResult{}, errs.New(errs.KindNoDataFound, "geocoding",
			"no census geography found for the given coordinates",
			"verify coordinates fall within the United States")
	}
	return result, nil
}

// oneLineAddressResponse models the subset of the Census one-line
// address response this module consumes.
type oneLineAddressResponse struct {
	Result struct {
		AddressMatches []struct {
			Coordinates struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"coordinates"`
		} `json:"addressMatches"`
	} `json:"result"`
}

func parseOneLineAddressResponse(body []byte) (lat, lon float64, err error) {
	var resp oneLineAddressResponse
	if uErr := json.Unmarshal(body, &resp); uErr != nil {
		return 0, 0, uErr
	}
	if len(resp.Result.AddressMatches) == 0 {
		return 0, 0, errs.New(errs.KindNoDataFound, "geocoding", "no address match returned")
	}
	match := resp.Result.AddressMatches[0]
	return match.Coordinates.Y, match.Coordinates.X, nil
}
