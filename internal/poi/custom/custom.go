// Package custom is C9: ingesting POIs supplied directly by the
// operator, either as CSV/JSON with coordinates, as a previously
// exported POIBatch, or as addresses resolved through the geocoder.
package custom

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/geocoder"
	"github.com/socialmapper/socialmapper/internal/types"
)

// latAliases and lonAliases list the column/field name variants this module
// accepts for latitude and longitude, matching
// distance/__init__.py's preprocess_poi_data coordinate-alias handling.
var latAliases = []string{"lat", "latitude", "y"}
var lonAliases = []string{"lon", "lng", "longitude", "x"}

// FromCSV parses a CSV file into POIs. Accepted columns: name, type,
// and either a lat/lon alias pair or a geometry column holding a
// GeoJSON Point string.
func FromCSV(r io.Reader) ([]types.POI, []types.InvalidRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, errs.Wrap(errs.KindDataProcessing, "poi_extraction", err, "failed to read CSV header")
	}
	colIndex := map[string]int{}
	for i, name := range header {
		colIndex[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var pois []types.POI
	var invalid []types.InvalidRecord
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			invalid = append(invalid, types.InvalidRecord{
				Reason: err.Error(), Stage: types.StagePOIExtraction,
				Data: map[string]any{"row": rowNum},
			})
			continue
		}

		poi, reason := csvRecordToPOI(header, colIndex, record)
		if reason != "" {
			invalid = append(invalid, types.InvalidRecord{
				Reason: reason, Stage: types.StagePOIExtraction,
				Data: rowToMap(header, record),
			})
			continue
		}
		pois = append(pois, poi)
	}
	return pois, invalid, nil
}

func csvRecordToPOI(header []string, colIndex map[string]int, record []string) (types.POI, string) {
	get := func(name string) (string, bool) {
		idx, ok := colIndex[name]
		if !ok || idx >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[idx]), true
	}

	lat, lon, ok := extractCoordinates(get)
	if !ok {
		if geomStr, ok := get("geometry"); ok && geomStr != "" {
			var err error
			lat, lon, err = parseGeoJSONPointString(geomStr)
			if err != nil {
				return types.POI{}, "no usable coordinate columns or geometry"
			}
		} else {
			return types.POI{}, "no usable coordinate columns or geometry"
		}
	}

	name, _ := get("name")
	poiType, _ := get("type")
	id, hasID := get("id")
	if !hasID || id == "" {
		id = uuid.NewString()
	}

	poi := types.POI{ID: id, Name: name, Lat: lat, Lon: lon, Type: poiType}
	if !poi.Valid() {
		return types.POI{}, fmt.Sprintf("coordinates (%v, %v) out of WGS84 bounds", lat, lon)
	}
	return poi, ""
}

func extractCoordinates(get func(string) (string, bool)) (lat, lon float64, ok bool) {
	var latStr, lonStr string
	var latOK, lonOK bool
	for _, alias := range latAliases {
		if v, present := get(alias); present && v != "" {
			latStr, latOK = v, true
			break
		}
	}
	for _, alias := range lonAliases {
		if v, present := get(alias); present && v != "" {
			lonStr, lonOK = v, true
			break
		}
	}
	if !latOK || !lonOK {
		return 0, 0, false
	}
	latF, err1 := strconv.ParseFloat(latStr, 64)
	lonF, err2 := strconv.ParseFloat(lonStr, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return latF, lonF, true
}

func rowToMap(header, record []string) map[string]any {
	m := make(map[string]any, len(header))
	for i, name := range header {
		if i < len(record) {
			m[name] = record[i]
		}
	}
	return m
}

// geoJSONPoint is the minimal shape this module reads from a geometry
// column's GeoJSON Point string.
type geoJSONPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func parseGeoJSONPointString(s string) (lat, lon float64, err error) {
	var pt geoJSONPoint
	if err := json.Unmarshal([]byte(s), &pt); err != nil {
		return 0, 0, err
	}
	if len(pt.Coordinates) != 2 {
		return 0, 0, fmt.Errorf("geometry column did not contain a Point with 2 coordinates")
	}
	return pt.Coordinates[1], pt.Coordinates[0], nil
}

// jsonPOI is the shape accepted by FromJSON, covering both a bare POI
// object and the property/geometry aliases preprocess_poi_data
// normalizes.
type jsonPOI struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Lat        *float64          `json:"lat"`
	Lon        *float64          `json:"lon"`
	Latitude   *float64          `json:"latitude"`
	Longitude  *float64          `json:"longitude"`
	Type       string            `json:"type"`
	Tags       map[string]string `json:"tags"`
	Properties *jsonPOI          `json:"properties"`
	Geometry   *geoJSONPoint     `json:"geometry"`
}

// jsonEnvelope supports the {"pois": [...]} shape that round-trips a
// previously exported POIBatch, alongside a bare array.
type jsonEnvelope struct {
	POIs []jsonPOI `json:"pois"`
}

// FromJSON parses either a bare JSON array of POI objects or a
// {"pois": [...]} envelope.
func FromJSON(r io.Reader) ([]types.POI, []types.InvalidRecord, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, errs.Wrap(errs.KindDataProcessing, "poi_extraction", err, "failed to read JSON input")
	}

	var raw []jsonPOI
	if err := json.Unmarshal(body, &raw); err != nil {
		var envelope jsonEnvelope
		if err2 := json.Unmarshal(body, &envelope); err2 != nil {
			return nil, nil, errs.Wrap(errs.KindDataProcessing, "poi_extraction", err,
				"JSON input must be an array of POIs or a {\"pois\": [...]} object")
		}
		raw = envelope.POIs
	}

	var pois []types.POI
	var invalid []types.InvalidRecord
	for i, j := range raw {
		poi, reason := jsonPOIToPOI(j)
		if reason != "" {
			invalid = append(invalid, types.InvalidRecord{
				Reason: reason, Stage: types.StagePOIExtraction,
				Data: map[string]any{"index": i},
			})
			continue
		}
		pois = append(pois, poi)
	}
	return pois, invalid, nil
}

func jsonPOIToPOI(j jsonPOI) (types.POI, string) {
	lat, lon, ok := resolveJSONCoordinates(j)
	if !ok {
		return types.POI{}, "no usable coordinate fields"
	}
	id := j.ID
	if id == "" {
		id = uuid.NewString()
	}
	name := j.Name
	if name == "" && j.Properties != nil {
		name = j.Properties.Name
	}
	poi := types.POI{ID: id, Name: name, Lat: lat, Lon: lon, Type: j.Type, Tags: j.Tags}
	if !poi.Valid() {
		return types.POI{}, fmt.Sprintf("coordinates (%v, %v) out of WGS84 bounds", lat, lon)
	}
	return poi, ""
}

func resolveJSONCoordinates(j jsonPOI) (lat, lon float64, ok bool) {
	switch {
	case j.Lat != nil && j.Lon != nil:
		return *j.Lat, *j.Lon, true
	case j.Latitude != nil && j.Longitude != nil:
		return *j.Latitude, *j.Longitude, true
	}
	if j.Properties != nil {
		if lat, lon, ok := resolveJSONCoordinates(*j.Properties); ok {
			return lat, lon, true
		}
	}
	if j.Geometry != nil && len(j.Geometry.Coordinates) == 2 {
		return j.Geometry.Coordinates[1], j.Geometry.Coordinates[0], true
	}
	return 0, 0, false
}

// FromAddresses resolves a list of address strings to POIs via the
// geocoder, recovering the "Addresses path" POI source named in
// spec.md §6 Input.
func FromAddresses(ctx context.Context, g *geocoder.Geocoder, addresses []string) ([]types.POI, []types.InvalidRecord, error) {
	var pois []types.POI
	var invalid []types.InvalidRecord
	for _, addr := range addresses {
		result, err := g.GeocodeAddress(ctx, addr)
		if err != nil {
			invalid = append(invalid, types.InvalidRecord{
				Reason: err.Error(), Stage: types.StageGeocoding,
				Data: map[string]any{"address": addr},
			})
			continue
		}
		pois = append(pois, types.POI{
			ID: uuid.NewString(), Name: addr, Lat: result.Lat, Lon: result.Lon, Type: "address",
		})
	}
	return pois, invalid, nil
}
