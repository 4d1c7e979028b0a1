package census

import (
	"encoding/json"
	"strconv"

	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/types"
)

// parseDataAPIResponse parses the Census Data API's row-of-arrays
// response: the first row is a header naming each requested variable
// plus the "for"/"in" geography columns, and each subsequent row is one
// geography's values in the same column order.
func parseDataAPIResponse(body []byte, variableCodes []string, year int, dataset string) ([]types.CensusDataPoint, error) {
	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, errs.Wrap(errs.KindDataProcessing, "census", err, "failed to parse Census Data API response")
	}
	if len(rows) < 2 {
		return nil, errs.New(errs.KindNoDataFound, "census", "Census Data API returned no rows")
	}

	header := rows[0]
	colIndex := map[string]int{}
	for i, name := range header {
		colIndex[name] = i
	}

	stateIdx, hasState := colIndex["state"]
	countyIdx, hasCounty := colIndex["county"]
	tractIdx, hasTract := colIndex["tract"]
	bgIdx, hasBG := colIndex["block group"]
	zctaIdx, hasZCTA := colIndex["zip code tabulation area"]

	var points []types.CensusDataPoint
	for _, row := range rows[1:] {
		geoid := ""
		switch {
		case hasZCTA:
			geoid = row[zctaIdx]
		case hasBG && hasTract && hasCounty && hasState:
			geoid = row[stateIdx] + row[countyIdx] + row[tractIdx] + row[bgIdx]
		case hasTract && hasCounty && hasState:
			geoid = row[stateIdx] + row[countyIdx] + row[tractIdx]
		case hasCounty && hasState:
			geoid = row[stateIdx] + row[countyIdx]
		case hasState:
			geoid = row[stateIdx]
		}
		if geoid == "" {
			continue
		}

		for _, code := range variableCodes {
			if code == "NAME" {
				continue
			}
			idx, ok := colIndex[code]
			if !ok || idx >= len(row) {
				continue
			}
			points = append(points, types.CensusDataPoint{
				GEOID: geoid, VariableCode: code, Value: parseCensusValue(row[idx]),
				Year: year, Dataset: dataset,
			})
		}
	}
	return points, nil
}

// parseCensusValue converts a Census API cell to *float64, returning
// nil for the API's documented null sentinels (empty string or
// negative placeholder codes like -666666666).
func parseCensusValue(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	if v <= -666666666 {
		return nil
	}
	return &v
}
