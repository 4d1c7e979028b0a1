package types

import (
	"time"

	"github.com/paulmach/orb"
)

// Isochrone is a travel-time reachable polygon for a single POI.
type Isochrone struct {
	POIID             string
	POIName           string
	TravelTimeMinutes int
	Polygon           orb.Polygon
	AvgTravelSpeedKMH float64
	AvgTravelSpeedMPH float64
	Degenerate        bool // true when the polygon has fewer than 3 distinct points
}

// GeographyLevel enumerates the supported census geography levels.
type GeographyLevel string

const (
	LevelState      GeographyLevel = "state"
	LevelCounty     GeographyLevel = "county"
	LevelTract      GeographyLevel = "tract"
	LevelBlockGroup GeographyLevel = "block-group"
	LevelZCTA       GeographyLevel = "zcta"
)

// GeographicUnit is one areal census unit: a state, county, tract,
// block group, or ZCTA, with its polygon boundary.
type GeographicUnit struct {
	GEOID          string
	Level          GeographyLevel
	Name           string
	StateFIPS      string
	CountyFIPS     string
	TractCode      string
	BlockGroupCode string
	Geometry       orb.Polygon
}

// CensusVariable pairs a Census Bureau variable code with its
// human-readable name.
type CensusVariable struct {
	Code       string
	HumanName  string
}

// CensusDataPoint is a single (geoid, variable) observation. Value is
// nil when the Census API returned its null sentinel or an empty cell.
type CensusDataPoint struct {
	GEOID        string
	VariableCode string
	Value        *float64
	Year         int
	Dataset      string
}

// NeighborKind enumerates the supported neighbor-relationship kinds.
type NeighborKind string

const NeighborAdjacent NeighborKind = "adjacent"

// NeighborRelationship is one directed adjacency edge. Symmetric
// relationships are stored as two rows, one per direction.
type NeighborRelationship struct {
	SourceGEOID         string
	NeighborGEOID       string
	Kind                NeighborKind
	SharedBoundaryLength float64
}

// GeocodeResult is the outcome of a point or address geocode lookup.
// Any field besides Lat/Lon may be unset when the upstream service
// could not resolve it.
type GeocodeResult struct {
	Lat              float64
	Lon              float64
	StateFIPS        string
	CountyFIPS       string
	TractGEOID       string
	BlockGroupGEOID  string
	ZCTAGEOID        string
	Confidence       float64
	Source           string
}

// CacheEntry is a single cached value with its expiry.
type CacheEntry struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Expired reports whether the entry is past its TTL as of now.
func (e CacheEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// InvalidStage identifies which pipeline stage rejected a record.
type InvalidStage string

const (
	StagePOIExtraction   InvalidStage = "poi_extraction"
	StageIsochrone       InvalidStage = "isochrone"
	StageIntersection    InvalidStage = "intersection"
	StageCensus          InvalidStage = "census"
	StageGeocoding       InvalidStage = "geocoding"
)

// InvalidRecord is one rejected input row, kept for the end-of-run
// invalid-data report.
type InvalidRecord struct {
	Data   map[string]any
	Reason string
	Stage  InvalidStage
}

// EnrichedRow is one output row: a geographic unit intersected by a
// POI's isochrone, carrying travel distance and (later) census values.
type EnrichedRow struct {
	GEOID                string
	POIID                string
	POIName              string
	TravelTimeMinutes    int
	AvgTravelSpeedKMH    float64
	AvgTravelSpeedMPH    float64
	TravelDistanceKM     float64
	TravelDistanceMiles  float64
	CensusValues         map[string]*float64 // human variable name -> value
}
