// Package types holds the value-typed data model shared across every
// SocialMapper component: POIs, isochrones, geographic units, census
// records, and the bookkeeping types the orchestrator threads through
// the pipeline.
package types

import "fmt"

// POI is a single point of interest, either discovered from OpenStreetMap
// or supplied directly as coordinates/an address.
type POI struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
	Type string
	Tags map[string]string
}

// Valid reports whether the POI's coordinates are present and within
// WGS84 bounds. Called once a source's coordinate fields have been
// resolved into Lat/Lon.
func (p POI) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180 &&
		!isNaNOrInf(p.Lat) && !isNaNOrInf(p.Lon)
}

func isNaNOrInf(f float64) bool {
	return f != f || f > 1e308 || f < -1e308
}

// BatchMetadata carries accounting information about how a POIBatch was
// produced: the set of states it touches and, if subsampling occurred,
// the original count.
type BatchMetadata struct {
	States        []string
	OriginalCount int
	Sampled       bool
}

// POIBatch is the input to the isochrone stage: a set of POIs plus
// metadata about how they were assembled.
type POIBatch struct {
	POIs     []POI
	Metadata BatchMetadata
}

// String renders a POI for logging.
func (p POI) String() string {
	if p.Name != "" {
		return fmt.Sprintf("%s(%s)", p.Name, p.ID)
	}
	return p.ID
}
