package types

// TravelMode enumerates the supported travel modes. Only ModeDrive
// builds a road network in this version (see Open Question
// resolutions); the others are accepted for forward compatibility and
// rejected with a clear error at the orchestrator boundary.
type TravelMode string

const (
	ModeWalk  TravelMode = "walk"
	ModeBike  TravelMode = "bike"
	ModeDrive TravelMode = "drive"
)

// POISourceKind selects which of C8/C9's POI extraction paths the
// orchestrator takes.
type POISourceKind string

const (
	POISourceOSM       POISourceKind = "osm"
	POISourceCSV       POISourceKind = "csv"
	POISourceJSON      POISourceKind = "json"
	POISourceAddresses POISourceKind = "addresses"
)

// OSMPOISpec names an OSM POI query by place name and tag, the input
// shape for the OSM extraction path (C8).
type OSMPOISpec struct {
	GeocodeArea    string
	State          string
	City           string
	POIType        string // amenity, shop, tourism, leisure, healthcare, education, public_transport, office, craft, emergency
	POIName        string
	AdditionalTags map[string]string
	SearchRadiusKM float64 // defaults to 20km around the resolved geocode_area center
}

// POISource is the union of POI input paths: exactly one of OSM,
// FilePath (for CSV/JSON), or Addresses should be set, matching Kind.
type POISource struct {
	Kind      POISourceKind
	OSM       OSMPOISpec
	FilePath  string
	Addresses []string
}

// AnalysisOptions carries the run's analysis-level parameters, the Go
// equivalent of spec.md's "analysis options" input object.
type AnalysisOptions struct {
	TravelTimeMinutes int
	TravelMode        TravelMode
	GeographyLevel    GeographyLevel
	CensusVariables   []string // human names or variable codes
	OutputDir         string
	ExportCSV         bool
	ExportMaps        bool
	ExportIsochrones  bool
	MaxPOICount       int // 0 means no subsampling
}
