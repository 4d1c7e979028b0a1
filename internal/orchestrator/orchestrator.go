// Package orchestrator is C14: the pipeline entry point. Run sequences
// C1-C13 across the seven steps spec.md names — environment setup, POI
// extraction, isochrone generation, candidate unit discovery, distance
// enrichment, census enrichment, and reporting — accumulating into a
// ResultBundle.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"sort"
	"strings"

	"github.com/socialmapper/socialmapper/internal/boundary"
	"github.com/socialmapper/socialmapper/internal/cache"
	"github.com/socialmapper/socialmapper/internal/census"
	"github.com/socialmapper/socialmapper/internal/census/variables"
	"github.com/socialmapper/socialmapper/internal/config"
	"github.com/socialmapper/socialmapper/internal/distance"
	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/geocoder"
	"github.com/socialmapper/socialmapper/internal/httpclient"
	"github.com/socialmapper/socialmapper/internal/invalid"
	"github.com/socialmapper/socialmapper/internal/isochrone"
	"github.com/socialmapper/socialmapper/internal/neighbors"
	"github.com/socialmapper/socialmapper/internal/poi/custom"
	"github.com/socialmapper/socialmapper/internal/poi/osm"
	"github.com/socialmapper/socialmapper/internal/spatial"
	"github.com/socialmapper/socialmapper/internal/types"
)

// ResultMetadata mirrors spec.md §6's returned metadata object.
type ResultMetadata struct {
	CenterLat     float64
	CenterLon     float64
	TravelTime    int
	Sampled       bool
	OriginalCount int
}

// ResultBundle is C14's return value: everything downstream reporting
// needs, without the orchestrator itself doing any file emission
// beyond what Report (report.go) writes under OutputDir.
type ResultBundle struct {
	POICount       int
	UnitsAnalyzed  int
	Rows           []types.EnrichedRow
	FilesGenerated map[string]string
	Metadata       ResultMetadata
	InvalidSummary invalid.Summary
}

// Orchestrator wires every component together. Build one with New and
// call Run once per analysis; each Run gets a fresh invalid tracker, so
// an Orchestrator is safe to reuse across runs despite not being
// goroutine-safe to call concurrently (matching spec.md §5's "no other
// global mutable state" contract: state lives on the struct, not in
// globals).
type Orchestrator struct {
	cfg    config.Config
	logger *slog.Logger

	client       *httpclient.Client
	cacheStore   cache.Cache
	geocoderSvc  *geocoder.Geocoder
	neighborsMgr *neighbors.Manager
	boundaryDB   *boundary.Store
	censusSvc    *census.Fetcher
	osmSource    *osm.Source
}

// New builds an Orchestrator from cfg, opening the cache, neighbor
// store, and boundary cache it needs. Close releases the cache and the
// boundary cache; the neighbor store is not closed by it.
func New(cfg config.Config, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := httpclient.New(httpclient.Options{
		UserAgent:  cfg.UserAgent,
		Timeout:    cfg.APITimeout,
		MaxRetries: cfg.MaxRetries,
		RateLimits: cfg.RateLimitRPM,
		Logger:     logger,
	})

	cacheStore, err := cache.New(cfg)
	if err != nil {
		return nil, err
	}

	var neighborStore neighbors.Store
	switch cfg.RepositoryType {
	case config.RepositoryMemory:
		neighborStore = neighbors.NewMemoryStore()
	default:
		neighborStore, err = neighbors.NewSQLiteStore(cfg.RepositoryPath)
		if err != nil {
			return nil, err
		}
	}

	boundaryDB, err := boundary.New(cfg.RepositoryPath+".boundaries", client, logger)
	if err != nil {
		return nil, err
	}

	var censusSvc *census.Fetcher
	if cfg.CensusAPIKey != "" {
		censusSvc, err = census.New(client, cacheStore, census.Options{
			APIKey: cfg.CensusAPIKey, Year: cfg.CensusYear, Dataset: cfg.CensusDataset,
		}, logger)
		if err != nil {
			return nil, err
		}
	}

	geocoderSvc := geocoder.New(client, cacheStore, logger)

	return &Orchestrator{
		cfg:          cfg,
		logger:       logger.With("component", "orchestrator"),
		client:       client,
		cacheStore:   cacheStore,
		geocoderSvc:  geocoderSvc,
		neighborsMgr: neighbors.NewManager(neighborStore, client, geocoderSvc, logger),
		boundaryDB:   boundaryDB,
		censusSvc:    censusSvc,
		osmSource:    osm.New(client, osm.Config{Endpoint: cfg.OverpassEndpoint, Timeout: 60}),
	}, nil
}

// Close releases the orchestrator's durable resources.
func (o *Orchestrator) Close() error {
	err := o.boundaryDB.Close()
	if cerr := o.cacheStore.Close(); err == nil {
		err = cerr
	}
	return err
}

// Run executes the full pipeline for one POI source and analysis
// options, following spec.md §4.14's seven steps.
func (o *Orchestrator) Run(ctx context.Context, source types.POISource, opts types.AnalysisOptions) (ResultBundle, error) {
	if opts.TravelMode != "" && opts.TravelMode != types.ModeDrive {
		return ResultBundle{}, errs.New(errs.KindConfiguration, "orchestrator",
			"only travel_mode=drive builds a road network in this version",
			"set travel_mode to drive")
	}

	tracker := invalid.New()

	// Step 2: extract POIs.
	pois, originalCount, err := o.extractPOIs(ctx, source, opts, tracker)
	if err != nil {
		return ResultBundle{}, err
	}
	if len(pois) == 0 {
		return ResultBundle{}, errs.New(errs.KindNoDataFound, "orchestrator", "no POIs with valid coordinates were produced")
	}

	// Step 3: isochrones.
	isoEngine := isochrone.New(
		isochrone.NewOverpassNetworkProvider(o.osmSource),
		tracker,
		o.logger,
		isochrone.Options{
			MaxClusterRadiusKM: o.cfg.ClusterMaxRadiusKM,
			MinClusterSize:     o.cfg.MinClusterSize,
			AvgTravelSpeedKMH:  o.cfg.DefaultTravelSpeedKMH,
		},
	)
	isochrones, err := isoEngine.Generate(ctx, pois, opts.TravelTimeMinutes)
	if err != nil {
		return ResultBundle{}, err
	}
	if len(isochrones) == 0 {
		return ResultBundle{}, errs.New(errs.KindNoDataFound, "orchestrator", "no isochrones were produced")
	}

	// Step 4: candidate units.
	units, err := o.candidateUnits(ctx, pois, isochrones, opts.GeographyLevel, tracker)
	if err != nil {
		return ResultBundle{}, err
	}
	if len(units) == 0 {
		return ResultBundle{}, errs.New(errs.KindNoDataFound, "orchestrator", "no candidate units intersected the isochrones")
	}

	// Step 5: distances.
	distEngine := distance.New(o.logger)
	rows, err := distEngine.Enrich(ctx, units, pois, isochrones)
	if err != nil {
		return ResultBundle{}, err
	}

	// Step 6: census data.
	if o.censusSvc != nil && len(opts.CensusVariables) > 0 {
		rows, err = o.enrichCensus(ctx, rows, opts.CensusVariables, opts.GeographyLevel)
		if err != nil {
			return ResultBundle{}, err
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].GEOID < rows[j].GEOID })

	centerLat, centerLon := centroidOfPOIs(pois)
	bundle := ResultBundle{
		POICount:      len(pois),
		UnitsAnalyzed: len(units),
		Rows:          rows,
		Metadata: ResultMetadata{
			CenterLat:     centerLat,
			CenterLon:     centerLon,
			TravelTime:    opts.TravelTimeMinutes,
			Sampled:       originalCount > len(pois),
			OriginalCount: originalCount,
		},
		InvalidSummary: tracker.Summary(),
	}

	// Step 7: report.
	files, err := o.writeReport(bundle, opts)
	if err != nil {
		return ResultBundle{}, err
	}
	bundle.FilesGenerated = files

	return bundle, nil
}

func centroidOfPOIs(pois []types.POI) (lat, lon float64) {
	if len(pois) == 0 {
		return 0, 0
	}
	var sumLat, sumLon float64
	for _, p := range pois {
		sumLat += p.Lat
		sumLon += p.Lon
	}
	n := float64(len(pois))
	return sumLat / n, sumLon / n
}

// enrichCensus fetches census values for every distinct GEOID in rows
// and merges them on as human-named columns (step 6), dispatching to
// the geography-appropriate Census Data API request shape.
func (o *Orchestrator) enrichCensus(ctx context.Context, rows []types.EnrichedRow, requestedVars []string, level types.GeographyLevel) ([]types.EnrichedRow, error) {
	codes := variables.ResolveNames(requestedVars)
	resolved := variables.Resolve(codes)

	geoidSet := make(map[string]bool, len(rows))
	for _, r := range rows {
		geoidSet[r.GEOID] = true
	}
	geoids := make([]string, 0, len(geoidSet))
	for g := range geoidSet {
		geoids = append(geoids, g)
	}

	points, err := o.censusSvc.GetData(ctx, geoids, codes, level)
	if err != nil {
		return nil, err
	}

	// GEOID -> variable code -> value
	byGEOID := make(map[string]map[string]*float64, len(geoids))
	for _, pt := range points {
		if byGEOID[pt.GEOID] == nil {
			byGEOID[pt.GEOID] = map[string]*float64{}
		}
		byGEOID[pt.GEOID][pt.VariableCode] = pt.Value
	}

	for i := range rows {
		values := make(map[string]*float64, len(resolved))
		for _, v := range resolved {
			values[v.HumanName] = byGEOID[rows[i].GEOID][v.Code]
		}
		rows[i].CensusValues = values
	}
	return rows, nil
}

// candidateUnits implements step 4: call C4 counties_of_pois with
// include_neighbors=false to get the minimal county set for the
// supplied POIs, derive the state FIPS set from those counties, fetch
// boundaries for those states at the requested level, then keep only
// units intersecting the union of isochrones.
func (o *Orchestrator) candidateUnits(ctx context.Context, pois []types.POI, isochrones []types.Isochrone, level types.GeographyLevel, tracker *invalid.Tracker) ([]types.GeographicUnit, error) {
	counties, err := o.neighborsMgr.CountiesOfPOIs(ctx, pois, false, 0)
	if err != nil {
		return nil, err
	}

	stateSet := map[string]bool{}
	for _, countyGEOID := range counties {
		if len(countyGEOID) >= 2 {
			stateSet[countyGEOID[:2]] = true
		}
	}
	if len(stateSet) == 0 {
		return nil, errs.New(errs.KindNoDataFound, "orchestrator", "could not determine any state FIPS codes for the supplied POIs")
	}

	var allUnits []types.GeographicUnit
	for stateFIPS := range stateSet {
		units, err := o.boundaryDB.GetManyByState(ctx, stateFIPS, level)
		if err != nil {
			o.logger.Warn("failed to fetch boundaries for state", "state", stateFIPS, "error", err)
			tracker.RecordError(types.InvalidRecord{
				Reason: err.Error(), Stage: types.StageIntersection,
				Data: map[string]any{"state_fips": stateFIPS},
			})
			continue
		}
		allUnits = append(allUnits, units...)
	}

	var candidates []types.GeographicUnit
	for _, iso := range isochrones {
		if iso.Degenerate || len(iso.Polygon) == 0 {
			continue
		}
		candidates = append(candidates, spatial.Intersecting(iso.Polygon, allUnits)...)
	}
	return dedupeUnits(candidates), nil
}

func dedupeUnits(units []types.GeographicUnit) []types.GeographicUnit {
	seen := make(map[string]bool, len(units))
	out := make([]types.GeographicUnit, 0, len(units))
	for _, u := range units {
		if seen[u.GEOID] {
			continue
		}
		seen[u.GEOID] = true
		out = append(out, u)
	}
	return out
}

// extractPOIs implements step 2: dispatch to C8 or C9 depending on
// source.Kind, validate, and subsample to MaxPOICount if configured.
func (o *Orchestrator) extractPOIs(ctx context.Context, source types.POISource, opts types.AnalysisOptions, tracker *invalid.Tracker) ([]types.POI, int, error) {
	var pois []types.POI
	var invalidRecords []types.InvalidRecord
	var err error

	switch source.Kind {
	case types.POISourceOSM:
		pois, err = o.extractOSMPOIs(ctx, source.OSM)
	case types.POISourceCSV, types.POISourceJSON:
		pois, invalidRecords, err = o.extractFilePOIs(source)
	case types.POISourceAddresses:
		pois, invalidRecords, err = custom.FromAddresses(ctx, o.geocoderSvc, source.Addresses)
	default:
		err = errs.New(errs.KindConfiguration, "orchestrator", "unknown POI source kind")
	}
	if err != nil {
		return nil, 0, err
	}
	for _, rec := range invalidRecords {
		tracker.RecordPoint(rec)
	}

	originalCount := len(pois)
	if opts.MaxPOICount > 0 && len(pois) > opts.MaxPOICount {
		pois = subsamplePOIs(pois, opts.MaxPOICount)
	}
	return pois, originalCount, nil
}

func (o *Orchestrator) extractFilePOIs(source types.POISource) ([]types.POI, []types.InvalidRecord, error) {
	return openAndParsePOIFile(source)
}

// openAndParsePOIFile opens source.FilePath and dispatches to C9's
// JSON reader when Kind is POISourceJSON or the path ends in .json
// (whatever Kind says), and to the CSV reader otherwise. os.Open is the only stdlib file I/O in this path
// since no file-ingestion library exists in the pack for this (see
// DESIGN.md).
func openAndParsePOIFile(source types.POISource) ([]types.POI, []types.InvalidRecord, error) {
	f, err := os.Open(source.FilePath)
	if err != nil {
		return nil, nil, errs.Wrap(errs.KindNoDataFound, "orchestrator", err,
			fmt.Sprintf("failed to open POI file %q", source.FilePath),
			"check the file path and permissions")
	}
	defer f.Close()

	isJSON := source.Kind == types.POISourceJSON || strings.HasSuffix(strings.ToLower(source.FilePath), ".json")
	if isJSON {
		return custom.FromJSON(f)
	}
	return custom.FromCSV(f)
}

func (o *Orchestrator) extractOSMPOIs(ctx context.Context, spec types.OSMPOISpec) ([]types.POI, error) {
	bbox, err := o.resolveOSMSearchArea(ctx, spec)
	if err != nil {
		return nil, err
	}

	tag := spec.POIType + "=" + spec.POIName
	return o.osmSource.QueryPOIType(ctx, bbox, tag)
}

// resolveOSMSearchArea turns a named geocode_area/state into a search
// bounding box by geocoding it (via C3's address path) to a center
// point, then expanding by SearchRadiusKM. The pack carries no
// named-area/admin-boundary resolver (e.g. Nominatim's area[name=...]
// support), so this module always resolves a named place to a point
// radius rather than a precise administrative boundary polygon.
func (o *Orchestrator) resolveOSMSearchArea(ctx context.Context, spec types.OSMPOISpec) (osm.BoundingBox, error) {
	address := spec.GeocodeArea
	if spec.State != "" {
		address += ", " + spec.State
	}
	result, err := o.geocoderSvc.GeocodeAddress(ctx, address)
	if err != nil {
		return osm.BoundingBox{}, err
	}

	radiusKM := spec.SearchRadiusKM
	if radiusKM <= 0 {
		radiusKM = 20
	}
	latDelta := radiusKM / 111.0
	lonDelta := radiusKM / (111.0 * cosDeg(result.Lat))

	return osm.BoundingBox{
		MinLat: result.Lat - latDelta, MaxLat: result.Lat + latDelta,
		MinLon: result.Lon - lonDelta, MaxLon: result.Lon + lonDelta,
	}, nil
}

// subsamplePOIs takes a uniform random sample of pois down to max
// elements, via a Fisher-Yates partial shuffle over a copy of the
// input so the caller's slice order is left untouched.
func subsamplePOIs(pois []types.POI, max int) []types.POI {
	if max >= len(pois) {
		return pois
	}
	shuffled := append([]types.POI{}, pois...)
	for i := 0; i < max; i++ {
		j := i + rand.IntN(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:max]
}

// cosDeg is math.Cos for a degree argument, used when converting a
// search radius in kilometers to a longitude delta at a given latitude.
func cosDeg(degrees float64) float64 {
	return math.Cos(degrees * math.Pi / 180)
}
