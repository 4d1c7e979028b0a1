// Package distance is C12: for every candidate geographic unit, find
// the nearest POI and record the travel distance between the unit's
// centroid and that POI, in both kilometers and miles.
package distance

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/socialmapper/socialmapper/internal/geoutil"
	"github.com/socialmapper/socialmapper/internal/types"
	"github.com/socialmapper/socialmapper/internal/worker"
)

// kmToMiles converts kilometers to miles (1 km = 0.621371 mi).
const kmToMiles = 0.621371

// DefaultChunkThreshold is the unit count at or above which Enrich
// switches from a plain sequential loop to the worker pool.
const DefaultChunkThreshold = 5000

// Engine computes nearest-POI distances for a batch of geographic
// units.
type Engine struct {
	logger         *slog.Logger
	chunkThreshold int
	workers        int
}

// Option configures an Engine.
type Option func(*Engine)

// WithChunkThreshold overrides DefaultChunkThreshold.
func WithChunkThreshold(n int) Option {
	return func(e *Engine) { e.chunkThreshold = n }
}

// WithWorkers overrides the default runtime.NumCPU() worker count.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// New builds an Engine.
func New(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		logger:         logger.With("component", "distance"),
		chunkThreshold: DefaultChunkThreshold,
		workers:        runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// poiIsochrone pairs a POI with the isochrone metadata (travel time,
// assumed speeds) that produced it, keyed by POI ID by the caller.
type poiIsochrone struct {
	poi   types.POI
	iso   types.Isochrone
	found bool
}

// Enrich computes, for every unit, the nearest POI in pois and returns
// one EnrichedRow per unit carrying that POI's metadata and the
// projected travel distance between the unit's centroid and the POI.
// isochrones supplies the travel-time/speed metadata per POI ID; a POI
// absent from isochrones still participates in nearest-neighbor
// distance but contributes zero-value travel-time/speed fields.
//
// Returns no rows and no error when pois is empty — the contract
// permits nulls (here, an empty result) when there is nothing to
// measure distance to.
func (e *Engine) Enrich(ctx context.Context, units []types.GeographicUnit, pois []types.POI, isochrones []types.Isochrone) ([]types.EnrichedRow, error) {
	if len(pois) == 0 {
		e.logger.Warn("no POIs supplied, skipping distance enrichment")
		return nil, nil
	}

	isoByPOI := make(map[string]types.Isochrone, len(isochrones))
	for _, iso := range isochrones {
		isoByPOI[iso.POIID] = iso
	}

	fn := func(_ context.Context, unit types.GeographicUnit, _ int) (types.EnrichedRow, error) {
		return e.nearestRow(unit, pois, isoByPOI), nil
	}

	if len(units) < e.chunkThreshold {
		rows := make([]types.EnrichedRow, len(units))
		for i, unit := range units {
			rows[i] = e.nearestRow(unit, pois, isoByPOI)
		}
		return rows, nil
	}

	e.logger.Info("enriching distances via worker pool", "units", len(units), "workers", e.workers)
	pool := worker.New(worker.Config[types.GeographicUnit, types.EnrichedRow]{
		Workers: e.workers,
		Fn:      fn,
	})
	results := pool.Run(ctx, units)

	// Results come back tagged with their original index; restore
	// input order so the final dataset is deterministic across runs
	// regardless of which worker finished first.
	rows := make([]types.EnrichedRow, len(results))
	for _, r := range results {
		rows[r.Index] = r.Value
	}
	return rows, nil
}

// nearestRow finds the nearest POI to unit's centroid and builds the
// corresponding EnrichedRow.
func (e *Engine) nearestRow(unit types.GeographicUnit, pois []types.POI, isoByPOI map[string]types.Isochrone) types.EnrichedRow {
	centroid := geoutil.Centroid(unit.Geometry)

	var nearest types.POI
	bestMeters := -1.0
	for _, p := range pois {
		d := projectedDistanceMeters(centroid.Lat(), centroid.Lon(), p.Lat, p.Lon)
		if bestMeters < 0 || d < bestMeters {
			bestMeters = d
			nearest = p
		}
	}

	km := bestMeters / 1000
	row := types.EnrichedRow{
		GEOID:               unit.GEOID,
		POIID:               nearest.ID,
		POIName:             nearest.Name,
		TravelDistanceKM:    km,
		TravelDistanceMiles: km * kmToMiles,
	}

	if iso, ok := isoByPOI[nearest.ID]; ok {
		row.TravelTimeMinutes = iso.TravelTimeMinutes
		row.AvgTravelSpeedKMH = iso.AvgTravelSpeedKMH
		row.AvgTravelSpeedMPH = iso.AvgTravelSpeedMPH
	}

	return row
}
