// Package boundary implements C5: fetching and caching the polygon
// geometry for a census geographic unit (state, county, tract, block
// group, or ZCTA) from TIGERweb, persisted through the same
// sqlite-backed pattern as the neighbor store.
package boundary

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/paulmach/orb/geojson"
	_ "modernc.org/sqlite"

	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/geoutil"
	"github.com/socialmapper/socialmapper/internal/httpclient"
	"github.com/socialmapper/socialmapper/internal/types"
)

// mapServerByLevel maps a geography level to its TIGERweb MapServer
// layer, per spec.md §6 External Interfaces.
var mapServerByLevel = map[types.GeographyLevel]string{
	types.LevelState:      "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/State_County/MapServer/0",
	types.LevelCounty:     "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/State_County/MapServer/1",
	types.LevelTract:      "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/Tracts_Blocks/MapServer/0",
	types.LevelBlockGroup: "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/Tracts_Blocks/MapServer/1",
	types.LevelZCTA:       "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/PUMA_TAD_TAZ_UGA_ZCTA/MapServer/7",
}

// Store persists fetched geographic unit boundaries.
type Store struct {
	db     *sql.DB
	client *httpclient.Client
	logger *slog.Logger
}

// New opens (creating if necessary) the boundary cache at path.
func New(path string, client *httpclient.Client, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, "boundary", err, "failed to open boundary database")
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.KindConfiguration, "boundary", err, "failed to set pragma")
	}
	schema := `CREATE TABLE IF NOT EXISTS boundaries (
		geoid TEXT NOT NULL,
		level TEXT NOT NULL,
		name TEXT,
		state_fips TEXT,
		county_fips TEXT,
		tract_code TEXT,
		block_group_code TEXT,
		geometry_geojson BLOB NOT NULL,
		PRIMARY KEY (geoid, level)
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.KindConfiguration, "boundary", err, "failed to create boundary schema")
	}
	return &Store{db: db, client: client, logger: logger.With("component", "boundary")}, nil
}

// Get returns the boundary for geoid/level, fetching and caching it
// from TIGERweb on a cache miss.
func (s *Store) Get(ctx context.Context, geoid string, level types.GeographyLevel) (types.GeographicUnit, error) {
	if unit, ok, err := s.cached(ctx, geoid, level); err != nil {
		return types.GeographicUnit{}, err
	} else if ok {
		return unit, nil
	}

	unit, err := s.fetch(ctx, geoid, level)
	if err != nil {
		return types.GeographicUnit{}, err
	}
	if err := s.put(ctx, unit); err != nil {
		s.logger.Warn("failed to cache boundary", "geoid", geoid, "error", err)
	}
	return unit, nil
}

// GetManyByState fetches every unit of the given level matching a state
// FIPS filter, used by C10/C11 to enumerate candidate units for
// intersection.
//
// ZCTAs are queried differently: the national
// PUMA_TAD_TAZ_UGA_ZCTA/MapServer/7 layer carries no per-state split,
// so per spec.md §4.5/§6 the whole layer is queried with `where=1=1`
// and the result is filtered client-side by GEOID prefix equal to
// stateFIPS. This is an approximation, not a spatial filter — a ZCTA
// whose footprint crosses a state line is kept whenever its GEOID
// happens to start with stateFIPS and dropped otherwise, matching
// spec.md §9's documented approximation.
func (s *Store) GetManyByState(ctx context.Context, stateFIPS string, level types.GeographyLevel) ([]types.GeographicUnit, error) {
	server, ok := mapServerByLevel[level]
	if !ok {
		return nil, errs.New(errs.KindConfiguration, "boundary", fmt.Sprintf("unsupported geography level %q", level))
	}

	where := "STATE='" + stateFIPS + "'"
	if level == types.LevelZCTA {
		where = "1=1"
	}

	u, _ := url.Parse(server + "/query")
	q := u.Query()
	q.Set("where", where)
	q.Set("outFields", "*")
	q.Set("returnGeometry", "true")
	q.Set("f", "geojson")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "boundary", err, "failed to build TIGERweb request")
	}
	body, _, err := s.client.Get(ctx, req)
	if err != nil {
		return nil, errs.Wrap(errs.KindExternalService, "boundary", err, "TIGERweb query failed")
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, errs.Wrap(errs.KindDataProcessing, "boundary", err, "failed to parse TIGERweb response")
	}

	units := make([]types.GeographicUnit, 0, len(fc.Features))
	for _, f := range fc.Features {
		unit, err := featureToUnit(f, level)
		if err != nil {
			continue
		}
		if level == types.LevelZCTA && !strings.HasPrefix(unit.GEOID, stateFIPS) {
			continue
		}
		units = append(units, unit)
		_ = s.put(ctx, unit)
	}
	if len(units) == 0 {
		return nil, errs.New(errs.KindNoDataFound, "boundary",
			fmt.Sprintf("no %s boundaries found for state %s", level, stateFIPS))
	}
	return units, nil
}

func (s *Store) fetch(ctx context.Context, geoid string, level types.GeographyLevel) (types.GeographicUnit, error) {
	server, ok := mapServerByLevel[level]
	if !ok {
		return types.GeographicUnit{}, errs.New(errs.KindConfiguration, "boundary",
			fmt.Sprintf("unsupported geography level %q", level))
	}

	u, _ := url.Parse(server + "/query")
	q := u.Query()
	q.Set("where", "GEOID='"+geoid+"'")
	q.Set("outFields", "*")
	q.Set("returnGeometry", "true")
	q.Set("f", "geojson")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return types.GeographicUnit{}, errs.Wrap(errs.KindExternalService, "boundary", err, "failed to build TIGERweb request")
	}
	body, _, err := s.client.Get(ctx, req)
	if err != nil {
		return types.GeographicUnit{}, errs.Wrap(errs.KindExternalService, "boundary", err, "TIGERweb query failed")
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return types.GeographicUnit{}, errs.Wrap(errs.KindDataProcessing, "boundary", err, "failed to parse TIGERweb response")
	}
	if len(fc.Features) == 0 {
		return types.GeographicUnit{}, errs.New(errs.KindNoDataFound, "boundary",
			fmt.Sprintf("no boundary found for GEOID %s at level %s", geoid, level))
	}
	return featureToUnit(fc.Features[0], level)
}

func featureToUnit(f *geojson.Feature, level types.GeographyLevel) (types.GeographicUnit, error) {
	geoid, _ := f.Properties["GEOID"].(string)
	name, _ := f.Properties["NAME"].(string)
	state, _ := f.Properties["STATE"].(string)
	county, _ := f.Properties["COUNTY"].(string)
	tract, _ := f.Properties["TRACT"].(string)
	blkgrp, _ := f.Properties["BLKGRP"].(string)

	polygon, err := geoutil.GeometryToPolygon(f.Geometry)
	if err != nil {
		return types.GeographicUnit{}, err
	}

	return types.GeographicUnit{
		GEOID: geoid, Level: level, Name: name,
		StateFIPS: state, CountyFIPS: county, TractCode: tract, BlockGroupCode: blkgrp,
		Geometry: polygon,
	}, nil
}

func (s *Store) cached(ctx context.Context, geoid string, level types.GeographyLevel) (types.GeographicUnit, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, state_fips, county_fips, tract_code, block_group_code, geometry_geojson
		FROM boundaries WHERE geoid = ? AND level = ?`, geoid, string(level))

	var name, state, county, tract, bg string
	var geomBytes []byte
	if err := row.Scan(&name, &state, &county, &tract, &bg, &geomBytes); err != nil {
		if err == sql.ErrNoRows {
			return types.GeographicUnit{}, false, nil
		}
		return types.GeographicUnit{}, false, errs.Wrap(errs.KindDataProcessing, "boundary", err, "failed to read cached boundary")
	}

	geom, err := geojson.UnmarshalGeometry(geomBytes)
	if err != nil {
		return types.GeographicUnit{}, false, errs.Wrap(errs.KindDataProcessing, "boundary", err, "failed to decode cached geometry")
	}
	polygon, err := geoutil.GeometryToPolygon(geom.Geometry())
	if err != nil {
		return types.GeographicUnit{}, false, err
	}

	return types.GeographicUnit{
		GEOID: geoid, Level: level, Name: name,
		StateFIPS: state, CountyFIPS: county, TractCode: tract, BlockGroupCode: bg,
		Geometry: polygon,
	}, true, nil
}

func (s *Store) put(ctx context.Context, unit types.GeographicUnit) error {
	geom := geojson.NewGeometry(unit.Geometry)
	encoded, err := geom.MarshalJSON()
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "boundary", err, "failed to encode geometry")
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO boundaries
		(geoid, level, name, state_fips, county_fips, tract_code, block_group_code, geometry_geojson)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		unit.GEOID, string(unit.Level), unit.Name, unit.StateFIPS, unit.CountyFIPS, unit.TractCode, unit.BlockGroupCode, encoded)
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "boundary", err, "failed to write cached boundary")
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
