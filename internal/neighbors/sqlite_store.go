package neighbors

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/socialmapper/socialmapper/internal/errs"
	"github.com/socialmapper/socialmapper/internal/types"
)

// SQLiteStore is the durable C4 repository, mirroring neighbors.py's
// three-table schema (state_neighbors, county_neighbors,
// point_geography_cache) but on modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating and seeding if necessary) the neighbor
// database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, "neighbors", err, "failed to open neighbor database")
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.KindConfiguration, "neighbors", err, "failed to set pragma")
	}

	schema := `
		CREATE TABLE IF NOT EXISTS state_neighbors (
			state_fips TEXT NOT NULL,
			neighbor_state_fips TEXT NOT NULL,
			relationship_type TEXT NOT NULL DEFAULT 'adjacent',
			PRIMARY KEY (state_fips, neighbor_state_fips)
		);
		CREATE TABLE IF NOT EXISTS county_neighbors (
			state_fips TEXT NOT NULL,
			county_fips TEXT NOT NULL,
			neighbor_state_fips TEXT NOT NULL,
			neighbor_county_fips TEXT NOT NULL,
			shared_boundary_length REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (state_fips, county_fips, neighbor_state_fips, neighbor_county_fips)
		);
		CREATE TABLE IF NOT EXISTS point_geography_cache (
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			state_fips TEXT,
			county_fips TEXT,
			tract_geoid TEXT,
			block_group_geoid TEXT,
			zcta_geoid TEXT,
			PRIMARY KEY (lat, lon)
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.KindConfiguration, "neighbors", err, "failed to create neighbor schema")
	}

	store := &SQLiteStore{db: db}
	if err := store.seedStateNeighbors(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) seedStateNeighbors() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM state_neighbors").Scan(&count); err != nil {
		return errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to count state_neighbors")
	}
	if count > 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to begin seed transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO state_neighbors
		(state_fips, neighbor_state_fips, relationship_type) VALUES (?, ?, 'adjacent')`)
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to prepare state seed")
	}
	defer stmt.Close()

	for state, neighbors := range stateAdjacency {
		for _, neighbor := range neighbors {
			if _, err := stmt.Exec(state, neighbor); err != nil {
				return errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to seed state neighbor row")
			}
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) StateNeighbors(ctx context.Context, stateFIPS string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT neighbor_state_fips FROM state_neighbors WHERE state_fips = ?", stateFIPS)
	if err != nil {
		return nil, errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to query state neighbors")
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var neighbor string
		if err := rows.Scan(&neighbor); err != nil {
			return nil, errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to scan state neighbor row")
		}
		result = append(result, neighbor)
	}
	return result, nil
}

func (s *SQLiteStore) CountyNeighbors(ctx context.Context, stateFIPS, countyFIPS string) ([]types.NeighborRelationship, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT neighbor_state_fips, neighbor_county_fips, shared_boundary_length
		FROM county_neighbors WHERE state_fips = ? AND county_fips = ?`, stateFIPS, countyFIPS)
	if err != nil {
		return nil, errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to query county neighbors")
	}
	defer rows.Close()

	source := stateFIPS + countyFIPS
	var result []types.NeighborRelationship
	for rows.Next() {
		var neighborState, neighborCounty string
		var sharedLen float64
		if err := rows.Scan(&neighborState, &neighborCounty, &sharedLen); err != nil {
			return nil, errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to scan county neighbor row")
		}
		result = append(result, types.NeighborRelationship{
			SourceGEOID:          source,
			NeighborGEOID:        neighborState + neighborCounty,
			Kind:                 types.NeighborAdjacent,
			SharedBoundaryLength: sharedLen,
		})
	}
	return result, nil
}

func (s *SQLiteStore) SaveCountyNeighbors(ctx context.Context, rels []types.NeighborRelationship) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to begin county save transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO county_neighbors
		(state_fips, county_fips, neighbor_state_fips, neighbor_county_fips, shared_boundary_length)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to prepare county insert")
	}
	defer stmt.Close()

	for _, rel := range rels {
		if len(rel.SourceGEOID) < 5 || len(rel.NeighborGEOID) < 5 {
			return errs.New(errs.KindDataProcessing, "neighbors",
				fmt.Sprintf("malformed county GEOID pair %q/%q", rel.SourceGEOID, rel.NeighborGEOID))
		}
		if _, err := stmt.Exec(
			rel.SourceGEOID[:2], rel.SourceGEOID[2:5],
			rel.NeighborGEOID[:2], rel.NeighborGEOID[2:5],
			rel.SharedBoundaryLength,
		); err != nil {
			return errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to insert county neighbor row")
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) CachedGeography(ctx context.Context, lat, lon float64) (types.GeocodeResult, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT state_fips, county_fips, tract_geoid, block_group_geoid, zcta_geoid
		FROM point_geography_cache WHERE lat = ? AND lon = ?`, lat, lon)

	var result types.GeocodeResult
	result.Lat, result.Lon = lat, lon
	var state, county, tract, bg, zcta sql.NullString
	if err := row.Scan(&state, &county, &tract, &bg, &zcta); err != nil {
		if err == sql.ErrNoRows {
			return types.GeocodeResult{}, false, nil
		}
		return types.GeocodeResult{}, false, errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to read point geography cache")
	}
	result.StateFIPS, result.CountyFIPS = state.String, county.String
	result.TractGEOID, result.BlockGroupGEOID, result.ZCTAGEOID = tract.String, bg.String, zcta.String
	result.Source = "cache"
	return result, true, nil
}

func (s *SQLiteStore) CacheGeography(ctx context.Context, result types.GeocodeResult) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO point_geography_cache
		(lat, lon, state_fips, county_fips, tract_geoid, block_group_geoid, zcta_geoid)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.Lat, result.Lon, result.StateFIPS, result.CountyFIPS,
		result.TractGEOID, result.BlockGroupGEOID, result.ZCTAGEOID)
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "neighbors", err, "failed to write point geography cache")
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
