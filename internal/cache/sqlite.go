package cache

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/socialmapper/socialmapper/internal/errs"
)

// DefaultBatchSize is the number of pending writes buffered before an
// automatic flush, mirroring mbtiles.Writer's DefaultBatchSize.
const DefaultBatchSize = 100

type pendingWrite struct {
	key       string
	value     []byte
	expiresAt *int64
}

// SQLiteStore is the durable backend for CacheFile and CacheHybrid. It
// batches writes into transactions the same way the teacher's
// mbtiles.Writer batches tile inserts, and enforces LRU eviction via a
// last_used_at column once the entry count exceeds maxFiles. maxBytes
// is stored but not enforced: no eviction is driven by total size.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.Mutex
	batch     []pendingWrite
	batchSize int
	maxFiles  int
	maxBytes  int64
}

// NewSQLiteStore opens (creating if necessary) a sqlite-backed cache
// store at path.
func NewSQLiteStore(path string, maxFiles int, maxBytes int64) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfiguration, "cache", err, "failed to open cache database")
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 20000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errs.Wrap(errs.KindConfiguration, "cache", err, "failed to set cache pragma")
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER,
			last_used_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_cache_last_used ON cache_entries (last_used_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.KindConfiguration, "cache", err, "failed to create cache schema")
	}

	return &SQLiteStore{
		db:        db,
		batch:     make([]pendingWrite, 0, DefaultBatchSize),
		batchSize: DefaultBatchSize,
		maxFiles:  maxFiles,
		maxBytes:  maxBytes,
	}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt sql.NullInt64
	row := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM cache_entries WHERE key = ?", key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, errs.Wrap(errs.KindDataProcessing, "cache", err, "cache read failed")
	}
	if expiresAt.Valid && time.Now().Unix() > expiresAt.Int64 {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}
	_, _ = s.db.ExecContext(ctx, "UPDATE cache_entries SET last_used_at = ? WHERE key = ?",
		time.Now().Unix(), key)
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt *int64
	if ttl > 0 {
		t := time.Now().Add(ttl).Unix()
		expiresAt = &t
	}
	s.mu.Lock()
	s.batch = append(s.batch, pendingWrite{key: key, value: value, expiresAt: expiresAt})
	full := len(s.batch) >= s.batchSize
	s.mu.Unlock()
	if full {
		return s.Flush(ctx)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key)
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "cache", err, "cache delete failed")
	}
	return nil
}

// Flush writes buffered entries in a single transaction, matching
// mbtiles.Writer.flushLocked.
func (s *SQLiteStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batch) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "cache", err, "failed to begin cache transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO cache_entries
		(key, value, created_at, expires_at, last_used_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errs.Wrap(errs.KindDataProcessing, "cache", err, "failed to prepare cache insert")
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, w := range s.batch {
		if _, err := stmt.Exec(w.key, w.value, now, w.expiresAt, now); err != nil {
			return errs.Wrap(errs.KindDataProcessing, "cache", err, "failed to insert cache entry")
		}
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.KindDataProcessing, "cache", err, "failed to commit cache transaction")
	}
	s.batch = s.batch[:0]
	return s.evictIfNeeded(ctx)
}

func (s *SQLiteStore) evictIfNeeded(ctx context.Context) error {
	if s.maxFiles <= 0 {
		return nil
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cache_entries").Scan(&count); err != nil {
		return nil
	}
	if count <= s.maxFiles {
		return nil
	}
	excess := count - s.maxFiles
	_, _ = s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key IN (
		SELECT key FROM cache_entries ORDER BY last_used_at ASC LIMIT ?)`, excess)
	return nil
}

func (s *SQLiteStore) Close() error {
	if err := s.Flush(context.Background()); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}
