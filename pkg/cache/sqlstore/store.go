// Package sqlstore implements cache.Store on top of database/sql, backed by
// SQLite (modernc.org/sqlite) or PostgreSQL (pgx).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/JoaoClaudiano/gittree/pkg/cache"
	"github.com/JoaoClaudiano/gittree/pkg/models"
)

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config configures a Store.
type Config struct {
	Dialect       Dialect
	DSN           string // database file for SQLite, connection string for PostgreSQL
	CapacityBytes int64  // 0 means unbounded
	Eviction      cache.Eviction
}

// Store is a persistent cache.Store. Every mutation commits before returning.
type Store struct {
	db       *sql.DB
	dialect  Dialect
	capacity int64
	eviction cache.Eviction

	mu    sync.Mutex
	total int64
	seq   int64

	hits   atomic.Int64
	misses atomic.Int64
}

const createSQLiteTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	cache_key TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	size_bytes INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	access_seq INTEGER NOT NULL DEFAULT 0
);
`

const createPostgresTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	cache_key TEXT PRIMARY KEY,
	payload BYTEA NOT NULL,
	size_bytes BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	access_seq BIGINT NOT NULL DEFAULT 0
)
`

// Open connects to the database, migrates the schema and loads the running
// total from the persisted entries.
func Open(cfg Config) (*Store, error) {
	var driver, schema string
	switch cfg.Dialect {
	case DialectSQLite, "":
		cfg.Dialect = DialectSQLite
		driver, schema = "sqlite", createSQLiteTable
	case DialectPostgres:
		driver, schema = "pgx", createPostgresTable
	default:
		return nil, fmt.Errorf("unknown cache dialect %q", cfg.Dialect)
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("open cache db: dsn is required")
	}
	if cfg.Eviction == "" {
		cfg.Eviction = cache.EvictNone
	}

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if cfg.Dialect == DialectSQLite {
		// One writer per file; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	s := &Store{
		db:       db,
		dialect:  cfg.Dialect,
		capacity: cfg.CapacityBytes,
		eviction: cfg.Eviction,
	}
	err = db.QueryRow(`SELECT COALESCE(SUM(size_bytes), 0), COALESCE(MAX(access_seq), 0) FROM cache_entries`).
		Scan(&s.total, &s.seq)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load cache totals: %w", err)
	}
	return s, nil
}

// NewSQLite opens a SQLite-backed store at dbPath.
func NewSQLite(dbPath string, capacity int64, eviction cache.Eviction) (*Store, error) {
	return Open(Config{Dialect: DialectSQLite, DSN: dbPath, CapacityBytes: capacity, Eviction: eviction})
}

// Put stores value under key. See cache.Store.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("cache put: key is required")
	}
	size := cache.EntrySize(key, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	old, _, err := s.sizeOf(ctx, tx, key)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	total := s.total - old

	if s.capacity > 0 && total+size > s.capacity {
		if s.eviction != cache.EvictLRU || size > s.capacity {
			return cache.CapacityError(key, size, total, s.capacity)
		}
		freed, err := s.evictLocked(ctx, tx, key, total+size-s.capacity)
		if err != nil {
			return fmt.Errorf("cache evict: %w", err)
		}
		total -= freed
	}

	seq := s.seq + 1
	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO cache_entries (cache_key, payload, size_bytes, created_at, access_seq)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (cache_key) DO UPDATE SET
			payload = excluded.payload,
			size_bytes = excluded.size_bytes,
			created_at = excluded.created_at,
			access_seq = excluded.access_seq`),
		key, value, size, time.Now().UTC(), seq,
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	s.total = total + size
	s.seq = seq
	return nil
}

// evictLocked deletes least-recently-used entries other than keep until at
// least need bytes are freed. It returns the bytes freed.
func (s *Store) evictLocked(ctx context.Context, tx *sql.Tx, keep string, need int64) (int64, error) {
	rows, err := tx.QueryContext(ctx, s.rebind(
		`SELECT cache_key, size_bytes FROM cache_entries WHERE cache_key <> ? ORDER BY access_seq, cache_key`),
		keep,
	)
	if err != nil {
		return 0, err
	}
	var victims []string
	var freed int64
	for freed < need && rows.Next() {
		var k string
		var sz int64
		if err := rows.Scan(&k, &sz); err != nil {
			rows.Close()
			return 0, err
		}
		victims = append(victims, k)
		freed += sz
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, k := range victims {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM cache_entries WHERE cache_key = ?`), k); err != nil {
			return 0, err
		}
	}
	return freed, nil
}

// Get returns the stored value. See cache.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT payload FROM cache_entries WHERE cache_key = ?`), key).
		Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		s.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	s.hits.Add(1)

	if s.eviction == cache.EvictLRU {
		seq := s.seq + 1
		_, err := s.db.ExecContext(ctx, s.rebind(`UPDATE cache_entries SET access_seq = ? WHERE cache_key = ?`), seq, key)
		if err != nil {
			return nil, false, fmt.Errorf("cache touch: %w", err)
		}
		s.seq = seq
	}
	return payload, true, nil
}

// Delete removes key. See cache.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	old, found, err := s.sizeOf(ctx, tx, key)
	if err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	if !found {
		return nil
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM cache_entries WHERE cache_key = ?`), key); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	s.total -= old
	return nil
}

// Clear removes every entry. See cache.Store.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	s.total = 0
	return nil
}

// List returns entry metadata for keys with the given prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]models.CacheEntry, error) {
	query, args := s.listQuery(prefix)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cache list: %w", err)
	}
	defer rows.Close()

	var entries []models.CacheEntry
	for rows.Next() {
		var e models.CacheEntry
		if err := rows.Scan(&e.Key, &e.SizeBytes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// listQuery builds the List statement. Matching is bytewise: SQLite scans
// the primary key range [prefix, upper) and Postgres uses starts_with
// under the C collation.
func (s *Store) listQuery(prefix string) (string, []any) {
	const base = `SELECT cache_key, size_bytes, created_at FROM cache_entries`
	if s.dialect == DialectPostgres {
		if prefix == "" {
			return base + ` ORDER BY cache_key COLLATE "C"`, nil
		}
		return base + ` WHERE starts_with(cache_key, $1) ORDER BY cache_key COLLATE "C"`, []any{prefix}
	}
	if prefix == "" {
		return base + ` ORDER BY cache_key`, nil
	}
	upper, ok := prefixUpperBound(prefix)
	if !ok {
		return base + ` WHERE cache_key >= ? ORDER BY cache_key`, []any{prefix}
	}
	return base + ` WHERE cache_key >= ? AND cache_key < ? ORDER BY cache_key`, []any{prefix, upper}
}

// prefixUpperBound returns the smallest string greater than every string
// starting with prefix. It reports false when no such bound exists.
func prefixUpperBound(prefix string) (string, bool) {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1]), true
		}
	}
	return "", false
}

// CurrentSizeBytes returns the running total.
func (s *Store) CurrentSizeBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// SumSizes recomputes the total from the persisted rows.
func (s *Store) SumSizes(ctx context.Context) (int64, error) {
	var sum int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size_bytes), 0) FROM cache_entries`).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("cache sum: %w", err)
	}
	return sum, nil
}

// Stats returns cache occupancy and performance metrics.
func (s *Store) Stats(ctx context.Context) (models.CacheStats, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&count)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	used := s.CurrentSizeBytes()
	return models.CacheStats{
		Entries:        count,
		Hits:           s.hits.Load(),
		Misses:         s.misses.Load(),
		SizeBytes:      used,
		CapacityBytes:  s.capacity,
		RemainingBytes: cache.Remaining(s.capacity, used),
		Eviction:       string(s.eviction),
	}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) sizeOf(ctx context.Context, tx *sql.Tx, key string) (int64, bool, error) {
	var size int64
	err := tx.QueryRowContext(ctx, s.rebind(`SELECT size_bytes FROM cache_entries WHERE cache_key = ?`), key).
		Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return size, true, nil
}

// rebind rewrites ? placeholders to $N for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ cache.Store = (*Store)(nil)
