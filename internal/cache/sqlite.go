package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/matsen/refinery/internal/reference"
	_ "modernc.org/sqlite"
)

// SQLite is a cache persisted to a SQLite database. Hit counters live
// in memory and reset when the process restarts; the entries survive.
type SQLite struct {
	db *sql.DB

	mu     sync.Mutex
	hits   int64
	misses int64
}

// OpenSQLite opens or creates a cache database at the given path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createCacheSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func createCacheSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS enrichment_cache (
			fingerprint TEXT PRIMARY KEY,
			fields_json TEXT NOT NULL,
			sources_json TEXT,
			consulted_json TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cache_created_at
			ON enrichment_cache(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Lookup returns the cached entry for a fingerprint, or (nil, nil) on
// a miss.
func (s *SQLite) Lookup(fingerprint string) (*Entry, error) {
	row := s.db.QueryRow(`
		SELECT fingerprint, fields_json, sources_json, consulted_json, created_at
		FROM enrichment_cache
		WHERE fingerprint = ?
	`, fingerprint)

	e, err := scanEntry(row)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if e == nil {
		s.misses++
	} else {
		s.hits++
	}
	s.mu.Unlock()

	return e, nil
}

// Store inserts or replaces the entry for its fingerprint.
func (s *SQLite) Store(e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	fieldsJSON, err := json.Marshal(e.Fields)
	if err != nil {
		return fmt.Errorf("marshaling fields for %s: %w", e.Fingerprint, err)
	}

	sourcesJSON, err := marshalNames(e.SourcesUsed)
	if err != nil {
		return fmt.Errorf("marshaling sources for %s: %w", e.Fingerprint, err)
	}
	consultedJSON, err := marshalNames(e.Consulted)
	if err != nil {
		return fmt.Errorf("marshaling consulted list for %s: %w", e.Fingerprint, err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO enrichment_cache
			(fingerprint, fields_json, sources_json, consulted_json, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.Fingerprint, string(fieldsJSON), nullableString(sourcesJSON), nullableString(consultedJSON), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("storing cache entry %s: %w", e.Fingerprint, err)
	}
	return nil
}

// Stats reports hit counters for this process and current occupancy.
func (s *SQLite) Stats() (Stats, error) {
	var size int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM enrichment_cache").Scan(&size); err != nil {
		return Stats{}, fmt.Errorf("counting cache entries: %w", err)
	}

	s.mu.Lock()
	hits, misses := s.hits, s.misses
	s.mu.Unlock()

	return Stats{
		Hits:    hits,
		Misses:  misses,
		Size:    size,
		HitRate: hitRate(hits, misses),
	}, nil
}

// Clear drops all entries and resets the counters.
func (s *SQLite) Clear() error {
	if _, err := s.db.Exec("DELETE FROM enrichment_cache"); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	s.mu.Lock()
	s.hits = 0
	s.misses = 0
	s.mu.Unlock()
	return nil
}

// nullableString converts a Go string to sql.NullString.
func nullableString(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

// marshalNames renders a name list as JSON, empty string for an empty
// list.
func marshalNames(names []string) (string, error) {
	if len(names) == 0 {
		return "", nil
	}
	b, err := json.Marshal(names)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// scanEntry scans a single cache entry from a row. sql.ErrNoRows maps
// to (nil, nil).
func scanEntry(row *sql.Row) (*Entry, error) {
	var e Entry
	var fieldsJSON string
	var sourcesJSON, consultedJSON sql.NullString
	var createdAt string

	err := row.Scan(&e.Fingerprint, &fieldsJSON, &sourcesJSON, &consultedJSON, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var fields reference.ExtractedFields
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return nil, fmt.Errorf("parsing fields JSON for %s: %w", e.Fingerprint, err)
	}
	e.Fields = fields

	if sourcesJSON.Valid && sourcesJSON.String != "" {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &e.SourcesUsed); err != nil {
			return nil, fmt.Errorf("parsing sources JSON for %s: %w", e.Fingerprint, err)
		}
	}
	if consultedJSON.Valid && consultedJSON.String != "" {
		if err := json.Unmarshal([]byte(consultedJSON.String), &e.Consulted); err != nil {
			return nil, fmt.Errorf("parsing consulted JSON for %s: %w", e.Fingerprint, err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		e.CreatedAt = t
	}

	return &e, nil
}
