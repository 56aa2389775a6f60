package batch

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matsen/refinery/internal/reference"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists batches to a SQLite database. Reference lists
// and validation results are stored as JSON columns.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens or creates a batch database at the given path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening batch database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createBatchSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating batch schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func createBatchSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS batches (
			id TEXT PRIMARY KEY,
			file_info_json TEXT NOT NULL,
			references_json TEXT NOT NULL,
			status TEXT NOT NULL,
			validation_result_json TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_batches_created_at
			ON batches(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

const selectBatchFields = `id, file_info_json, references_json, status,
	validation_result_json, created_at, updated_at`

// Get returns the batch with the given ID, or (nil, nil) if unknown.
func (s *SQLiteStore) Get(id string) (*Batch, error) {
	row := s.db.QueryRow(`
		SELECT `+selectBatchFields+`
		FROM batches
		WHERE id = ?
	`, id)
	return scanBatch(row.Scan)
}

// Put inserts or replaces a batch.
func (s *SQLiteStore) Put(b *Batch) error {
	fileInfoJSON, err := json.Marshal(b.FileInfo)
	if err != nil {
		return fmt.Errorf("marshaling file info for %s: %w", b.ID, err)
	}
	refsJSON, err := json.Marshal(b.References)
	if err != nil {
		return fmt.Errorf("marshaling references for %s: %w", b.ID, err)
	}

	var resultJSON sql.NullString
	if b.ValidationResult != nil {
		r, err := json.Marshal(b.ValidationResult)
		if err != nil {
			return fmt.Errorf("marshaling validation result for %s: %w", b.ID, err)
		}
		resultJSON = sql.NullString{String: string(r), Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO batches
			(id, file_info_json, references_json, status,
			 validation_result_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, string(fileInfoJSON), string(refsJSON), string(b.Status),
		resultJSON, b.CreatedAt.Format(time.RFC3339Nano), b.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("storing batch %s: %w", b.ID, err)
	}
	return nil
}

// List returns all batches, newest first.
func (s *SQLiteStore) List() ([]*Batch, error) {
	rows, err := s.db.Query(`
		SELECT ` + selectBatchFields + `
		FROM batches
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		b, err := scanBatch(rows.Scan)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// Delete removes a batch. Deleting an unknown ID is a no-op.
func (s *SQLiteStore) Delete(id string) error {
	if _, err := s.db.Exec("DELETE FROM batches WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting batch %s: %w", id, err)
	}
	return nil
}

// scanBatch scans one batch row via the given scan function.
// sql.ErrNoRows maps to (nil, nil).
func scanBatch(scan func(...any) error) (*Batch, error) {
	var b Batch
	var fileInfoJSON, refsJSON, status, createdAt, updatedAt string
	var resultJSON sql.NullString

	err := scan(&b.ID, &fileInfoJSON, &refsJSON, &status, &resultJSON, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(fileInfoJSON), &b.FileInfo); err != nil {
		return nil, fmt.Errorf("parsing file info JSON for %s: %w", b.ID, err)
	}
	var refs []reference.ParsedReference
	if err := json.Unmarshal([]byte(refsJSON), &refs); err != nil {
		return nil, fmt.Errorf("parsing references JSON for %s: %w", b.ID, err)
	}
	b.References = refs
	b.Status = Status(status)

	if resultJSON.Valid && resultJSON.String != "" {
		var result ValidationResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, fmt.Errorf("parsing validation result JSON for %s: %w", b.ID, err)
		}
		b.ValidationResult = &result
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		b.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		b.UpdatedAt = t
	}
	return &b, nil
}
