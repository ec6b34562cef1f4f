// Package duckdb persists annotation runs: the labelled rows of each run
// and fingerprints of the reference files it was computed from.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding annotation runs.
type Store struct {
	db *sql.DB
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR PRIMARY KEY,
		sample VARCHAR,
		project VARCHAR,
		translate_to VARCHAR,
		dedup VARCHAR,
		started_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS annotated_variants (
		run_id VARCHAR,
		seq BIGINT,
		line BIGINT,
		consequence VARCHAR,
		gene_name VARCHAR,
		chrom VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		sample VARCHAR,
		gene_id VARCHAR,
		transcript_id VARCHAR,
		protein_change VARCHAR,
		ref VARCHAR,
		alt VARCHAR,
		ref_reads BIGINT,
		alt_reads BIGINT,
		vaf DOUBLE,
		source VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS reference_files (
		run_id VARCHAR,
		name VARCHAR,
		path VARCHAR,
		size BIGINT,
		mod_time TIMESTAMP,
		PRIMARY KEY (run_id, name)
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
