// Package duckdb persists profile settings, resolved sessions and gateway
// lookups in a DuckDB database.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection.
type Store struct {
	db *sql.DB
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
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
	`CREATE TABLE IF NOT EXISTS profiles (
		name VARCHAR PRIMARY KEY,
		padding_5 BIGINT,
		padding_3 BIGINT,
		snp_padding_5 BIGINT,
		snp_padding_3 BIGINT,
		separate_snp_padding BOOLEAN,
		include_5utr BOOLEAN,
		include_3utr BOOLEAN
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id VARCHAR PRIMARY KEY,
		assembly VARCHAR,
		created_at TIMESTAMP,
		no_data VARCHAR,
		pending VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS session_records (
		session_id VARCHAR,
		seq BIGINT,
		chrom VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		exon_id VARCHAR,
		exon_number BIGINT,
		biotype VARCHAR,
		accession VARCHAR,
		gene VARCHAR,
		gene_id VARCHAR,
		strand BIGINT,
		five_prime_utr_end BIGINT,
		three_prime_utr_start BIGINT,
		mane_status VARCHAR,
		status VARCHAR,
		alert VARCHAR,
		warning VARCHAR,
		is_snp BOOLEAN,
		source VARCHAR,
		idx BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS gateway_lookups (
		kind VARCHAR,
		assembly VARCHAR,
		identifier VARCHAR,
		payload VARCHAR,
		fetched_at TIMESTAMP,
		PRIMARY KEY (kind, assembly, identifier)
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
