// Package store persists variants, samples and their join records in
// DuckDB. Annotation versions are kept as an append-only JSON list on
// the variant row.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// Store manages a DuckDB connection for the variant database.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path, logger: zap.NewNop()}
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

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetLogger sets the logger for entity creation tracing.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// ensureSchema creates sequences and tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS samples_id_seq`,
		`CREATE SEQUENCE IF NOT EXISTS families_id_seq`,
		`CREATE SEQUENCE IF NOT EXISTS runs_id_seq`,
		`CREATE SEQUENCE IF NOT EXISTS teams_id_seq`,
		`CREATE SEQUENCE IF NOT EXISTS comments_id_seq`,
		`CREATE TABLE IF NOT EXISTS variants (
			id VARCHAR PRIMARY KEY,
			chrom VARCHAR NOT NULL,
			pos BIGINT NOT NULL,
			ref VARCHAR NOT NULL,
			alt VARCHAR NOT NULL,
			class_variant INTEGER,
			annotations VARCHAR,
			clinvar_id VARCHAR,
			clinvar_sig VARCHAR,
			clinvar_sig_conf VARCHAR,
			clinvar_review_stat VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS samples (
			id INTEGER PRIMARY KEY,
			samplename VARCHAR NOT NULL,
			status INTEGER NOT NULL DEFAULT 0,
			family_id INTEGER,
			run_id INTEGER,
			filter_id INTEGER,
			bed_id INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS families (
			id INTEGER PRIMARY KEY,
			name VARCHAR UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			name VARCHAR UNIQUE NOT NULL,
			alias VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS teams (
			id INTEGER PRIMARY KEY,
			name VARCHAR UNIQUE NOT NULL,
			color VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sample2team (
			sample_id INTEGER NOT NULL,
			team_id INTEGER NOT NULL,
			PRIMARY KEY (sample_id, team_id)
		)`,
		`CREATE TABLE IF NOT EXISTS beds (
			id INTEGER PRIMARY KEY,
			name VARCHAR UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS filters (
			id INTEGER PRIMARY KEY,
			name VARCHAR UNIQUE NOT NULL,
			filter VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS transcripts (
			feature VARCHAR PRIMARY KEY,
			biotype VARCHAR,
			feature_type VARCHAR,
			symbol VARCHAR,
			symbol_source VARCHAR,
			gene VARCHAR,
			source VARCHAR,
			protein VARCHAR,
			canonical BOOLEAN,
			hgnc VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS var2sample (
			variant_id VARCHAR NOT NULL,
			sample_id INTEGER NOT NULL,
			depth INTEGER,
			allelic_depth INTEGER,
			filter VARCHAR,
			reported BOOLEAN NOT NULL DEFAULT FALSE,
			hidden BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (variant_id, sample_id)
		)`,
		`CREATE TABLE IF NOT EXISTS history (
			sample_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			date TIMESTAMP NOT NULL,
			action VARCHAR NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sample_comments (
			id INTEGER PRIMARY KEY,
			sample_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			date TIMESTAMP NOT NULL,
			comment VARCHAR NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// nextID draws the next value from a sequence.
func (s *Store) nextID(seq string) (int, error) {
	var id int
	if err := s.db.QueryRow(fmt.Sprintf("SELECT nextval('%s')", seq)).Scan(&id); err != nil {
		return 0, fmt.Errorf("next id from %s: %w", seq, err)
	}
	return id, nil
}
