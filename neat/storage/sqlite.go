package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/baldhumanity/neat-recurrent/neat"

	_ "modernc.org/sqlite"
)

// SQLiteStore archives genomes in a SQLite database file. Genomes are stored
// as JSON in the same shape SaveGenome writes.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store for the database at path. Call Init before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database and creates the genomes table if needed.
func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS genomes (
			run_name   TEXT    NOT NULL,
			genome_id  INTEGER NOT NULL,
			generation INTEGER NOT NULL,
			fitness    REAL    NOT NULL,
			payload    BLOB    NOT NULL,
			PRIMARY KEY (run_name, genome_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("create genomes table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

// SaveGenome inserts the genome or replaces the stored copy with the same id.
func (s *SQLiteStore) SaveGenome(ctx context.Context, runName string, generation int, g *neat.Genome) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	rec := g.Record()
	payload, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO genomes (run_name, genome_id, generation, fitness, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_name, genome_id) DO UPDATE SET
			generation = excluded.generation,
			fitness = excluded.fitness,
			payload = excluded.payload
	`, runName, rec.ID, generation, rec.Fitness, payload)
	return err
}

// GetGenome looks up one genome of a run.
func (s *SQLiteStore) GetGenome(ctx context.Context, runName string, genomeID int) (Entry, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Entry{}, false, err
	}
	row := db.QueryRowContext(ctx, `
		SELECT generation, payload FROM genomes
		WHERE run_name = ? AND genome_id = ?
	`, runName, genomeID)
	return scanEntry(runName, row)
}

// BestGenome returns the fittest archived genome of a run, lower id first on ties.
func (s *SQLiteStore) BestGenome(ctx context.Context, runName string) (Entry, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Entry{}, false, err
	}
	row := db.QueryRowContext(ctx, `
		SELECT generation, payload FROM genomes
		WHERE run_name = ?
		ORDER BY fitness DESC, genome_id ASC
		LIMIT 1
	`, runName)
	return scanEntry(runName, row)
}

// ListGenomes returns every archived genome of a run by generation, then id.
func (s *SQLiteStore) ListGenomes(ctx context.Context, runName string) ([]Entry, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT generation, payload FROM genomes
		WHERE run_name = ?
		ORDER BY generation ASC, genome_id ASC
	`, runName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			generation int
			payload    []byte
		)
		if err := rows.Scan(&generation, &payload); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(payload)
		if err != nil {
			return nil, fmt.Errorf("decode genome of run %q: %w", runName, err)
		}
		out = append(out, Entry{RunName: runName, Generation: generation, Genome: rec})
	}
	return out, rows.Err()
}

func scanEntry(runName string, row *sql.Row) (Entry, bool, error) {
	var (
		generation int
		payload    []byte
	)
	if err := row.Scan(&generation, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	rec, err := decodeRecord(payload)
	if err != nil {
		return Entry{}, false, fmt.Errorf("decode genome of run %q: %w", runName, err)
	}
	return Entry{RunName: runName, Generation: generation, Genome: rec}, true, nil
}

// Close closes the database. The store can be initialized again afterwards.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
