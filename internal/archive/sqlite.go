// Package archive keeps a history of scrape runs in a SQLite database.
package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matsen/homepage/internal/publication"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("scrape run not found")

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// Run summarizes one archived scrape.
type Run struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	ScrapedAt time.Time `json:"scrapedAt"`
	Count     int       `json:"count"`
}

// Open opens or creates the archive at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			profile_id TEXT NOT NULL,
			scraped_at INTEGER NOT NULL,
			count INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_runs_scraped_at ON runs(scraped_at);

		-- Publications in report order; position is the index in the final list
		CREATE TABLE IF NOT EXISTS publications (
			run_id TEXT NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			authors TEXT NOT NULL,
			venue TEXT NOT NULL,
			year INTEGER NOT NULL,
			cited_by INTEGER NOT NULL,
			PRIMARY KEY (run_id, position)
		);
	`

	_, err := db.Exec(schema)
	return err
}

// RecordRun stores a finished scrape and returns its new run id.
func (d *DB) RecordRun(profileID string, pubs []publication.Publication, at time.Time) (string, error) {
	id := uuid.NewString()

	tx, err := d.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, profile_id, scraped_at, count) VALUES (?, ?, ?, ?)`,
		id, profileID, at.UnixMilli(), len(pubs),
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO publications (run_id, position, title, url, authors, venue, year, cited_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range pubs {
		if _, err := stmt.Exec(id, i, p.Title, p.URL, p.Authors, p.Venue, p.Year, p.CitedBy); err != nil {
			return "", fmt.Errorf("inserting publication %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (d *DB) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := d.db.Query(`
		SELECT id, profile_id, scraped_at, count FROM runs
		ORDER BY scraped_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run and its publications in report order.
func (d *DB) GetRun(id string) (*Run, []publication.Publication, error) {
	row := d.db.QueryRow(`SELECT id, profile_id, scraped_at, count FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := d.db.Query(`
		SELECT title, url, authors, venue, year, cited_by FROM publications
		WHERE run_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("reading publications: %w", err)
	}
	defer rows.Close()

	pubs := []publication.Publication{}
	for rows.Next() {
		var p publication.Publication
		if err := rows.Scan(&p.Title, &p.URL, &p.Authors, &p.Venue, &p.Year, &p.CitedBy); err != nil {
			return nil, nil, fmt.Errorf("scanning publication: %w", err)
		}
		pubs = append(pubs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return &run, pubs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (Run, error) {
	var run Run
	var millis int64
	if err := s.Scan(&run.ID, &run.ProfileID, &millis, &run.Count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	run.ScrapedAt = time.UnixMilli(millis).UTC()
	return run, nil
}
