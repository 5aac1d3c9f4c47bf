// Package store persists solved runs: a SQLite index of run metadata plus
// one JSON data file per run.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/voltlab/battsim/internal/solution"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	model          TEXT NOT NULL,
	chemistry      TEXT NOT NULL,
	termination    TEXT NOT NULL,
	steps          INTEGER NOT NULL,
	duration       REAL NOT NULL,
	final_voltage  REAL NOT NULL,
	data_path      TEXT NOT NULL,
	created_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`

// Run is one row of the index.
type Run struct {
	ID           string
	Model        string
	Chemistry    string
	Termination  string
	Steps        int
	Duration     float64
	FinalVoltage float64
	DataPath     string
	CreatedAt    time.Time
}

// Store holds the index database and the run data directory.
type Store struct {
	db      *sql.DB
	baseDir string
}

// Open creates baseDir if needed and opens (or creates) the index at
// baseDir/runs.db.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Join(baseDir, "runs.db"))
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, baseDir: baseDir}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func migrate(db *sql.DB) error {
	ver, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("check schema version: %w", err)
	}
	if ver >= schemaVersion {
		return nil
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec("DELETE FROM schema_meta"); err != nil {
		return err
	}
	if _, err := db.Exec("INSERT INTO schema_meta (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return nil
}

func currentVersion(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_meta'
	`).Scan(&count)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	var ver int
	err = db.QueryRow("SELECT version FROM schema_meta LIMIT 1").Scan(&ver)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return ver, err
}

// Save writes the solution data file and indexes the run. It returns the
// generated run ID.
func (s *Store) Save(sol *solution.Solution) (string, error) {
	if sol == nil || sol.Len() == 0 {
		return "", fmt.Errorf("store: empty solution")
	}

	id := uuid.NewString()
	dataPath := filepath.Join(s.baseDir, id+".json")
	if err := sol.ExportJSON(dataPath); err != nil {
		return "", fmt.Errorf("write run data: %w", err)
	}

	finalV := 0.0
	if v, err := sol.Variable("terminal voltage"); err == nil && len(v) > 0 {
		finalV = v[len(v)-1]
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, model, chemistry, termination, steps, duration, final_voltage, data_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, sol.Model, sol.Chemistry, sol.Termination, sol.Len(),
		sol.FinalTime()-sol.Times[0], finalV, dataPath)
	if err != nil {
		_ = os.Remove(dataPath)
		return "", fmt.Errorf("index run: %w", err)
	}
	return id, nil
}

// Get returns the index row for a run ID.
func (s *Store) Get(id string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, model, chemistry, termination, steps, duration, final_voltage, data_path, created_at
		FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// List returns all indexed runs, newest first.
func (s *Store) List() ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT id, model, chemistry, termination, steps, duration, final_voltage, data_path, created_at
		FROM runs ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Delete removes the index row and the run data file.
func (s *Store) Delete(id string) error {
	r, err := s.Get(id)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM runs WHERE id = ?", id); err != nil {
		return err
	}
	if err := os.Remove(r.DataPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// LoadData reads the raw exported data for a run.
func (s *Store) LoadData(id string) (*solution.ExportData, error) {
	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return solution.ReadExport(r.DataPath)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	var created string
	err := row.Scan(&r.ID, &r.Model, &r.Chemistry, &r.Termination, &r.Steps,
		&r.Duration, &r.FinalVoltage, &r.DataPath, &created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: run not found")
	}
	if err != nil {
		return nil, err
	}
	if t, perr := time.Parse("2006-01-02 15:04:05", created); perr == nil {
		r.CreatedAt = t
	}
	return &r, nil
}
