package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Registers the sqlite driver

	"github.com/conorfennell/memcurve/internal/sim"
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sqlx.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Foreign keys are enabled per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// ParamTable is a stored parameter table.
type ParamTable struct {
	Fingerprint string    `db:"fingerprint"`
	Weights     string    `db:"weights"`
	CreatedAt   time.Time `db:"created_at"`
}

// Run is one recorded simulation of a scenario.
type Run struct {
	ID           string     `db:"id"`
	Scenario     string     `db:"scenario"`
	ScenarioHash string     `db:"scenario_hash"`
	Fingerprint  string     `db:"fingerprint"`
	Policy       string     `db:"policy"`
	Retention    float64    `db:"retention"`
	Passed       bool       `db:"passed"`
	RanAt        time.Time  `db:"ran_at"`
	Steps        []sim.Step `db:"-"`
}

type stepRow struct {
	RunID string  `db:"run_id"`
	Idx   int     `db:"idx"`
	T     float64 `db:"t"`
	S     float64 `db:"s"`
	D     float64 `db:"d"`
	I     float64 `db:"i"`
}

// UpsertParamTable stores a parameter table if its fingerprint is new.
func (db *DB) UpsertParamTable(fingerprint, weights string) error {
	_, err := db.conn.Exec(`
		INSERT INTO param_tables (fingerprint, weights, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, fingerprint, weights, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert parameter table %s: %w", fingerprint, err)
	}
	return nil
}

// FindParamTable retrieves a parameter table by its fingerprint.
func (db *DB) FindParamTable(fingerprint string) (*ParamTable, error) {
	var pt ParamTable
	err := db.conn.Get(&pt, `
		SELECT fingerprint, weights, created_at
		FROM param_tables WHERE fingerprint = ?
	`, fingerprint)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Table not found
		}
		return nil, fmt.Errorf("failed to find parameter table %s: %w", fingerprint, err)
	}
	return &pt, nil
}

// InsertRun records a run and its steps in one transaction. A new ID and
// timestamp are assigned when the run does not carry them.
func (db *DB) InsertRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.RanAt.IsZero() {
		run.RanAt = time.Now().UTC()
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for run %s: %w", run.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`
		INSERT INTO runs (id, scenario, scenario_hash, fingerprint, policy, retention, passed, ran_at)
		VALUES (:id, :scenario, :scenario_hash, :fingerprint, :policy, :retention, :passed, :ran_at)
	`, run)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	for i, st := range run.Steps {
		_, err := tx.NamedExec(`
			INSERT INTO steps (run_id, idx, t, s, d, i)
			VALUES (:run_id, :idx, :t, :s, :d, :i)
		`, stepRow{RunID: run.ID, Idx: i, T: st.T, S: st.S, D: st.D, I: st.I})
		if err != nil {
			return fmt.Errorf("failed to insert step %d of run %s: %w", i, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}
	return nil
}

// FindRun retrieves a run and its steps by ID.
func (db *DB) FindRun(id string) (*Run, error) {
	var run Run
	err := db.conn.Get(&run, `
		SELECT id, scenario, scenario_hash, fingerprint, policy, retention, passed, ran_at
		FROM runs WHERE id = ?
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Run not found
		}
		return nil, fmt.Errorf("failed to find run %s: %w", id, err)
	}
	if err := db.loadSteps(&run); err != nil {
		return nil, err
	}
	return &run, nil
}

// LatestRun retrieves the most recent run of a scenario against a parameter table.
func (db *DB) LatestRun(scenarioHash, fingerprint string) (*Run, error) {
	var run Run
	err := db.conn.Get(&run, `
		SELECT id, scenario, scenario_hash, fingerprint, policy, retention, passed, ran_at
		FROM runs WHERE scenario_hash = ? AND fingerprint = ?
		ORDER BY ran_at DESC, rowid DESC
		LIMIT 1
	`, scenarioHash, fingerprint)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No run recorded yet
		}
		return nil, fmt.Errorf("failed to find latest run of %s: %w", scenarioHash, err)
	}
	if err := db.loadSteps(&run); err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRunsByFingerprint retrieves all runs evaluated against a parameter table,
// without their steps.
func (db *DB) GetRunsByFingerprint(fingerprint string) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, `
		SELECT id, scenario, scenario_hash, fingerprint, policy, retention, passed, ran_at
		FROM runs WHERE fingerprint = ?
		ORDER BY ran_at, rowid
	`, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs for parameter table %s: %w", fingerprint, err)
	}
	return runs, nil
}

// DeleteRunsByFingerprint removes a parameter table and every run recorded against it.
func (db *DB) DeleteRunsByFingerprint(fingerprint string) error {
	_, err := db.conn.Exec(`
		DELETE FROM param_tables
		WHERE fingerprint = ?
	`, fingerprint)
	if err != nil {
		return fmt.Errorf("failed to delete runs for parameter table %s: %w", fingerprint, err)
	}
	return nil
}

func (db *DB) loadSteps(run *Run) error {
	var rows []stepRow
	err := db.conn.Select(&rows, `
		SELECT run_id, idx, t, s, d, i
		FROM steps WHERE run_id = ?
		ORDER BY idx
	`, run.ID)
	if err != nil {
		return fmt.Errorf("failed to load steps for run %s: %w", run.ID, err)
	}
	run.Steps = make([]sim.Step, len(rows))
	for i, r := range rows {
		run.Steps[i] = sim.Step{T: r.T, S: r.S, D: r.D, I: r.I}
	}
	return nil
}
