// Package persistence records simulation telemetry to SQLite: run metadata,
// per-tick metric samples, and notable events. It stores observations of a
// run for later inspection; there is intentionally no load path that
// restores engine state.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/slopesim/internal/engine"
)

// DB wraps a SQLite connection for telemetry storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL DEFAULT (datetime('now')),
		seed INTEGER NOT NULL,
		config_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		fos REAL NOT NULL,
		pof REAL NOT NULL,
		ru REAL NOT NULL,
		saturation_depth REAL NOT NULL,
		effective_cohesion REAL NOT NULL,
		raining INTEGER NOT NULL,
		phase TEXT NOT NULL,
		progress REAL NOT NULL,
		displaced_volume REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_samples_run_tick ON samples(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateRun registers a new simulation run and returns its ID.
func (db *DB) CreateRun(seed int64, cfg engine.Config) (string, error) {
	id := uuid.NewString()
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}

	_, err = db.conn.Exec(
		"INSERT INTO runs (id, seed, config_json) VALUES (?, ?, ?)",
		id, seed, string(cfgJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	slog.Info("telemetry run created", "run_id", id, "seed", seed)
	return id, nil
}

// Sample is one recorded tick of metrics.
type Sample struct {
	Tick              uint64  `json:"tick" db:"tick"`
	FoS               float64 `json:"fos" db:"fos"`
	PoF               float64 `json:"pof" db:"pof"`
	Ru                float64 `json:"ru" db:"ru"`
	SaturationDepth   float64 `json:"saturation_depth" db:"saturation_depth"`
	EffectiveCohesion float64 `json:"effective_cohesion" db:"effective_cohesion"`
	Raining           bool    `json:"raining" db:"raining"`
	Phase             string  `json:"phase" db:"phase"`
	Progress          float64 `json:"progress" db:"progress"`
	DisplacedVolume   float64 `json:"displaced_volume" db:"displaced_volume"`
}

// SampleFromMetrics converts an engine snapshot into a storable sample.
func SampleFromMetrics(m engine.Metrics) Sample {
	return Sample{
		Tick:              m.Tick,
		FoS:               m.FoS,
		PoF:               m.PoF,
		Ru:                m.Ru,
		SaturationDepth:   m.SaturationDepth,
		EffectiveCohesion: m.EffectiveCohesion,
		Raining:           m.Raining,
		Phase:             m.Phase,
		Progress:          m.Progress,
		DisplacedVolume:   m.DisplacedVolume,
	}
}

// SaveSamples appends a batch of samples for the run.
func (db *DB) SaveSamples(runID string, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO samples
		(run_id, tick, fos, pof, ru, saturation_depth, effective_cohesion,
		 raining, phase, progress, displaced_volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		raining := 0
		if s.Raining {
			raining = 1
		}
		_, err := stmt.Exec(
			runID, s.Tick, s.FoS, s.PoF, s.Ru, s.SaturationDepth,
			s.EffectiveCohesion, raining, s.Phase, s.Progress, s.DisplacedVolume,
		)
		if err != nil {
			return fmt.Errorf("insert sample tick %d: %w", s.Tick, err)
		}
	}

	return tx.Commit()
}

// SaveEvents appends events for the run.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT INTO events (run_id, tick, description, category) VALUES (?, ?, ?, ?)",
			runID, e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentSamples returns the most recent N samples for the run, oldest first.
func (db *DB) RecentSamples(runID string, limit int) ([]Sample, error) {
	var samples []Sample
	err := db.conn.Select(&samples,
		`SELECT tick, fos, pof, ru, saturation_depth, effective_cohesion,
		        raining, phase, progress, displaced_volume
		 FROM (SELECT * FROM samples WHERE run_id = ? ORDER BY tick DESC LIMIT ?)
		 ORDER BY tick ASC`,
		runID, limit,
	)
	return samples, err
}

// RecentEvents returns the most recent N events for the run, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}
