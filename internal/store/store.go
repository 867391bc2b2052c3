// Package store records reference track runs, their per-target outcomes and
// the generated rows in a SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Target outcome statuses.
const (
	StatusWritten = "written"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Store wraps the run database.
type Store struct {
	db *sql.DB
}

// Run is one invocation of the reference track pipeline.
type Run struct {
	RunID           string          `json:"run_id"`
	MeasurementPath string          `json:"measurement_path"`
	StartIndex      int             `json:"start_index"`
	StopIndex       int             `json:"stop_index"`
	StartTime       uint64          `json:"start_time"`
	StopTime        uint64          `json:"stop_time"`
	MissingBlocks   int             `json:"missing_blocks"`
	WavelengthM     float64         `json:"wavelength_m"`
	Degree          int             `json:"degree"`
	Version         string          `json:"version"`
	GitSHA          string          `json:"git_sha"`
	ParamsJSON      json.RawMessage `json:"params_json,omitempty"`
	StartedAt       int64           `json:"started_at"`
	FinishedAt      int64           `json:"finished_at,omitempty"`
	DurationMS      int64           `json:"duration_ms,omitempty"`
}

// Target is the outcome of one feed within a run.
type Target struct {
	TargetPK   int64  `json:"-"`
	RunID      string `json:"run_id"`
	TargetID   int    `json:"target_id"`
	FeedPath   string `json:"feed_path"`
	Callsign   string `json:"callsign,omitempty"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
	RowCount   int    `json:"row_count"`
	StaleRows  int    `json:"stale_rows"`
}

// Row is one stored reference track row.
type Row struct {
	BlockIndex      int
	Timestamp       float64
	Latitude        float64
	Longitude       float64
	Altitude        float64
	Speed           float64
	Direction       float64
	BistaticRange   float64
	BistaticDoppler float64
	BistaticBearing float64
	AssignmentGap   float64
}

// Open opens (creating if needed) the database at path, applies pragmas and
// migrates the schema to LatestVersion.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection; a single connection keeps them in force.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// retryOnBusy retries fn while SQLite reports the database as locked.
func retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		err = fn()
		if err == nil || !isBusy(err) {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return err
}

func isBusy(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// StartRun persists a new run. If RunID is empty, a UUID is generated.
func (s *Store) StartRun(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.StartedAt == 0 {
		run.StartedAt = time.Now().UnixNano()
	}

	var paramsStr interface{}
	if len(run.ParamsJSON) > 0 {
		paramsStr = string(run.ParamsJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO runs (
				run_id, measurement_path, start_index, stop_index, start_time, stop_time,
				missing_blocks, wavelength_m, degree, version, git_sha, params_json, started_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.MeasurementPath, run.StartIndex, run.StopIndex,
			int64(run.StartTime), int64(run.StopTime), run.MissingBlocks, run.WavelengthM,
			run.Degree, run.Version, run.GitSHA, paramsStr, run.StartedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		return nil
	})
}

// FinishRun stamps the run's completion time and duration.
func (s *Store) FinishRun(runID string, finishedAt time.Time, d time.Duration) error {
	return retryOnBusy(func() error {
		res, err := s.db.Exec(`UPDATE runs SET finished_at = ?, duration_ms = ? WHERE run_id = ?`,
			finishedAt.UnixNano(), d.Milliseconds(), runID)
		if err != nil {
			return fmt.Errorf("failed to finish run: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %s not found", runID)
		}
		return nil
	})
}

// RecordTarget stores a target outcome and its rows in one transaction.
// rows may be empty for skipped or failed targets.
func (s *Store) RecordTarget(t *Target, rows []Row) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		res, err := tx.Exec(`
			INSERT INTO targets (
				run_id, target_id, feed_path, callsign, status, reason, output_path, row_count, stale_rows
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.RunID, t.TargetID, t.FeedPath, t.Callsign, t.Status, t.Reason, t.OutputPath,
			len(rows), t.StaleRows,
		)
		if err != nil {
			return fmt.Errorf("failed to insert target %d: %w", t.TargetID, err)
		}
		pk, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get target key: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO reference_rows (
				target_pk, block_index, timestamp, latitude, longitude, altitude, speed, direction,
				bistatic_range, bistatic_doppler, bistatic_bearing, assignment_gap
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.Exec(pk, r.BlockIndex, r.Timestamp, r.Latitude, r.Longitude,
				r.Altitude, r.Speed, r.Direction, r.BistaticRange, r.BistaticDoppler,
				r.BistaticBearing, r.AssignmentGap); err != nil {
				return fmt.Errorf("failed to insert row %d: %w", r.BlockIndex, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		t.TargetPK = pk
		t.RowCount = len(rows)
		return nil
	})
}

// GetRun loads a run by id.
func (s *Store) GetRun(runID string) (*Run, error) {
	var (
		run        Run
		startTime  int64
		stopTime   int64
		params     sql.NullString
		finishedAt sql.NullInt64
		duration   sql.NullInt64
	)
	err := s.db.QueryRow(`
		SELECT run_id, measurement_path, start_index, stop_index, start_time, stop_time,
			missing_blocks, wavelength_m, degree, version, git_sha, params_json,
			started_at, finished_at, duration_ms
		FROM runs WHERE run_id = ?`, runID).Scan(
		&run.RunID, &run.MeasurementPath, &run.StartIndex, &run.StopIndex, &startTime, &stopTime,
		&run.MissingBlocks, &run.WavelengthM, &run.Degree, &run.Version, &run.GitSHA, &params,
		&run.StartedAt, &finishedAt, &duration,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	run.StartTime, run.StopTime = uint64(startTime), uint64(stopTime)
	if params.Valid {
		run.ParamsJSON = json.RawMessage(params.String)
	}
	run.FinishedAt = finishedAt.Int64
	run.DurationMS = duration.Int64
	return &run, nil
}

// ListTargets returns the targets of a run ordered by target id.
func (s *Store) ListTargets(runID string) ([]*Target, error) {
	rows, err := s.db.Query(`
		SELECT target_pk, run_id, target_id, feed_path, COALESCE(callsign, ''), status,
			COALESCE(reason, ''), COALESCE(output_path, ''), row_count, stale_rows
		FROM targets WHERE run_id = ? ORDER BY target_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var out []*Target
	for rows.Next() {
		t := &Target{}
		if err := rows.Scan(&t.TargetPK, &t.RunID, &t.TargetID, &t.FeedPath, &t.Callsign, &t.Status,
			&t.Reason, &t.OutputPath, &t.RowCount, &t.StaleRows); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListRows returns the stored rows of a target in block order.
func (s *Store) ListRows(targetPK int64) ([]Row, error) {
	rows, err := s.db.Query(`
		SELECT block_index, timestamp, latitude, longitude, altitude, speed, direction,
			bistatic_range, bistatic_doppler, bistatic_bearing, assignment_gap
		FROM reference_rows WHERE target_pk = ? ORDER BY block_index`, targetPK)
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.BlockIndex, &r.Timestamp, &r.Latitude, &r.Longitude, &r.Altitude,
			&r.Speed, &r.Direction, &r.BistaticRange, &r.BistaticDoppler, &r.BistaticBearing,
			&r.AssignmentGap); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
