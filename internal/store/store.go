// Package store persists conversion runs to SQLite: one row per run, per
// input file and per emitted chunk, plus the decoded points and IMU samples.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lvx-convert/internal/convert"
	"github.com/banshee-data/lvx-convert/internal/lvx"
	"github.com/banshee-data/lvx-convert/internal/lvx/chunk"
	"github.com/banshee-data/lvx-convert/internal/monitoring"
)

// Store wraps a migrated SQLite database.
type Store struct {
	db *sql.DB
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// Open opens or creates the database at path and migrates it to the latest
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// PRAGMAs are per connection; one connection also serialises writers
	// from concurrent conversions.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", p, err)
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
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for ad hoc queries.
func (s *Store) DB() *sql.DB { return s.db }

// BeginRun inserts a run row and returns its ID.
func (s *Store) BeginRun(started time.Time, framesPerChunk uint32, pointFormat string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, started_at, frames_per_chunk, point_format)
		VALUES (?, ?, ?, ?)`,
		id, started.UnixNano(), framesPerChunk, pointFormat)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	monitoring.Logf("run=%s started", id)
	return id, nil
}

// RecordFileResult stores the outcome of one file and its device table.
func (s *Store) RecordFileResult(runID string, r convert.FileResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin file result tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO file_results (
			run_id, path, status, reason, frames, points, imu_samples, chunks,
			unknown_packages, trailing_bytes, frame_duration_ms, device_count, elapsed_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Path, r.Status(), nullString(r.Reason()), r.Frames, r.Points, r.Imu, r.Chunks,
		r.UnknownPackages, r.TrailingBytes, r.Header.FrameDurationMs, r.Header.DeviceCount,
		r.Elapsed.Nanoseconds())
	if err != nil {
		return fmt.Errorf("insert file result %s: %w", r.Path, err)
	}

	for _, d := range r.Header.Devices {
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO devices (
				run_id, path, device_index, lidar_sn, hub_sn, device_type,
				extrinsic_enable, roll, pitch, yaw, x, y, z
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, r.Path, d.Index, d.LidarSN, d.HubSN, d.Type,
			d.ExtrinsicEnabled, d.Roll, d.Pitch, d.Yaw, d.X, d.Y, d.Z)
		if err != nil {
			return fmt.Errorf("insert device %d of %s: %w", d.Index, r.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit file result tx: %w", err)
	}
	return nil
}

// FinishRun stamps the run with its end time and totals.
func (s *Store) FinishRun(runID string, finished time.Time, sum convert.Summary) error {
	res, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, files = ?, failed = ?, points = ?
		WHERE run_id = ?`,
		finished.UnixNano(), sum.Files, sum.Failed, sum.Points, runID)
	if err != nil {
		return fmt.Errorf("update run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run %s: %w", runID, sql.ErrNoRows)
	}
	monitoring.Logf("run=%s finished files=%d failed=%d points=%d", runID, sum.Files, sum.Failed, sum.Points)
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Sink returns a chunk sink that stores emissions under runID.
func (s *Store) Sink(runID string) *RunSink {
	return &RunSink{store: s, runID: runID}
}

// RunSink is a chunk.PointSink and chunk.ImuSink writing into one run.
type RunSink struct {
	store *Store
	runID string
}

// ensureChunk returns the chunk_id for label, inserting the row on first
// use. Points and IMU of the same chunk share one row.
func (r *RunSink) ensureChunk(tx *sql.Tx, l chunk.Label) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO chunks (run_id, path, kind, chunk_index, first_frame, last_frame, frames)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, path, kind, chunk_index) DO NOTHING`,
		r.runID, l.Path, l.Kind.String(), l.Index, l.FirstFrame, l.LastFrame, l.Frames)
	if err != nil {
		return 0, fmt.Errorf("insert chunk: %w", err)
	}
	var id int64
	err = tx.QueryRow(`
		SELECT chunk_id FROM chunks
		WHERE run_id = ? AND path = ? AND kind = ? AND chunk_index = ?`,
		r.runID, l.Path, l.Kind.String(), l.Index).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("select chunk: %w", err)
	}
	return id, nil
}

// WritePoints stores the chunk row and its points in one transaction.
func (r *RunSink) WritePoints(l chunk.Label, points []lvx.PointSample) error {
	tx, err := r.store.db.Begin()
	if err != nil {
		return fmt.Errorf("begin points tx: %w", err)
	}
	defer tx.Rollback()

	id, err := r.ensureChunk(tx, l)
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO points (chunk_id, x, y, z, intensity, return_number)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare points insert: %w", err)
	}
	defer stmt.Close()
	for _, p := range points {
		if _, err := stmt.Exec(id, p.X, p.Y, p.Z, p.Intensity, p.ReturnNumber); err != nil {
			return fmt.Errorf("insert point: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit points tx: %w", err)
	}
	return nil
}

// WriteImu stores the chunk row and its IMU samples in one transaction.
func (r *RunSink) WriteImu(l chunk.Label, samples []lvx.ImuSample) error {
	tx, err := r.store.db.Begin()
	if err != nil {
		return fmt.Errorf("begin imu tx: %w", err)
	}
	defer tx.Rollback()

	id, err := r.ensureChunk(tx, l)
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO imu_samples (chunk_id, timestamp, gyro_x, gyro_y, gyro_z, acc_x, acc_y, acc_z)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare imu insert: %w", err)
	}
	defer stmt.Close()
	for _, s := range samples {
		if _, err := stmt.Exec(id, int64(s.Timestamp), s.GyroX, s.GyroY, s.GyroZ, s.AccX, s.AccY, s.AccZ); err != nil {
			return fmt.Errorf("insert imu sample: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit imu tx: %w", err)
	}
	return nil
}
