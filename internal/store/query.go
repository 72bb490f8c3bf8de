package store

import (
	"fmt"
	"time"
)

// Run is a stored run row.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time // zero while running
	FramesPerChunk uint32
	PointFormat    string
	Files          int
	Failed         int
	Points         int
}

// GetRun loads one run.
func (s *Store) GetRun(runID string) (*Run, error) {
	var (
		r        Run
		started  int64
		finished *int64
	)
	err := s.db.QueryRow(`
		SELECT run_id, started_at, finished_at, frames_per_chunk, point_format, files, failed, points
		FROM runs WHERE run_id = ?`, runID).
		Scan(&r.ID, &started, &finished, &r.FramesPerChunk, &r.PointFormat, &r.Files, &r.Failed, &r.Points)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	r.StartedAt = time.Unix(0, started)
	if finished != nil {
		r.FinishedAt = time.Unix(0, *finished)
	}
	return &r, nil
}

// FileRow is a stored file_results row.
type FileRow struct {
	Path            string
	Status          string
	Reason          string
	Frames          uint64
	Points          int
	Imu             int
	Chunks          int
	UnknownPackages int
	DeviceCount     int
}

// ListFileResults returns the file rows of a run ordered by path.
func (s *Store) ListFileResults(runID string) ([]FileRow, error) {
	rows, err := s.db.Query(`
		SELECT path, status, COALESCE(reason, ''), frames, points, imu_samples, chunks,
		       unknown_packages, device_count
		FROM file_results
		WHERE run_id = ?
		ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("query file results: %w", err)
	}
	defer rows.Close()

	var out []FileRow
	for rows.Next() {
		var f FileRow
		if err := rows.Scan(&f.Path, &f.Status, &f.Reason, &f.Frames, &f.Points, &f.Imu, &f.Chunks,
			&f.UnknownPackages, &f.DeviceCount); err != nil {
			return nil, fmt.Errorf("scan file result: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ChunkRow is a stored chunk with its row counts.
type ChunkRow struct {
	Path       string
	Kind       string
	Index      uint32
	FirstFrame uint64
	LastFrame  uint64
	Frames     uint64
	Points     int
	Imu        int
}

// ListChunks returns the chunks of a run ordered by path, kind and index.
func (s *Store) ListChunks(runID string) ([]ChunkRow, error) {
	rows, err := s.db.Query(`
		SELECT c.path, c.kind, c.chunk_index, c.first_frame, c.last_frame, c.frames,
		       (SELECT COUNT(*) FROM points p WHERE p.chunk_id = c.chunk_id),
		       (SELECT COUNT(*) FROM imu_samples i WHERE i.chunk_id = c.chunk_id)
		FROM chunks c
		WHERE c.run_id = ?
		ORDER BY c.path, c.kind, c.chunk_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var out []ChunkRow
	for rows.Next() {
		var c ChunkRow
		if err := rows.Scan(&c.Path, &c.Kind, &c.Index, &c.FirstFrame, &c.LastFrame, &c.Frames, &c.Points, &c.Imu); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
