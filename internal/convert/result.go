package convert

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/lvx-convert/internal/lvx"
)

// ErrEmptyResult is attached as a warning to files that decode cleanly but
// yield no valid points.
var ErrEmptyResult = errors.New("convert: file yielded no valid points")

// FileError is the reason a file was aborted, with the offset being
// processed at the time.
type FileError struct {
	Path   string
	Offset int
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s at offset %d: %v", e.Path, e.Offset, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Status values reported per file.
const (
	StatusOK     = "ok"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

// FileResult is the outcome of converting one capture file.
type FileResult struct {
	Path            string
	Header          lvx.FileHeader
	Frames          uint64
	Points          int
	Imu             int
	Chunks          int
	UnknownPackages int
	TrailingBytes   int
	Elapsed         time.Duration

	// Err is nil on success, otherwise a *FileError.
	Err error
	// Warnings are non-fatal conditions, e.g. ErrEmptyResult or skipped
	// unknown data types.
	Warnings []error
}

// OK reports whether the file was converted without error.
func (r FileResult) OK() bool { return r.Err == nil }

// Status returns StatusOK, StatusEmpty or StatusFailed.
func (r FileResult) Status() string {
	switch {
	case r.Err != nil:
		return StatusFailed
	case r.Points == 0:
		return StatusEmpty
	default:
		return StatusOK
	}
}

// Reason returns the error text for failed files, or the joined warnings.
func (r FileResult) Reason() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	if len(r.Warnings) > 0 {
		return errors.Join(r.Warnings...).Error()
	}
	return ""
}

// Summary aggregates a batch.
type Summary struct {
	Files   int
	Failed  int
	Empty   int
	Frames  uint64
	Points  int
	Imu     int
	Chunks  int
	Elapsed time.Duration
}

// Summarize totals results.
func Summarize(results []FileResult) Summary {
	var s Summary
	for _, r := range results {
		s.Files++
		switch r.Status() {
		case StatusFailed:
			s.Failed++
		case StatusEmpty:
			s.Empty++
		}
		s.Frames += r.Frames
		s.Points += r.Points
		s.Imu += r.Imu
		s.Chunks += r.Chunks
		s.Elapsed += r.Elapsed
	}
	return s
}
