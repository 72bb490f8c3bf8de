// Package convert drives capture decoding for one file and for a batch of
// files, isolating failures per file.
package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/lvx-convert/internal/fsutil"
	"github.com/banshee-data/lvx-convert/internal/lvx"
	"github.com/banshee-data/lvx-convert/internal/lvx/chunk"
	"github.com/banshee-data/lvx-convert/internal/monitoring"
	"github.com/banshee-data/lvx-convert/internal/timeutil"
)

// CaptureExtension is matched case-insensitively when listing folders.
const CaptureExtension = ".lvx"

// Converter decodes capture files and hands chunks to its sinks. Sinks are
// shared by every file and must be safe for concurrent use when Batch runs
// with more than one worker.
type Converter struct {
	FramesPerChunk uint32

	// StrictDataTypes aborts a file at the first package whose data type
	// is not decoded, instead of skipping it and reporting a warning.
	StrictDataTypes bool

	Points chunk.PointSink
	Imu    chunk.ImuSink

	FS    fsutil.FileSystem
	Clock timeutil.Clock
}

func (c *Converter) fs() fsutil.FileSystem {
	if c.FS == nil {
		return fsutil.OSFileSystem{}
	}
	return c.FS
}

func (c *Converter) clock() timeutil.Clock {
	if c.Clock == nil {
		return timeutil.RealClock{}
	}
	return c.Clock
}

// ConvertFile loads and converts one capture file.
func (c *Converter) ConvertFile(path string) FileResult {
	start := c.clock().Now()
	buf, err := c.fs().ReadFile(path)
	if err != nil {
		monitoring.Logf("file=%s failed to read: %v", path, err)
		return FileResult{
			Path:    path,
			Err:     &FileError{Path: path, Err: err},
			Elapsed: c.clock().Since(start),
		}
	}
	r := c.convert(path, buf)
	r.Elapsed = c.clock().Since(start)
	return r
}

// ConvertBuffer converts an already loaded capture. path only labels the
// output.
func (c *Converter) ConvertBuffer(path string, buf []byte) FileResult {
	start := c.clock().Now()
	r := c.convert(path, buf)
	r.Elapsed = c.clock().Since(start)
	return r
}

func (c *Converter) convert(path string, buf []byte) FileResult {
	monitoring.Logf("file=%s converting %d bytes", path, len(buf))

	s := lvx.NewFrameScanner(buf)
	agg := chunk.NewAggregator(path, c.FramesPerChunk, c.Points, c.Imu)
	r := FileResult{Path: path}

	var firstUnknown *lvx.UnknownPackage
	err := func() error {
		for s.Next() {
			f := s.Frame()
			if f.Header.CurrentOffset != uint64(f.Offset) {
				monitoring.Debugf("file=%s frame %d records offset %d but starts at %d",
					path, f.Header.Index, f.Header.CurrentOffset, f.Offset)
			}
			if len(f.Unknown) > 0 {
				u := f.Unknown[0]
				if firstUnknown == nil {
					firstUnknown = &u
					monitoring.Logf("file=%s skipping unknown data type %d at offset %d (%d bytes assumed)",
						path, uint8(u.DataType), u.Offset, lvx.UnknownPayloadSize)
				}
				r.UnknownPackages += len(f.Unknown)
				if c.StrictDataTypes {
					return &FileError{Path: path, Offset: u.Offset,
						Err: fmt.Errorf("%w %d", lvx.ErrUnknownDataType, uint8(u.DataType))}
				}
			}
			if err := agg.AddFrame(f.Points, f.Imu); err != nil {
				return &FileError{Path: path, Offset: f.Offset, Err: err}
			}
		}
		if err := s.Err(); err != nil {
			offset := s.Offset()
			var be *lvx.BoundsError
			if errors.As(err, &be) {
				offset = be.Offset
			}
			return &FileError{Path: path, Offset: offset, Err: err}
		}
		if err := agg.Finish(); err != nil {
			return &FileError{Path: path, Offset: len(buf), Err: err}
		}
		return nil
	}()

	r.Header = s.Header()
	st := agg.Stats()
	r.Frames, r.Points, r.Imu, r.Chunks = st.Frames, st.Points, st.Imu, st.Chunks

	if err != nil {
		r.Err = err
		monitoring.Logf("file=%s failed: %v", path, err)
		return r
	}

	r.TrailingBytes = s.Trailing()
	if r.TrailingBytes > 0 {
		monitoring.Debugf("file=%s ignoring %d trailing bytes", path, r.TrailingBytes)
	}
	if firstUnknown != nil {
		r.Warnings = append(r.Warnings, fmt.Errorf("%w: skipped %d packages, first type %d at offset %d",
			lvx.ErrUnknownDataType, r.UnknownPackages, uint8(firstUnknown.DataType), firstUnknown.Offset))
	}
	if r.Points == 0 {
		r.Warnings = append(r.Warnings, ErrEmptyResult)
		monitoring.Logf("file=%s no valid points", path)
	}
	monitoring.Logf("file=%s done frames=%d points=%d imu=%d chunks=%d",
		path, r.Frames, r.Points, r.Imu, r.Chunks)
	return r
}

// Batch converts every path, running at most workers files at once.
// Results are returned in input order. A failed file never stops the
// batch; only cancellation of ctx does, in which case unstarted files are
// reported as failed with the context error.
func (c *Converter) Batch(ctx context.Context, paths []string, workers int) ([]FileResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]FileResult, len(paths))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = FileResult{Path: p, Err: &FileError{Path: p, Err: err}}
				return nil
			}
			results[i] = c.ConvertFile(p)
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}

// ListCaptures returns the capture files directly inside dir, sorted by
// name.
func ListCaptures(fsys fsutil.FileSystem, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), CaptureExtension) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// ResolveInputs expands directories into their capture files and keeps
// plain file arguments as given.
func ResolveInputs(fsys fsutil.FileSystem, args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		info, err := fsys.Stat(a)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", a, err)
		}
		if !info.IsDir() {
			out = append(out, a)
			continue
		}
		files, err := ListCaptures(fsys, a)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			monitoring.Logf("no %s files in %s", CaptureExtension, a)
		}
		out = append(out, files...)
	}
	return out, nil
}

// ErrDuplicateBase is returned by CheckDistinctBases.
var ErrDuplicateBase = errors.New("inputs share a base name")

// CheckDistinctBases reports inputs whose names, stripped of directory and
// extension, are equal. Such inputs map to the same output names when every
// file is written into a single directory.
func CheckDistinctBases(paths []string) error {
	seen := make(map[string]string, len(paths))
	var errs []error
	for _, p := range paths {
		base := chunk.Label{Path: p}.Base()
		if prev, ok := seen[base]; ok {
			errs = append(errs, fmt.Errorf("%w %q: %s and %s", ErrDuplicateBase, base, prev, p))
			continue
		}
		seen[base] = p
	}
	return errors.Join(errs...)
}
