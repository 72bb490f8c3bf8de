package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/banshee-data/lvx-convert/internal/config"
	"github.com/banshee-data/lvx-convert/internal/fsutil"
	"github.com/banshee-data/lvx-convert/internal/lvx"
	"github.com/banshee-data/lvx-convert/internal/lvx/chunk"
	"github.com/banshee-data/lvx-convert/internal/monitoring"
	"github.com/banshee-data/lvx-convert/internal/security"
	"github.com/banshee-data/lvx-convert/internal/timeutil"
	"github.com/banshee-data/lvx-convert/internal/units"
	"github.com/banshee-data/lvx-convert/internal/version"
)

// ErrOutputCollision is returned when two input files map to the same
// output path.
var ErrOutputCollision = errors.New("output path already written by another input")

// Writer is a chunk.PointSink and chunk.ImuSink that writes one file per
// emission. It is safe for concurrent use across input files.
type Writer struct {
	FS    fsutil.FileSystem
	Clock timeutil.Clock

	// OutputDir receives every file; empty writes next to the input.
	OutputDir string
	// Format is config.FormatLAS or config.FormatASC.
	Format string
	// Units applies to ASC output only.
	Units string

	// NewProjectID stamps LAS headers. Defaults to uuid.New.
	NewProjectID func() uuid.UUID

	mu      sync.Mutex
	written map[string]string // output path -> input path
}

// NewWriter returns a Writer configured from cfg.
func NewWriter(fs fsutil.FileSystem, clock timeutil.Clock, cfg *config.ConvertConfig) *Writer {
	return &Writer{
		FS:        fs,
		Clock:     clock,
		OutputDir: cfg.GetOutputDir(),
		Format:    cfg.GetPointFormat(),
		Units:     cfg.GetPointUnits(),
	}
}

func (w *Writer) dir(l chunk.Label) string {
	if w.OutputDir != "" {
		return w.OutputDir
	}
	return l.Dir()
}

func (w *Writer) create(l chunk.Label, name string, fill func(io.Writer) error) error {
	dir := w.dir(l)
	path, err := security.OutputPath(dir, name)
	if err != nil {
		return err
	}
	if err := w.claim(path, l.Path); err != nil {
		return err
	}
	if err := w.FS.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	f, err := w.FS.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// claim reserves path for input before any bytes are written, so a second
// input with the same base name fails instead of replacing the first.
func (w *Writer) claim(path, input string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.written[path]; ok && prev != input {
		return fmt.Errorf("%s: %w (%s)", path, ErrOutputCollision, prev)
	}
	if w.written == nil {
		w.written = make(map[string]string)
	}
	w.written[path] = input
	return nil
}

// WritePoints writes one point cloud. Empty chunks produce no file.
func (w *Writer) WritePoints(l chunk.Label, points []lvx.PointSample) error {
	ext := ExtLAS
	if w.Format == config.FormatASC {
		ext = ExtASC
	}
	name := PointFileName(l, ext)
	if len(points) == 0 {
		monitoring.Logf("file=%s no points to write for %s", l.Path, name)
		return nil
	}

	err := w.create(l, name, func(out io.Writer) error {
		if ext == ExtASC {
			u := w.Units
			if u == "" {
				u = units.Meters
			}
			return WriteASC(out, points, u)
		}
		return WriteLAS(out, points, w.lasHeader(points))
	})
	if err != nil {
		return err
	}
	monitoring.Logf("file=%s wrote %d points to %s", l.Path, len(points), name)
	return nil
}

func (w *Writer) lasHeader(points []lvx.PointSample) LASHeader {
	clock := w.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	newID := w.NewProjectID
	if newID == nil {
		newID = uuid.New
	}
	return NewLASHeader(points, clock.Now(), version.Software(), newID())
}

// WriteImu writes one IMU table. Empty streams produce no file.
func (w *Writer) WriteImu(l chunk.Label, samples []lvx.ImuSample) error {
	name := ImuFileName(l)
	if len(samples) == 0 {
		monitoring.Logf("file=%s no IMU data to write for %s", l.Path, name)
		return nil
	}
	if err := w.create(l, name, func(out io.Writer) error {
		return WriteImuCSV(out, samples)
	}); err != nil {
		return err
	}
	monitoring.Logf("file=%s wrote %d IMU samples to %s", l.Path, len(samples), name)
	return nil
}

// Written returns every output path claimed so far, sorted. A path whose
// write failed stays claimed.
func (w *Writer) Written() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.written))
	for p := range w.written {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

