package chunk

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/banshee-data/lvx-convert/internal/lvx"
)

// Kind distinguishes the three kinds of emission.
type Kind int

const (
	// KindChunk is one of several fixed-size chunks (frames per chunk > 0).
	KindChunk Kind = iota
	// KindAll is the single chunk covering the whole file (frames per chunk == 0).
	KindAll
	// KindOverall is the whole-file IMU stream, emitted once after all chunks.
	KindOverall
)

func (k Kind) String() string {
	switch k {
	case KindChunk:
		return "chunk"
	case KindAll:
		return "all"
	case KindOverall:
		return "overall"
	default:
		return "unknown"
	}
}

// Label identifies one emission.
type Label struct {
	Path  string // input capture file
	Kind  Kind
	Index uint32 // chunk index; 0 for KindAll and KindOverall

	// FirstFrame and LastFrame are 0-based frame counters in arrival order,
	// inclusive. Both are 0 for an emission covering no frames.
	FirstFrame uint64
	LastFrame  uint64
	Frames     uint64
}

// Base returns the input file name without directory or extension.
func (l Label) Base() string {
	base := filepath.Base(l.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Dir returns the directory of the input file.
func (l Label) Dir() string { return filepath.Dir(l.Path) }

// PointSink persists the points of one chunk. Sinks must not retain
// points beyond the call unless they copy them; the slice is not modified
// after hand-off either way.
type PointSink interface {
	WritePoints(label Label, points []lvx.PointSample) error
}

// ImuSink persists the IMU samples of one chunk or of the overall stream.
type ImuSink interface {
	WriteImu(label Label, samples []lvx.ImuSample) error
}

// MultiPointSink fans points out to every sink in order. All sinks are
// called; their errors are joined.
type MultiPointSink []PointSink

func (m MultiPointSink) WritePoints(label Label, points []lvx.PointSample) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.WritePoints(label, points); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MultiImuSink fans IMU samples out to every sink in order.
type MultiImuSink []ImuSink

func (m MultiImuSink) WriteImu(label Label, samples []lvx.ImuSample) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.WriteImu(label, samples); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emission is one call recorded by Recorder.
type Emission struct {
	Label  Label
	Points []lvx.PointSample
	Imu    []lvx.ImuSample
	IsImu  bool
}

// Recorder is an in-memory PointSink and ImuSink. It is safe for
// concurrent use.
type Recorder struct {
	mu        sync.Mutex
	emissions []Emission
}

func (r *Recorder) WritePoints(label Label, points []lvx.PointSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emissions = append(r.emissions, Emission{Label: label, Points: points})
	return nil
}

func (r *Recorder) WriteImu(label Label, samples []lvx.ImuSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emissions = append(r.emissions, Emission{Label: label, Imu: samples, IsImu: true})
	return nil
}

// Emissions returns a copy of everything recorded so far, in call order.
func (r *Recorder) Emissions() []Emission {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Emission, len(r.emissions))
	copy(out, r.emissions)
	return out
}

// ForPath returns the emissions recorded for one input file.
func (r *Recorder) ForPath(path string) []Emission {
	var out []Emission
	for _, e := range r.Emissions() {
		if e.Label.Path == path {
			out = append(out, e)
		}
	}
	return out
}
