// Package chunk groups decoded frames into bounded output chunks and hands
// them to point and IMU sinks.
package chunk

import (
	"errors"
	"fmt"

	"github.com/banshee-data/lvx-convert/internal/lvx"
	"github.com/banshee-data/lvx-convert/internal/monitoring"
)

// ErrFinished is returned when frames are added after Finish.
var ErrFinished = errors.New("chunk: aggregator already finished")

// Chunk is the accumulated output of consecutive frames. Once emitted it is
// never touched again by the aggregator.
type Chunk struct {
	Label  Label
	Points []lvx.PointSample
	Imu    []lvx.ImuSample
}

// Stats summarises what an aggregator has seen and emitted.
type Stats struct {
	Frames  uint64
	Points  int
	Imu     int
	Chunks  int
	Flushed bool // Finish completed
}

// Aggregator accumulates frames for one capture file and flushes a chunk
// every FramesPerChunk frames. FramesPerChunk == 0 means one chunk for the
// whole file, flushed by Finish.
//
// An Aggregator is owned by a single goroutine.
type Aggregator struct {
	path           string
	framesPerChunk uint32
	points         PointSink
	imu            ImuSink

	cur        Chunk
	chunkIndex uint32
	overall    []lvx.ImuSample
	stats      Stats
}

// NewAggregator returns an aggregator for the capture at path. Either sink
// may be nil.
func NewAggregator(path string, framesPerChunk uint32, points PointSink, imu ImuSink) *Aggregator {
	a := &Aggregator{
		path:           path,
		framesPerChunk: framesPerChunk,
		points:         points,
		imu:            imu,
	}
	a.reset()
	return a
}

func (a *Aggregator) reset() {
	kind := KindChunk
	if a.framesPerChunk == 0 {
		kind = KindAll
	}
	a.cur = Chunk{Label: Label{
		Path:       a.path,
		Kind:       kind,
		Index:      a.chunkIndex,
		FirstFrame: a.stats.Frames,
	}}
}

// AddFrame appends one frame's output to the current chunk and flushes the
// chunk when it holds FramesPerChunk frames.
func (a *Aggregator) AddFrame(points []lvx.PointSample, imu []lvx.ImuSample) error {
	if a.stats.Flushed {
		return ErrFinished
	}
	a.cur.Points = append(a.cur.Points, points...)
	a.cur.Imu = append(a.cur.Imu, imu...)
	a.overall = append(a.overall, imu...)
	a.cur.Label.Frames++
	a.cur.Label.LastFrame = a.stats.Frames
	a.stats.Frames++
	a.stats.Points += len(points)
	a.stats.Imu += len(imu)

	if a.framesPerChunk != 0 && a.stats.Frames%uint64(a.framesPerChunk) == 0 {
		return a.flush()
	}
	return nil
}

// Finish flushes any partly filled chunk, or the single whole-file chunk,
// then emits the overall IMU stream. It must be called exactly once, after
// the last frame.
func (a *Aggregator) Finish() error {
	if a.stats.Flushed {
		return ErrFinished
	}
	if a.framesPerChunk == 0 || a.cur.Label.Frames > 0 {
		if err := a.flush(); err != nil {
			return err
		}
	}
	a.stats.Flushed = true

	label := Label{Path: a.path, Kind: KindOverall, Frames: a.stats.Frames}
	if a.stats.Frames > 0 {
		label.LastFrame = a.stats.Frames - 1
	}
	overall := a.overall
	a.overall = nil
	if a.imu != nil {
		if err := a.imu.WriteImu(label, overall); err != nil {
			return fmt.Errorf("write overall imu: %w", err)
		}
	}
	monitoring.Debugf("file=%s overall imu samples=%d", a.path, len(overall))
	return nil
}

func (a *Aggregator) flush() error {
	c := a.cur
	a.stats.Chunks++
	a.chunkIndex++
	a.reset()

	if a.points != nil {
		if err := a.points.WritePoints(c.Label, c.Points); err != nil {
			return fmt.Errorf("write %s %d points: %w", c.Label.Kind, c.Label.Index, err)
		}
	}
	if a.imu != nil {
		if err := a.imu.WriteImu(c.Label, c.Imu); err != nil {
			return fmt.Errorf("write %s %d imu: %w", c.Label.Kind, c.Label.Index, err)
		}
	}
	if c.Label.Frames > 0 {
		monitoring.Logf("file=%s processed frames %d to %d into %s %d (%d points, %d imu)",
			a.path, c.Label.FirstFrame, c.Label.LastFrame, c.Label.Kind, c.Label.Index, len(c.Points), len(c.Imu))
	} else {
		monitoring.Logf("file=%s no frames for %s %d", a.path, c.Label.Kind, c.Label.Index)
	}
	return nil
}

// Stats returns the running totals.
func (a *Aggregator) Stats() Stats { return a.stats }
