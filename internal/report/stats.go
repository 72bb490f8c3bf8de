// Package report summarises a conversion batch as an HTML page and IMU
// plots.
package report

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lvx-convert/internal/lvx"
	"github.com/banshee-data/lvx-convert/internal/lvx/chunk"
	"github.com/banshee-data/lvx-convert/internal/units"
)

// ChunkStats describes the points of one emitted chunk. Extents are in
// metres and are zero for an empty chunk.
type ChunkStats struct {
	Label           chunk.Label
	Points          int
	IntensityMean   float64
	IntensityStdDev float64
	MinX, MaxX      float64
	MinY, MaxY      float64
	MinZ, MaxZ      float64
	Returns         [3]int // points per return number 1..3
}

// ComputeChunkStats summarises points.
func ComputeChunkStats(l chunk.Label, points []lvx.PointSample) ChunkStats {
	s := ChunkStats{Label: l, Points: len(points)}
	if len(points) == 0 {
		return s
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	zs := make([]float64, len(points))
	in := make([]float64, len(points))
	for i, p := range points {
		xs[i] = units.ConvertLength(p.X, units.Meters)
		ys[i] = units.ConvertLength(p.Y, units.Meters)
		zs[i] = units.ConvertLength(p.Z, units.Meters)
		in[i] = float64(p.Intensity)
		if p.ReturnNumber >= 1 && p.ReturnNumber <= 3 {
			s.Returns[p.ReturnNumber-1]++
		}
	}
	s.MinX, s.MaxX = floats.Min(xs), floats.Max(xs)
	s.MinY, s.MaxY = floats.Min(ys), floats.Max(ys)
	s.MinZ, s.MaxZ = floats.Min(zs), floats.Max(zs)
	if len(in) > 1 {
		s.IntensityMean, s.IntensityStdDev = stat.MeanStdDev(in, nil)
	} else {
		s.IntensityMean = in[0]
	}
	return s
}

// Collector is a chunk.PointSink and chunk.ImuSink that keeps chunk
// statistics and the overall IMU stream of every file. Points themselves
// are not retained.
type Collector struct {
	mu     sync.Mutex
	chunks map[string][]ChunkStats
	imu    map[string][]lvx.ImuSample
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		chunks: make(map[string][]ChunkStats),
		imu:    make(map[string][]lvx.ImuSample),
	}
}

func (c *Collector) WritePoints(l chunk.Label, points []lvx.PointSample) error {
	s := ComputeChunkStats(l, points)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chunks[l.Path] = append(c.chunks[l.Path], s)
	return nil
}

func (c *Collector) WriteImu(l chunk.Label, samples []lvx.ImuSample) error {
	if l.Kind != chunk.KindOverall {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.imu[l.Path] = append([]lvx.ImuSample(nil), samples...)
	return nil
}

// Chunks returns the statistics collected for path in emission order.
func (c *Collector) Chunks(path string) []ChunkStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChunkStats(nil), c.chunks[path]...)
}

// Imu returns a copy of the overall IMU stream collected for path.
func (c *Collector) Imu(path string) []lvx.ImuSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]lvx.ImuSample(nil), c.imu[path]...)
}
