package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lvx-convert/internal/convert"
	"github.com/banshee-data/lvx-convert/internal/fsutil"
	"github.com/banshee-data/lvx-convert/internal/lvx"
	"github.com/banshee-data/lvx-convert/internal/lvx/chunk"
	"github.com/banshee-data/lvx-convert/internal/monitoring"
	"github.com/banshee-data/lvx-convert/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func TestComputeChunkStats(t *testing.T) {
	t.Parallel()

	l := chunk.Label{Path: "a.lvx", Kind: chunk.KindChunk, Index: 2}
	s := ComputeChunkStats(l, []lvx.PointSample{
		{X: 1000, Y: -500, Z: 0, Intensity: 10, ReturnNumber: 1},
		{X: -2000, Y: 500, Z: 250, Intensity: 20, ReturnNumber: 2},
		{X: 0, Y: 0, Z: -250, Intensity: 30, ReturnNumber: 1},
	})

	assert.Equal(t, l, s.Label)
	assert.Equal(t, 3, s.Points)
	assert.InDelta(t, 20, s.IntensityMean, 1e-9)
	assert.InDelta(t, 10, s.IntensityStdDev, 1e-9)
	assert.InDelta(t, -2.0, s.MinX, 1e-9)
	assert.InDelta(t, 1.0, s.MaxX, 1e-9)
	assert.InDelta(t, -0.5, s.MinY, 1e-9)
	assert.InDelta(t, 0.5, s.MaxY, 1e-9)
	assert.InDelta(t, -0.25, s.MinZ, 1e-9)
	assert.InDelta(t, 0.25, s.MaxZ, 1e-9)
	assert.Equal(t, [3]int{2, 1, 0}, s.Returns)
}

func TestComputeChunkStatsSmall(t *testing.T) {
	t.Parallel()

	empty := ComputeChunkStats(chunk.Label{}, nil)
	assert.Zero(t, empty.Points)
	assert.Zero(t, empty.IntensityMean)

	one := ComputeChunkStats(chunk.Label{}, []lvx.PointSample{{X: 1, Intensity: 7, ReturnNumber: 3}})
	assert.Equal(t, 7.0, one.IntensityMean)
	assert.Zero(t, one.IntensityStdDev)
	assert.Equal(t, [3]int{0, 0, 1}, one.Returns)
}

func runBatch(t *testing.T) ([]convert.FileResult, *Collector) {
	t.Helper()

	col := NewCollector()
	c := &convert.Converter{FramesPerChunk: 2, Points: col, Imu: col}
	return []convert.FileResult{
		c.ConvertBuffer("/in/a.lvx", testutil.SimpleCapture(5, 4)),
		c.ConvertBuffer("/in/b.lvx", []byte("bad")),
	}, col
}

func TestCollector(t *testing.T) {
	t.Parallel()

	results, col := runBatch(t)
	require.True(t, results[0].OK())

	chunks := col.Chunks("/in/a.lvx")
	require.Len(t, chunks, 3)
	total := 0
	for i, c := range chunks {
		assert.Equal(t, uint32(i), c.Label.Index)
		total += c.Points
	}
	assert.Equal(t, results[0].Points, total)
	assert.Len(t, col.Imu("/in/a.lvx"), 5)
	assert.Empty(t, col.Chunks("/in/b.lvx"))
}

func TestCollectorReturnsCopies(t *testing.T) {
	t.Parallel()

	_, col := runBatch(t)
	imu := col.Imu("/in/a.lvx")
	require.NotEmpty(t, imu)
	want := imu[0]
	imu[0].GyroX = 42
	assert.Equal(t, want, col.Imu("/in/a.lvx")[0])

	chunks := col.Chunks("/in/a.lvx")
	chunks[0].Points = -1
	assert.NotEqual(t, -1, col.Chunks("/in/a.lvx")[0].Points)
}

func TestBuildAndSummaryHTML(t *testing.T) {
	t.Parallel()

	results, col := runBatch(t)
	r := Build("run-1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), results, col)

	assert.Equal(t, 2, r.Summary.Files)
	assert.Equal(t, 1, r.Summary.Failed)
	require.Len(t, r.Files, 2)
	assert.Len(t, r.Files[0].Chunks, 3)

	var buf bytes.Buffer
	require.NoError(t, WriteSummaryHTML(&buf, r))
	html := buf.String()
	assert.True(t, strings.Contains(html, "<html"), "rendered page")
	assert.Contains(t, html, "run=run-1")
	assert.Contains(t, html, "b (failed)")
	assert.Contains(t, html, "a:2")
}

func TestPlotIMU(t *testing.T) {
	t.Parallel()

	_, err := PlotIMU(nil, "empty", false)
	assert.Error(t, err)

	samples := []lvx.ImuSample{
		{Timestamp: 1_000_000_000, GyroX: 0.1, AccZ: 1},
		{Timestamp: 1_500_000_000, GyroX: 0.2, AccZ: 0.98},
		{Timestamp: 2_000_000_000, GyroX: 0.1, AccZ: 1.01},
	}
	p, err := PlotIMU(samples, "imu", true)
	require.NoError(t, err)
	assert.Equal(t, "imu", p.Title.Text)
	assert.Equal(t, 0.0, p.X.Min)
	assert.Equal(t, 1.0, p.X.Max)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, p))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngSignature))
}

func TestWrite(t *testing.T) {
	t.Parallel()

	results, col := runBatch(t)
	r := Build("", time.Now(), results, col)

	fs := fsutil.NewMemoryFileSystem()
	written, err := Write(fs, "/out/report", r, col)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/out/report/lvx_summary.html",
		"/out/report/a_imu_gyro.png",
		"/out/report/a_imu_acc.png",
	}, written)

	data, err := fs.ReadFile("/out/report/a_imu_acc.png")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngSignature))

	written, err = Write(fs, "/out/bare", r, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/bare/lvx_summary.html"}, written)
}

func TestWriteRejectsSharedPlotNames(t *testing.T) {
	t.Parallel()

	col := NewCollector()
	c := &convert.Converter{Points: col, Imu: col}
	results := []convert.FileResult{
		c.ConvertBuffer("/a/scan.lvx", testutil.SimpleCapture(2, 1)),
		c.ConvertBuffer("/b/scan.lvx", testutil.SimpleCapture(2, 1)),
	}

	fs := fsutil.NewMemoryFileSystem()
	_, err := Write(fs, "/out", Build("", time.Now(), results, col), col)
	require.ErrorIs(t, err, ErrPlotCollision)
	assert.Contains(t, err.Error(), "/b/scan.lvx")
}
