package export

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lvx-convert/internal/config"
	"github.com/banshee-data/lvx-convert/internal/fsutil"
	"github.com/banshee-data/lvx-convert/internal/lvx"
	"github.com/banshee-data/lvx-convert/internal/lvx/chunk"
	"github.com/banshee-data/lvx-convert/internal/monitoring"
	"github.com/banshee-data/lvx-convert/internal/timeutil"
)

func init() {
	monitoring.SetLogger(nil)
}

var testPoints = []lvx.PointSample{
	{X: 1000, Y: -2000, Z: 300, Intensity: 10, ReturnNumber: 1},
	{X: -500, Y: 4000, Z: -100, Intensity: 255, ReturnNumber: 2},
	{X: 250, Y: 0, Z: 50, Intensity: 0, ReturnNumber: 1},
}

var testImu = []lvx.ImuSample{
	{Timestamp: 1000, GyroX: 0.5, GyroY: -0.25, GyroZ: 0, AccX: 0, AccY: 0, AccZ: 9.75},
	{Timestamp: 2000, GyroX: 1, GyroY: 2, GyroZ: 3, AccX: 4, AccY: 5, AccZ: 6},
}

func TestFileNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label  chunk.Label
		points string
		imu    string
	}{
		{chunk.Label{Path: "/d/scan.lvx", Kind: chunk.KindChunk, Index: 0}, "00_scan.las", "scan_imu_chunk_0.csv"},
		{chunk.Label{Path: "/d/scan.lvx", Kind: chunk.KindChunk, Index: 12}, "012_scan.las", "scan_imu_chunk_12.csv"},
		{chunk.Label{Path: "/d/scan.LVX", Kind: chunk.KindAll}, "scan_All.las", "scan_All.csv"},
		{chunk.Label{Path: "scan.lvx", Kind: chunk.KindOverall}, "scan_All.las", "scan_imu_overall.csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.points, PointFileName(tt.label, ExtLAS))
		assert.Equal(t, tt.imu, ImuFileName(tt.label))
	}
	assert.Equal(t, "03_scan.asc", PointFileName(chunk.Label{Path: "scan.lvx", Kind: chunk.KindChunk, Index: 3}, ExtASC))
}

func TestNewLASHeader(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	id := uuid.MustParse("01234567-89ab-cdef-0123-456789abcdef")
	h := NewLASHeader(testPoints, created, "lvx-convert test", id)

	assert.Equal(t, "LASF", string(h.FileSignature[:]))
	assert.Equal(t, uint8(1), h.VersionMajor)
	assert.Equal(t, uint8(2), h.VersionMinor)
	assert.Equal(t, uint8(LASPointFormat), h.PointDataFormat)
	assert.Equal(t, uint16(LASPointRecordSize), h.PointDataRecordLength)
	assert.Equal(t, uint32(3), h.NumberOfPointRecords)
	assert.Equal(t, [5]uint32{2, 1, 0, 0, 0}, h.NumberOfPointsByReturn)
	assert.Equal(t, uint16(34), h.CreationDay)
	assert.Equal(t, uint16(2026), h.CreationYear)
	assert.Equal(t, [16]byte{
		0x67, 0x45, 0x23, 0x01, 0xab, 0x89, 0xef, 0xcd,
		0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef,
	}, h.ProjectID, "GUID data 1-3 are little-endian on disk")
	assert.Equal(t, id, h.Project())
	assert.InDelta(t, -0.5, h.MinX, 1e-9)
	assert.InDelta(t, 1.0, h.MaxX, 1e-9)
	assert.InDelta(t, -2.0, h.MinY, 1e-9)
	assert.InDelta(t, 4.0, h.MaxY, 1e-9)
	assert.InDelta(t, -0.1, h.MinZ, 1e-9)
	assert.InDelta(t, 0.3, h.MaxZ, 1e-9)
	assert.Equal(t, LASScale, h.XScale)
	assert.True(t, strings.HasPrefix(string(h.GeneratingSoftware[:]), "lvx-convert test"))
}

func TestLASHeaderSize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, LASHeaderSize, binary.Size(LASHeader{}))
}

func TestWriteLASRoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("01234567-89ab-cdef-0123-456789abcdef")
	h := NewLASHeader(testPoints, time.Now(), "x", id)
	var buf bytes.Buffer
	require.NoError(t, WriteLAS(&buf, testPoints, h))
	require.Equal(t, LASHeaderSize+len(testPoints)*LASPointRecordSize, buf.Len())

	raw := buf.Bytes()
	got, err := ReadLASHeader(bytes.NewReader(raw))
	require.NoError(t, err)
	if diff := cmp.Diff(h, got); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint32(0x01234567), binary.LittleEndian.Uint32(raw[8:12]))
	assert.Equal(t, id, got.Project())

	for i, p := range testPoints {
		rec := raw[LASHeaderSize+i*LASPointRecordSize:]
		assert.Equal(t, p.X, int32(binary.LittleEndian.Uint32(rec[0:4])))
		assert.Equal(t, p.Y, int32(binary.LittleEndian.Uint32(rec[4:8])))
		assert.Equal(t, p.Z, int32(binary.LittleEndian.Uint32(rec[8:12])))
		assert.Equal(t, uint16(p.Intensity), binary.LittleEndian.Uint16(rec[12:14]))
		assert.Equal(t, p.ReturnNumber, rec[14]&0x07)
	}
}

func TestReadLASHeaderErrors(t *testing.T) {
	t.Parallel()

	_, err := ReadLASHeader(bytes.NewReader(make([]byte, 10)))
	assert.Error(t, err)

	_, err = ReadLASHeader(bytes.NewReader(make([]byte, LASHeaderSize)))
	assert.ErrorContains(t, err, "bad signature")
}

func TestWriteASC(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteASC(&buf, testPoints[:2], "m"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "# Format: X Y Z Intensity ReturnNumber", lines[1])
	assert.Equal(t, "1.000000 -2.000000 0.300000 10 1", lines[2])
	assert.Equal(t, "-0.500000 4.000000 -0.100000 255 2", lines[3])

	buf.Reset()
	require.NoError(t, WriteASC(&buf, testPoints[:1], "mm"))
	assert.Contains(t, buf.String(), "1000 -2000 300 10 1\n")

	assert.Error(t, WriteASC(&buf, testPoints, "ft"))
}

func TestWriteImuCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteImuCSV(&buf, testImu))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	want := [][]string{
		ImuCSVHeader,
		{"1000", "0.5", "-0.25", "0", "0", "0", "9.75"},
		{"2000", "1", "2", "3", "4", "5", "6"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func newTestWriter(fs *fsutil.MemoryFileSystem, format string) *Writer {
	cfg := config.DefaultConvertConfig()
	cfg.PointFormat = &format
	w := NewWriter(fs, timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)), cfg)
	w.NewProjectID = func() uuid.UUID { return uuid.Nil }
	return w
}

func TestWriterLAS(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	fs.WriteFile("/in/scan.lvx", nil)
	w := newTestWriter(fs, config.FormatLAS)

	label := chunk.Label{Path: "/in/scan.lvx", Kind: chunk.KindChunk, Index: 1}
	require.NoError(t, w.WritePoints(label, testPoints))
	require.NoError(t, w.WriteImu(label, testImu))
	require.NoError(t, w.WriteImu(chunk.Label{Path: "/in/scan.lvx", Kind: chunk.KindOverall}, testImu))

	assert.Equal(t, []string{"/in/01_scan.las", "/in/scan_imu_chunk_1.csv", "/in/scan_imu_overall.csv"}, w.Written())

	data, err := fs.ReadFile("/in/01_scan.las")
	require.NoError(t, err)
	h, err := ReadLASHeader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), h.NumberOfPointRecords)
	assert.Equal(t, uint16(2026), h.CreationYear)
}

func TestWriterASCToOutputDir(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	w := newTestWriter(fs, config.FormatASC)
	w.OutputDir = "/out/nested"

	require.NoError(t, w.WritePoints(chunk.Label{Path: "/in/scan.lvx", Kind: chunk.KindAll}, testPoints))
	data, err := fs.ReadFile("/out/nested/scan_All.asc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Exported points (m)\n"))
}

func TestWriterSkipsEmpty(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	fs.WriteFile("/in/scan.lvx", nil)
	w := newTestWriter(fs, config.FormatLAS)

	label := chunk.Label{Path: "/in/scan.lvx", Kind: chunk.KindAll}
	require.NoError(t, w.WritePoints(label, nil))
	require.NoError(t, w.WriteImu(label, nil))
	assert.Empty(t, w.Written())
	assert.Equal(t, []string{"/in/scan.lvx"}, fs.Files("/in"))
}

func TestWriterRelativeInput(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	w := newTestWriter(fs, config.FormatLAS)
	require.NoError(t, w.WritePoints(chunk.Label{Path: "scan.lvx", Kind: chunk.KindAll}, testPoints))
	assert.Equal(t, []string{"scan_All.las"}, w.Written())
}

func TestWriterRejectsSharedOutputPath(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	w := newTestWriter(fs, config.FormatASC)
	w.OutputDir = "/out"

	first := []lvx.PointSample{{X: 1, Y: 1, Z: 1, Intensity: 1, ReturnNumber: 1}}
	second := []lvx.PointSample{{X: 2, Y: 2, Z: 2, Intensity: 2, ReturnNumber: 1}}
	require.NoError(t, w.WritePoints(chunk.Label{Path: "/a/scan.lvx", Kind: chunk.KindAll}, first))

	err := w.WritePoints(chunk.Label{Path: "/b/scan.lvx", Kind: chunk.KindAll}, second)
	require.ErrorIs(t, err, ErrOutputCollision)
	assert.Contains(t, err.Error(), "/a/scan.lvx")

	err = w.WriteImu(chunk.Label{Path: "/b/scan.lvx", Kind: chunk.KindOverall}, testImu)
	require.NoError(t, err, "distinct output names do not collide")
	err = w.WriteImu(chunk.Label{Path: "/a/scan.lvx", Kind: chunk.KindOverall}, testImu)
	require.ErrorIs(t, err, ErrOutputCollision)

	assert.Equal(t, []string{"/out/scan_All.asc", "/out/scan_imu_overall.csv"}, w.Written())
	data, err := fs.ReadFile("/out/scan_All.asc")
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n0.001000 0.001000 0.001000 1 1\n")
	assert.NotContains(t, string(data), "0.002000")
}

func TestWriterSameInputRewrites(t *testing.T) {
	t.Parallel()

	fs := fsutil.NewMemoryFileSystem()
	w := newTestWriter(fs, config.FormatLAS)
	label := chunk.Label{Path: "/in/scan.lvx", Kind: chunk.KindAll}
	require.NoError(t, w.WritePoints(label, testPoints))
	require.NoError(t, w.WritePoints(label, testPoints[:1]))
	assert.Equal(t, []string{"/in/scan_All.las"}, w.Written())
}
