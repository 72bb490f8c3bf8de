package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/lvx-convert/internal/lvx"
)

// LAS 1.2 layout constants.
const (
	LASHeaderSize       = 227
	LASPointFormat      = 3
	LASPointRecordSize  = 34
	LASScale            = 0.001
	lasSystemIdentifier = "LVX CONVERSION"
)

// LASHeader is the LAS 1.2 public header block. Field order and sizes
// match the file layout, so the struct is written with binary.Write.
type LASHeader struct {
	FileSignature          [4]byte
	FileSourceID           uint16
	GlobalEncoding         uint16
	ProjectID              [16]byte
	VersionMajor           uint8
	VersionMinor           uint8
	SystemIdentifier       [32]byte
	GeneratingSoftware     [32]byte
	CreationDay            uint16
	CreationYear           uint16
	HeaderSize             uint16
	OffsetToPointData      uint32
	NumberOfVLRs           uint32
	PointDataFormat        uint8
	PointDataRecordLength  uint16
	NumberOfPointRecords   uint32
	NumberOfPointsByReturn [5]uint32
	XScale                 float64
	YScale                 float64
	ZScale                 float64
	XOffset                float64
	YOffset                float64
	ZOffset                float64
	MaxX                   float64
	MinX                   float64
	MaxY                   float64
	MinY                   float64
	MaxZ                   float64
	MinZ                   float64
}

func fixed32(s string) [32]byte {
	var b [32]byte
	copy(b[:], s)
	return b
}

// lasGUID lays out id the way LAS stores its project GUID: data 1 as a
// little-endian uint32, data 2 and 3 as little-endian uint16, data 4 as
// bytes. uuid.UUID holds the same fields big-endian.
func lasGUID(id uuid.UUID) [16]byte {
	g := [16]byte(id)
	slices.Reverse(g[0:4])
	slices.Reverse(g[4:6])
	slices.Reverse(g[6:8])
	return g
}

// Project returns the project GUID stored in h.
func (h LASHeader) Project() uuid.UUID {
	return uuid.UUID(lasGUID(uuid.UUID(h.ProjectID)))
}

// NewLASHeader builds the header for points: counts, per-return counts and
// bounds in metres. Coordinates are stored as millimetre integers with a
// 0.001 scale and zero offset.
func NewLASHeader(points []lvx.PointSample, created time.Time, software string, project uuid.UUID) LASHeader {
	h := LASHeader{
		FileSignature:         [4]byte{'L', 'A', 'S', 'F'},
		ProjectID:             lasGUID(project),
		VersionMajor:          1,
		VersionMinor:          2,
		SystemIdentifier:      fixed32(lasSystemIdentifier),
		GeneratingSoftware:    fixed32(software),
		CreationDay:           uint16(created.YearDay()),
		CreationYear:          uint16(created.Year()),
		HeaderSize:            LASHeaderSize,
		OffsetToPointData:     LASHeaderSize,
		PointDataFormat:       LASPointFormat,
		PointDataRecordLength: LASPointRecordSize,
		NumberOfPointRecords:  uint32(len(points)),
		XScale:                LASScale,
		YScale:                LASScale,
		ZScale:                LASScale,
	}
	if len(points) == 0 {
		return h
	}

	minX, minY, minZ := int32(math.MaxInt32), int32(math.MaxInt32), int32(math.MaxInt32)
	maxX, maxY, maxZ := int32(math.MinInt32), int32(math.MinInt32), int32(math.MinInt32)
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
		minZ, maxZ = min(minZ, p.Z), max(maxZ, p.Z)
		if p.ReturnNumber >= 1 && p.ReturnNumber <= 5 {
			h.NumberOfPointsByReturn[p.ReturnNumber-1]++
		}
	}
	h.MinX, h.MaxX = float64(minX)*LASScale, float64(maxX)*LASScale
	h.MinY, h.MaxY = float64(minY)*LASScale, float64(maxY)*LASScale
	h.MinZ, h.MaxZ = float64(minZ)*LASScale, float64(maxZ)*LASScale
	return h
}

// encodeLASPoint packs p as a point format 3 record. Only the fields the
// capture carries are filled; classification, GPS time and colour are 0.
func encodeLASPoint(b *[LASPointRecordSize]byte, p lvx.PointSample) {
	*b = [LASPointRecordSize]byte{}
	binary.LittleEndian.PutUint32(b[0:4], uint32(p.X))
	binary.LittleEndian.PutUint32(b[4:8], uint32(p.Y))
	binary.LittleEndian.PutUint32(b[8:12], uint32(p.Z))
	binary.LittleEndian.PutUint16(b[12:14], uint16(p.Intensity))
	b[14] = p.ReturnNumber & 0x07
}

// WriteLAS writes a complete LAS file holding points.
func WriteLAS(w io.Writer, points []lvx.PointSample, h LASHeader) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("write las header: %w", err)
	}
	var rec [LASPointRecordSize]byte
	for _, p := range points {
		encodeLASPoint(&rec, p)
		if _, err := bw.Write(rec[:]); err != nil {
			return fmt.Errorf("write las point: %w", err)
		}
	}
	return bw.Flush()
}

// ReadLASHeader decodes the public header block at the start of r.
func ReadLASHeader(r io.Reader) (LASHeader, error) {
	var h LASHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("read las header: %w", err)
	}
	if string(h.FileSignature[:]) != "LASF" {
		return h, fmt.Errorf("read las header: bad signature %q", h.FileSignature[:])
	}
	return h, nil
}
