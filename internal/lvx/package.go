package lvx

import (
	"encoding/binary"
	"fmt"
)

// DataType is the payload selector carried in every package header.
type DataType uint8

// Data types decoded by this package. Other values are skipped.
const (
	DataTypeCartesianSingle DataType = 2
	DataTypeCartesianDual   DataType = 4
	DataTypeImu             DataType = 6
	DataTypeCartesianTriple DataType = 7
)

func (d DataType) String() string {
	switch d {
	case DataTypeCartesianSingle:
		return "cartesian-single"
	case DataTypeCartesianDual:
		return "cartesian-dual"
	case DataTypeImu:
		return "imu"
	case DataTypeCartesianTriple:
		return "cartesian-triple"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(d))
	}
}

// PayloadKind classifies a payload layout.
type PayloadKind int

const (
	PayloadUnknown PayloadKind = iota
	PayloadPoints
	PayloadImu
)

// Shape describes the fixed payload layout of a data type.
type Shape struct {
	Kind    PayloadKind
	Entries int // beams per package, points only
	Returns int // returns per beam, points only
}

// Size returns the payload size in bytes.
func (s Shape) Size() int {
	switch s.Kind {
	case PayloadPoints:
		return s.Entries * s.Returns * PointEntrySize
	case PayloadImu:
		return ImuPayloadSize
	default:
		return UnknownPayloadSize
	}
}

// MaxPoints returns the most points one payload of this shape can yield.
func (s Shape) MaxPoints() int {
	if s.Kind != PayloadPoints {
		return 0
	}
	return s.Entries * s.Returns
}

// Shape returns the payload layout for d. Every value maps to exactly one
// shape; tags outside the decoded set map to PayloadUnknown.
func (d DataType) Shape() Shape {
	switch d {
	case DataTypeCartesianSingle:
		return Shape{Kind: PayloadPoints, Entries: 96, Returns: 1}
	case DataTypeCartesianDual:
		return Shape{Kind: PayloadPoints, Entries: 48, Returns: 2}
	case DataTypeCartesianTriple:
		return Shape{Kind: PayloadPoints, Entries: 30, Returns: 3}
	case DataTypeImu:
		return Shape{Kind: PayloadImu}
	default:
		return Shape{Kind: PayloadUnknown}
	}
}

// Package is one decoded package.
type Package struct {
	Header PackageHeader
	Offset int // absolute offset of the package header
	Points []PointSample
	Imu    *ImuSample
}

// Known reports whether the package data type was decoded.
func (p Package) Known() bool {
	return p.Header.DataType.Shape().Kind != PayloadUnknown
}

// DecodePackage decodes the package at offset in buf and returns it with
// the offset of the next package.
func DecodePackage(buf []byte, offset int) (Package, int, error) {
	c, err := NewCursor(buf).Seek(offset, "package")
	if err != nil {
		return Package{}, offset, err
	}
	p, next, err := decodePackage(c)
	if err != nil {
		return p, offset, err
	}
	return p, next.Offset(), nil
}

// decodePackage decodes one package at c. The whole payload is consumed
// even when no samples survive filtering, so the returned cursor is always
// aligned on the next package.
func decodePackage(c Cursor) (Package, Cursor, error) {
	p := Package{Offset: c.Offset()}

	hb, c, err := c.Next(PackageHeaderSize, "package header")
	if err != nil {
		return p, c, err
	}
	p.Header = PackageHeader{
		DeviceIndex:   hb[0],
		Version:       hb[1],
		SlotID:        hb[2],
		LidarID:       hb[3],
		Reserved:      hb[4],
		StatusCode:    binary.LittleEndian.Uint32(hb[5:9]),
		TimestampType: hb[9],
		DataType:      DataType(hb[10]),
		Timestamp:     binary.LittleEndian.Uint64(hb[11:19]),
	}

	shape := p.Header.DataType.Shape()
	payload, next, err := c.Next(shape.Size(), p.Header.DataType.String()+" payload")
	if err != nil {
		return p, c, err
	}

	switch shape.Kind {
	case PayloadPoints:
		p.Points = decodePoints(payload, shape)
	case PayloadImu:
		p.Imu = decodeImu(payload, p.Header.Timestamp)
	case PayloadUnknown:
		// skipped
	}
	return p, next, nil
}

// decodePoints walks payload beam by beam. Return numbers are positional
// within a beam, so a dropped sentinel never renumbers its neighbours.
func decodePoints(payload []byte, shape Shape) []PointSample {
	points := make([]PointSample, 0, shape.MaxPoints())
	for off := 0; off < len(payload); off += PointEntrySize {
		e := payload[off : off+PointEntrySize]
		x, y, z := leInt32(e[0:4]), leInt32(e[4:8]), leInt32(e[8:12])
		refl := e[12]
		// e[13] is the tag byte.
		if isSentinel(x, y, z, refl) {
			continue
		}
		ret := uint8((off/PointEntrySize)%shape.Returns) + 1
		points = append(points, PointSample{X: x, Y: y, Z: z, Intensity: refl, ReturnNumber: ret})
	}
	return points
}

func decodeImu(payload []byte, ts uint64) *ImuSample {
	return &ImuSample{
		Timestamp: ts,
		GyroX:     leFloat32(payload[0:4]),
		GyroY:     leFloat32(payload[4:8]),
		GyroZ:     leFloat32(payload[8:12]),
		AccX:      leFloat32(payload[12:16]),
		AccY:      leFloat32(payload[16:20]),
		AccZ:      leFloat32(payload[20:24]),
	}
}
