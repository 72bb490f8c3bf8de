package testutil

import (
	"encoding/binary"
	"math"
)

// Layout constants mirrored from the capture format. They are duplicated
// here so the builder stays importable from the decoder's own tests.
const (
	headerSize        = 29
	deviceInfoSize    = 59
	frameHeaderSize   = 24
	packageHeaderSize = 19
	pointEntrySize    = 14
	imuPayloadSize    = 24

	DataTypeSingle = 2
	DataTypeDual   = 4
	DataTypeImu    = 6
	DataTypeTriple = 7
)

// Entry is one raw 14-byte point entry.
type Entry struct {
	X, Y, Z      int32
	Reflectivity uint8
	Tag          uint8
}

// Sentinel is the all-zero no-return entry.
var Sentinel = Entry{}

// EntriesPerPackage returns the number of raw entries a point payload of
// dataType holds, or 0 for non-point types.
func EntriesPerPackage(dataType uint8) int {
	switch dataType {
	case DataTypeSingle:
		return 96
	case DataTypeDual:
		return 96 // 48 beams × 2 returns
	case DataTypeTriple:
		return 90 // 30 beams × 3 returns
	default:
		return 0
	}
}

// CaptureBuilder assembles an LVX capture buffer.
type CaptureBuilder struct {
	buf        []byte
	frameStart int
	frameIndex uint64
	inFrame    bool
	timestamp  uint64
}

// NewCaptureBuilder writes a file header with the given frame duration and
// device count. Device records are filled with recognisable serial numbers.
func NewCaptureBuilder(frameDurationMs uint32, devices int) *CaptureBuilder {
	b := &CaptureBuilder{}
	sig := make([]byte, 16)
	copy(sig, "livox_tech")
	b.buf = append(b.buf, sig...)
	b.buf = append(b.buf, 1, 1, 0, 0)
	b.buf = binary.LittleEndian.AppendUint32(b.buf, 0xAC0EA767)
	b.buf = binary.LittleEndian.AppendUint32(b.buf, frameDurationMs)
	b.buf = append(b.buf, uint8(devices))
	for i := 0; i < devices; i++ {
		rec := make([]byte, deviceInfoSize)
		copy(rec[0:16], "LIDAR"+string(rune('0'+i)))
		copy(rec[16:32], "HUB"+string(rune('0'+i)))
		rec[32] = uint8(i)
		rec[33] = 3
		b.buf = append(b.buf, rec...)
	}
	return b
}

// Len returns the current buffer length.
func (b *CaptureBuilder) Len() int { return len(b.buf) }

// BeginFrame writes a placeholder frame prefix. EndFrame fills it in.
func (b *CaptureBuilder) BeginFrame() *CaptureBuilder {
	b.frameStart = len(b.buf)
	b.buf = append(b.buf, make([]byte, frameHeaderSize)...)
	b.inFrame = true
	return b
}

// EndFrame patches the prefix of the open frame with its offsets.
func (b *CaptureBuilder) EndFrame() *CaptureBuilder {
	hdr := b.buf[b.frameStart : b.frameStart+frameHeaderSize]
	binary.LittleEndian.PutUint64(hdr[0:8], uint64(b.frameStart))
	binary.LittleEndian.PutUint64(hdr[8:16], uint64(len(b.buf)))
	binary.LittleEndian.PutUint64(hdr[16:24], b.frameIndex)
	b.frameIndex++
	b.inFrame = false
	return b
}

// PatchNextOffset overwrites the next-offset field of the most recently
// ended frame, for building malformed input.
func (b *CaptureBuilder) PatchNextOffset(next uint64) *CaptureBuilder {
	binary.LittleEndian.PutUint64(b.buf[b.frameStart+8:b.frameStart+16], next)
	return b
}

func (b *CaptureBuilder) packageHeader(dataType uint8, ts uint64) {
	b.buf = append(b.buf, 0, 5, 1, 1, 0)
	b.buf = binary.LittleEndian.AppendUint32(b.buf, 0)
	b.buf = append(b.buf, 0, dataType)
	b.buf = binary.LittleEndian.AppendUint64(b.buf, ts)
}

// Points appends a point package. Entries are padded with sentinels up to
// the full payload of dataType; extra entries are dropped.
func (b *CaptureBuilder) Points(dataType uint8, entries ...Entry) *CaptureBuilder {
	b.timestamp += 1000
	b.packageHeader(dataType, b.timestamp)
	n := EntriesPerPackage(dataType)
	for i := 0; i < n; i++ {
		e := Sentinel
		if i < len(entries) {
			e = entries[i]
		}
		b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(e.X))
		b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(e.Y))
		b.buf = binary.LittleEndian.AppendUint32(b.buf, uint32(e.Z))
		b.buf = append(b.buf, e.Reflectivity, e.Tag)
	}
	return b
}

// Imu appends an IMU package with the given timestamp and values in the
// order gyro x/y/z, acc x/y/z.
func (b *CaptureBuilder) Imu(ts uint64, v [6]float32) *CaptureBuilder {
	b.packageHeader(DataTypeImu, ts)
	for _, f := range v {
		b.buf = binary.LittleEndian.AppendUint32(b.buf, math.Float32bits(f))
	}
	return b
}

// Raw appends a package with an arbitrary data type and payload.
func (b *CaptureBuilder) Raw(dataType uint8, payload []byte) *CaptureBuilder {
	b.timestamp += 1000
	b.packageHeader(dataType, b.timestamp)
	b.buf = append(b.buf, payload...)
	return b
}

// Bytes appends arbitrary trailing bytes.
func (b *CaptureBuilder) Bytes(p ...byte) *CaptureBuilder {
	b.buf = append(b.buf, p...)
	return b
}

// Build returns a copy of the buffer. An open frame is closed first.
func (b *CaptureBuilder) Build() []byte {
	if b.inFrame {
		b.EndFrame()
	}
	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}

// SimpleCapture builds frames frames, each holding one single-return
// package with pointsPerFrame valid points and one IMU package.
func SimpleCapture(frames, pointsPerFrame int) []byte {
	b := NewCaptureBuilder(50, 1)
	for f := 0; f < frames; f++ {
		entries := make([]Entry, pointsPerFrame)
		for i := range entries {
			entries[i] = Entry{X: int32(1000 + f), Y: int32(i), Z: -500, Reflectivity: uint8(10 + i%200)}
		}
		b.BeginFrame().
			Points(DataTypeSingle, entries...).
			Imu(uint64(f)*1_000_000, [6]float32{0.1, 0.2, 0.3, 0, 0, 9.8}).
			EndFrame()
	}
	return b.Build()
}
