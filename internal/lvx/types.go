package lvx

// Record sizes in bytes.
const (
	PublicHeaderSize  = 24 // signature(16) + version(4) + magic code(4)
	PrivateHeaderSize = 5  // frame duration(4) + device count(1)
	DeviceInfoSize    = 59 // lidar SN(16) + hub SN(16) + index/type/extrinsic(3) + 6 × float32
	FrameHeaderSize   = 24 // current offset + next offset + frame index
	PackageHeaderSize = 19 // 5 × u8 + status u32 + 2 × u8 + timestamp u64
	PointEntrySize    = 14 // x, y, z int32 + reflectivity + tag
	ImuPayloadSize    = 24 // 6 × float32

	// UnknownPayloadSize is skipped for data types the decoder does not
	// know. It equals the IMU payload size; nothing in the format
	// guarantees it for other tags.
	UnknownPayloadSize = 24

	// HeaderSize is the fixed part of the file header before the device table.
	HeaderSize = PublicHeaderSize + PrivateHeaderSize
)

// FileHeader is the decoded file header and device table.
type FileHeader struct {
	Signature       string // NUL-trimmed, normally "livox_tech"
	Version         [4]uint8
	MagicCode       uint32
	FrameDurationMs uint32
	DeviceCount     uint8
	Devices         []DeviceInfo
}

// DataOffset returns the offset of the first frame.
func (h FileHeader) DataOffset() int {
	return HeaderSize + int(h.DeviceCount)*DeviceInfoSize
}

// DeviceInfo is one entry of the device table.
type DeviceInfo struct {
	LidarSN          string
	HubSN            string
	Index            uint8
	Type             uint8
	ExtrinsicEnabled bool
	Roll, Pitch, Yaw float32 // degrees
	X, Y, Z          float32 // metres
}

// FrameHeader is the 24-byte prefix of every frame.
type FrameHeader struct {
	CurrentOffset uint64 // as recorded; not used for navigation
	NextOffset    uint64 // end of this frame, exclusive
	Index         uint64
}

// PackageHeader is the 19-byte header of every package.
type PackageHeader struct {
	DeviceIndex   uint8
	Version       uint8
	SlotID        uint8
	LidarID       uint8
	Reserved      uint8
	StatusCode    uint32
	TimestampType uint8
	DataType      DataType
	Timestamp     uint64 // nanoseconds
}

// PointSample is one decoded return in sensor coordinates.
type PointSample struct {
	X, Y, Z      int32 // millimetres
	Intensity    uint8 // reflectivity
	ReturnNumber uint8 // 1, 2 or 3
}

// isSentinel reports whether the raw entry is the no-return marker.
func isSentinel(x, y, z int32, reflectivity uint8) bool {
	return x == 0 && y == 0 && z == 0 && reflectivity == 0
}

// ImuSample is one decoded inertial measurement.
type ImuSample struct {
	Timestamp           uint64 // package timestamp, nanoseconds
	GyroX, GyroY, GyroZ float32
	AccX, AccY, AccZ    float32
}

// UnknownPackage records a package whose data type was not decoded.
type UnknownPackage struct {
	Offset   int
	DataType DataType
}

// Frame is the decoded content of one frame.
type Frame struct {
	Header   FrameHeader
	Offset   int // absolute offset of the frame prefix
	End      int // absolute offset after the last package
	Packages int
	Points   []PointSample
	Imu      []ImuSample
	Unknown  []UnknownPackage
}
