package lvx

import (
	"bytes"
	"encoding/binary"
)

// ParseHeader decodes the file header and device table and returns the
// offset of the first frame.
func ParseHeader(buf []byte) (FileHeader, int, error) {
	h, c, err := parseHeader(NewCursor(buf))
	if err != nil {
		return h, 0, err
	}
	return h, c.Offset(), nil
}

// parseHeader reads the header through c. A short buffer is reported as a
// FormatError sized to the whole declared header.
func parseHeader(c Cursor) (FileHeader, Cursor, error) {
	var h FileHeader
	if c.Remaining() < HeaderSize {
		return h, c, &FormatError{Need: HeaderSize, Have: c.Len()}
	}

	b, c, err := c.Next(HeaderSize, "file header")
	if err != nil {
		return h, c, err
	}
	h.Signature = string(bytes.TrimRight(b[0:16], "\x00"))
	copy(h.Version[:], b[16:20])
	h.MagicCode = binary.LittleEndian.Uint32(b[20:24])
	h.FrameDurationMs = binary.LittleEndian.Uint32(b[24:28])
	h.DeviceCount = b[28]

	if c.Remaining() < int(h.DeviceCount)*DeviceInfoSize {
		return h, c, &FormatError{Need: h.DataOffset(), Have: c.Len()}
	}
	h.Devices = make([]DeviceInfo, h.DeviceCount)
	for i := range h.Devices {
		var rec []byte
		rec, c, err = c.Next(DeviceInfoSize, "device info")
		if err != nil {
			return h, c, err
		}
		h.Devices[i] = parseDeviceInfo(rec)
	}
	return h, c, nil
}

func parseDeviceInfo(b []byte) DeviceInfo {
	return DeviceInfo{
		LidarSN:          string(bytes.TrimRight(b[0:16], "\x00")),
		HubSN:            string(bytes.TrimRight(b[16:32], "\x00")),
		Index:            b[32],
		Type:             b[33],
		ExtrinsicEnabled: b[34] != 0,
		Roll:             leFloat32(b[35:39]),
		Pitch:            leFloat32(b[39:43]),
		Yaw:              leFloat32(b[43:47]),
		X:                leFloat32(b[47:51]),
		Y:                leFloat32(b[51:55]),
		Z:                leFloat32(b[55:59]),
	}
}
