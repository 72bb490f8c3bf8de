package lvx

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lvx-convert/internal/testutil"
)

func TestParseHeader(t *testing.T) {
	t.Parallel()

	buf := testutil.NewCaptureBuilder(50, 2).Build()
	h, next, err := ParseHeader(buf)
	require.NoError(t, err)

	assert.Equal(t, "livox_tech", h.Signature)
	assert.Equal(t, [4]uint8{1, 1, 0, 0}, h.Version)
	assert.Equal(t, uint32(0xAC0EA767), h.MagicCode)
	assert.Equal(t, uint32(50), h.FrameDurationMs)
	assert.Equal(t, uint8(2), h.DeviceCount)
	assert.Equal(t, 24+4+1+2*59, next)
	assert.Equal(t, next, h.DataOffset())

	require.Len(t, h.Devices, 2)
	assert.Equal(t, "LIDAR0", h.Devices[0].LidarSN)
	assert.Equal(t, "HUB1", h.Devices[1].HubSN)
	assert.Equal(t, uint8(1), h.Devices[1].Index)
	assert.Equal(t, uint8(3), h.Devices[1].Type)
}

func TestParseHeaderNoDevices(t *testing.T) {
	t.Parallel()

	buf := testutil.NewCaptureBuilder(100, 0).Build()
	h, next, err := ParseHeader(buf)
	require.NoError(t, err)
	assert.Empty(t, h.Devices)
	assert.Equal(t, HeaderSize, next)
}

func TestParseHeaderFormatErrors(t *testing.T) {
	t.Parallel()

	full := testutil.NewCaptureBuilder(50, 3).Build()

	tests := []struct {
		name string
		buf  []byte
		need int
	}{
		{"empty", nil, HeaderSize},
		{"public header only", full[:PublicHeaderSize], HeaderSize},
		{"device table truncated", full[:HeaderSize+2*DeviceInfoSize+10], HeaderSize + 3*DeviceInfoSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := ParseHeader(tt.buf)
			require.ErrorIs(t, err, ErrFormat)

			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.need, fe.Need)
			assert.Equal(t, len(tt.buf), fe.Have)
		})
	}
}

func TestParseHeaderExtrinsics(t *testing.T) {
	t.Parallel()

	buf := testutil.NewCaptureBuilder(50, 1).Build()
	rec := buf[HeaderSize : HeaderSize+DeviceInfoSize]
	rec[34] = 1
	for i, v := range []float32{0.5, -1.25, 3, 10, -20, 0.125} {
		binary.LittleEndian.PutUint32(rec[35+4*i:], math.Float32bits(v))
	}

	h, next, err := ParseHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), next)
	d := h.Devices[0]
	assert.True(t, d.ExtrinsicEnabled)
	assert.Equal(t, []float32{0.5, -1.25, 3, 10, -20, 0.125}, []float32{d.Roll, d.Pitch, d.Yaw, d.X, d.Y, d.Z})
}

func TestFrameScannerTruncatedDeviceTable(t *testing.T) {
	t.Parallel()

	full := testutil.NewCaptureBuilder(50, 2).Build()
	s := NewFrameScanner(full[:HeaderSize+DeviceInfoSize])
	assert.False(t, s.Next())

	var fe *FormatError
	require.ErrorAs(t, s.Err(), &fe)
	assert.Equal(t, HeaderSize+2*DeviceInfoSize, fe.Need)
	assert.Zero(t, s.Frames())
}
