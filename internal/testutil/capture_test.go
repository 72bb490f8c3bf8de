package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureBuilderHeader(t *testing.T) {
	t.Parallel()

	buf := NewCaptureBuilder(50, 2).Build()
	require.Len(t, buf, headerSize+2*deviceInfoSize)
	assert.Equal(t, "livox_tech", string(buf[0:10]))
	assert.Equal(t, uint32(50), binary.LittleEndian.Uint32(buf[24:28]))
	assert.Equal(t, uint8(2), buf[28])
}

func TestCaptureBuilderFrameOffsets(t *testing.T) {
	t.Parallel()

	b := NewCaptureBuilder(50, 1)
	start := b.Len()
	buf := b.BeginFrame().Points(DataTypeSingle, Entry{X: 1}).EndFrame().Build()

	want := start + frameHeaderSize + packageHeaderSize + 96*pointEntrySize
	require.Len(t, buf, want)
	assert.Equal(t, uint64(start), binary.LittleEndian.Uint64(buf[start:]))
	assert.Equal(t, uint64(want), binary.LittleEndian.Uint64(buf[start+8:]))
	assert.Equal(t, uint64(0), binary.LittleEndian.Uint64(buf[start+16:]))
}

func TestEntriesPerPackage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 96, EntriesPerPackage(DataTypeSingle))
	assert.Equal(t, 96, EntriesPerPackage(DataTypeDual))
	assert.Equal(t, 90, EntriesPerPackage(DataTypeTriple))
	assert.Equal(t, 0, EntriesPerPackage(DataTypeImu))
}

func TestSimpleCaptureFrameCount(t *testing.T) {
	t.Parallel()

	buf := SimpleCapture(3, 4)
	frame := frameHeaderSize + packageHeaderSize + 96*pointEntrySize + packageHeaderSize + imuPayloadSize
	assert.Len(t, buf, headerSize+deviceInfoSize+3*frame)
}

func TestAssertNoErrorNil(t *testing.T) {
	t.Parallel()

	AssertNoError(t, nil)
	AssertError(t, assert.AnError)
}
