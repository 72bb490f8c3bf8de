package lvx

import (
	"encoding/binary"
	"math"
)

// Cursor is a forward-only, bounds-checked view over a capture buffer.
//
// A Cursor is a small value; every read returns the advanced cursor and
// leaves the receiver untouched. Reads never cross limit, which is either
// the end of the buffer or a narrower bound set with Until.
type Cursor struct {
	buf   []byte
	off   int
	limit int
}

// NewCursor returns a cursor positioned at the start of buf.
func NewCursor(buf []byte) Cursor {
	return Cursor{buf: buf, limit: len(buf)}
}

// Offset returns the absolute position of the cursor in the buffer.
func (c Cursor) Offset() int { return c.off }

// Limit returns the absolute offset reads may not cross.
func (c Cursor) Limit() int { return c.limit }

// Remaining returns the number of bytes left before the limit.
func (c Cursor) Remaining() int { return c.limit - c.off }

// Len returns the length of the underlying buffer.
func (c Cursor) Len() int { return len(c.buf) }

// Seek moves the cursor forward to an absolute offset. Moving backwards or
// past the limit is a BoundsError.
func (c Cursor) Seek(off int, what string) (Cursor, error) {
	if off < c.off || off > c.limit {
		return c, &BoundsError{What: what, Offset: c.off, Need: off - c.off, Limit: c.limit}
	}
	c.off = off
	return c, nil
}

// Until returns a cursor whose reads may not cross end. end must lie between
// the current offset and the current limit.
func (c Cursor) Until(end int, what string) (Cursor, error) {
	if end < c.off || end > c.limit {
		return c, &BoundsError{What: what, Offset: c.off, Need: end - c.off, Limit: c.limit}
	}
	c.limit = end
	return c, nil
}

// Widen drops any narrower limit set by Until.
func (c Cursor) Widen() Cursor {
	c.limit = len(c.buf)
	return c
}

// Next returns the next n bytes and the cursor positioned after them. The
// returned slice aliases the buffer.
func (c Cursor) Next(n int, what string) ([]byte, Cursor, error) {
	if n < 0 || n > c.limit-c.off {
		return nil, c, &BoundsError{What: what, Offset: c.off, Need: n, Limit: c.limit}
	}
	b := c.buf[c.off : c.off+n : c.off+n]
	c.off += n
	return b, c, nil
}

// Skip advances n bytes without reading them.
func (c Cursor) Skip(n int, what string) (Cursor, error) {
	_, next, err := c.Next(n, what)
	return next, err
}

// Uint8 reads one byte.
func (c Cursor) Uint8(what string) (uint8, Cursor, error) {
	b, next, err := c.Next(1, what)
	if err != nil {
		return 0, c, err
	}
	return b[0], next, nil
}

// Uint32 reads a little-endian uint32.
func (c Cursor) Uint32(what string) (uint32, Cursor, error) {
	b, next, err := c.Next(4, what)
	if err != nil {
		return 0, c, err
	}
	return binary.LittleEndian.Uint32(b), next, nil
}

// Uint64 reads a little-endian uint64.
func (c Cursor) Uint64(what string) (uint64, Cursor, error) {
	b, next, err := c.Next(8, what)
	if err != nil {
		return 0, c, err
	}
	return binary.LittleEndian.Uint64(b), next, nil
}

// le helpers decode from a slice already bounds-checked by Next.

func leInt32(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) }

func leFloat32(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }
