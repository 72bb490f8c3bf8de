package lvx

// ParseFrame decodes the frame whose prefix starts at offset and returns it
// with the offset of the following frame.
func ParseFrame(buf []byte, offset int) (Frame, int, error) {
	c, err := NewCursor(buf).Seek(offset, "frame")
	if err != nil {
		return Frame{}, offset, err
	}
	f, next, err := parseFrame(c)
	if err != nil {
		return f, offset, err
	}
	return f, next.Offset(), nil
}

func parseFrame(c Cursor) (Frame, Cursor, error) {
	f := Frame{Offset: c.Offset()}

	var err error
	start := c
	if f.Header.CurrentOffset, c, err = c.Uint64("frame current offset"); err != nil {
		return f, start, err
	}
	if f.Header.NextOffset, c, err = c.Uint64("frame next offset"); err != nil {
		return f, start, err
	}
	if f.Header.Index, c, err = c.Uint64("frame index"); err != nil {
		return f, start, err
	}

	end := f.Header.NextOffset
	if end > uint64(c.Limit()) || end < uint64(c.Offset()) {
		return f, start, &BoundsError{
			What:   "frame body",
			Offset: c.Offset(),
			Need:   int(int64(end) - int64(c.Offset())),
			Limit:  c.Limit(),
		}
	}

	body, err := c.Until(int(end), "frame body")
	if err != nil {
		return f, start, err
	}
	for body.Offset() < int(end) {
		var p Package
		p, body, err = decodePackage(body)
		if err != nil {
			return f, start, err
		}
		f.Packages++
		switch {
		case p.Imu != nil:
			f.Imu = append(f.Imu, *p.Imu)
		case !p.Known():
			f.Unknown = append(f.Unknown, UnknownPackage{Offset: p.Offset, DataType: p.Header.DataType})
		default:
			f.Points = append(f.Points, p.Points...)
		}
	}
	f.End = body.Offset()
	return f, body.Widen(), nil
}

// FrameScanner walks the frames of a capture buffer in order.
//
//	s := NewFrameScanner(buf)
//	for s.Next() {
//		f := s.Frame()
//		...
//	}
//	if err := s.Err(); err != nil { ... }
type FrameScanner struct {
	header FileHeader
	cur    Cursor
	frame  Frame
	frames int
	err    error
	done   bool
}

// NewFrameScanner parses the file header of buf and positions the scanner
// on the first frame. A header error is reported by Err after the first
// call to Next.
func NewFrameScanner(buf []byte) *FrameScanner {
	s := &FrameScanner{}
	s.header, s.cur, s.err = parseHeader(NewCursor(buf))
	s.done = s.err != nil
	return s
}

// Header returns the decoded file header.
func (s *FrameScanner) Header() FileHeader { return s.header }

// Next decodes the next frame. It returns false at the end of data or on
// error; fewer than FrameHeaderSize trailing bytes is a normal end.
func (s *FrameScanner) Next() bool {
	if s.done {
		return false
	}
	if s.cur.Remaining() < FrameHeaderSize {
		s.done = true
		return false
	}
	f, next, err := parseFrame(s.cur)
	if err != nil {
		s.err = err
		s.done = true
		return false
	}
	s.frame = f
	s.cur = next
	s.frames++
	return true
}

// Frame returns the frame decoded by the last call to Next.
func (s *FrameScanner) Frame() Frame { return s.frame }

// Offset returns the offset of the next unread frame, or of the failing
// frame after an error.
func (s *FrameScanner) Offset() int { return s.cur.Offset() }

// Frames returns the number of frames decoded so far.
func (s *FrameScanner) Frames() int { return s.frames }

// Trailing returns the number of undecoded bytes after the last frame.
func (s *FrameScanner) Trailing() int {
	if s.err != nil {
		return 0
	}
	return s.cur.Remaining()
}

// Err returns the first error met, if any.
func (s *FrameScanner) Err() error { return s.err }

// Capture is a fully decoded capture buffer.
type Capture struct {
	Header FileHeader
	Frames []Frame
}

// Points returns every point of every frame in frame order.
func (c *Capture) Points() []PointSample {
	n := 0
	for _, f := range c.Frames {
		n += len(f.Points)
	}
	out := make([]PointSample, 0, n)
	for _, f := range c.Frames {
		out = append(out, f.Points...)
	}
	return out
}

// Imu returns every IMU sample of every frame in frame order.
func (c *Capture) Imu() []ImuSample {
	var out []ImuSample
	for _, f := range c.Frames {
		out = append(out, f.Imu...)
	}
	return out
}

// Decode decodes the whole buffer in memory.
func Decode(buf []byte) (*Capture, error) {
	s := NewFrameScanner(buf)
	c := &Capture{}
	for s.Next() {
		c.Frames = append(c.Frames, s.Frame())
	}
	c.Header = s.Header()
	if err := s.Err(); err != nil {
		return c, err
	}
	return c, nil
}
