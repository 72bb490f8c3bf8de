package lvx

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat matches any *FormatError.
	ErrFormat = errors.New("lvx: malformed file header")
	// ErrBounds matches any *BoundsError.
	ErrBounds = errors.New("lvx: read out of bounds")
	// ErrUnknownDataType is reported when a package carries a data type
	// outside the decoded set. The decoder skips UnknownPayloadSize bytes for
	// such packages; callers decide whether that is acceptable.
	ErrUnknownDataType = errors.New("lvx: unknown package data type")
)

// FormatError reports a header or device table shorter than it declares.
type FormatError struct {
	Need int // bytes required by the declared header
	Have int // bytes available
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("lvx: header needs %d bytes, file has %d", e.Need, e.Have)
}

// Is lets errors.Is(err, ErrFormat) match.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// BoundsError reports a read that would cross the end of its frame or buffer.
type BoundsError struct {
	What   string // record being read, e.g. "package header"
	Offset int    // absolute offset of the attempted read
	Need   int    // bytes requested
	Limit  int    // absolute offset the read may not cross
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("lvx: %s at offset %d needs %d bytes but limit is %d", e.What, e.Offset, e.Need, e.Limit)
}

// Is lets errors.Is(err, ErrBounds) match.
func (e *BoundsError) Is(target error) bool { return target == ErrBounds }
