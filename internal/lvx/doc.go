// Package lvx decodes Livox LVX capture files.
//
// A capture file is laid out as:
//
//	public header (24 bytes) | private header (5 bytes) | device table (N × 59 bytes)
//	frame 0 | frame 1 | ...
//
// Each frame starts with a 24-byte prefix (current offset, next offset, frame
// index) followed by packages up to the declared next offset. Each package is
// a 19-byte header plus a payload whose layout is selected by the data type
// tag. All values are little-endian.
//
// The decoder works over a fully loaded byte buffer and only ever moves
// forward. Point coordinates are kept in integer millimetres as recorded;
// unit conversion belongs to the output sinks.
package lvx
