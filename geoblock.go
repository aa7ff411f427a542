package geoblock

import "github.com/pkg/errors"

// Error kinds. Detail such as offsets and lengths is attached by wrapping,
// use errors.Cause or errors.Is to match.
var (
	ErrCapacity    = errors.New("geoblock: data size limit exceeded")
	ErrInvalidData = errors.New("geoblock: invalid data")
	ErrOutOfRange  = errors.New("geoblock: location out of range")
	ErrBusy        = errors.New("geoblock: data store is already in use")
)

const (
	headerSize       = 6                    // u32 block length + u16 bitfield length
	maxBitfieldBytes = 1<<16 - 1            // bitfield length is stored as u16
	maxRows          = maxBitfieldBytes * 8 // rows addressable by a bitfield
)

// Bounds is a spatial summary of a set of points. Its concrete type is
// defined by the PointType.
type Bounds interface{}

// Range is the serialisable projection of a Bounds which is stored in the
// range index.
type Range interface {
	// AppendBinary appends the encoded range to dst.
	AppendBinary(dst []byte) []byte
}

// Point is a spatial coordinate.
type Point interface {
	// Overlaps reports whether the point lies within bounds.
	Overlaps(bounds Bounds) bool
	// AppendBinary appends the encoded point to dst.
	AppendBinary(dst []byte) []byte
}

// PointType describes a point geometry.
type PointType interface {
	// Bounds computes the bounding box of points. It returns false if
	// points is empty or contains points of a foreign type.
	Bounds(points []Point) (Bounds, bool)
	// Range projects bounds into its index representation.
	Range(bounds Bounds) Range
	// Size returns the number of leading bytes in buf occupied by one
	// encoded point.
	Size(buf []byte) (int, error)
	// Decode decodes a single point.
	Decode(buf []byte) (Point, error)
	// DecodeRange decodes a range and returns the number of bytes consumed.
	DecodeRange(buf []byte) (Range, int, error)
}

// Value is an opaque payload stored with each point.
type Value interface {
	// AppendBinary appends the encoded value to dst.
	AppendBinary(dst []byte) []byte
}

// ValueType describes a value encoding.
type ValueType interface {
	// Size returns the number of leading bytes in buf occupied by one
	// encoded value.
	Size(buf []byte) (int, error)
	// Decode decodes a single value.
	Decode(buf []byte) (Value, error)
}

// Row is a point/value pair.
type Row struct {
	Point Point
	Value Value
}

// Location references a row. Block is the offset of the data block plus one,
// zero marks a staging row which has not been written to a block yet.
type Location struct {
	Block uint64
	Index uint64
}

// BlockLocation returns the location of the index-th row in the data block
// at offset.
func BlockLocation(offset uint64, index int) Location {
	return Location{Block: offset + 1, Index: uint64(index)}
}

// IsStaging reports whether the location refers to an uncommitted row.
func (l Location) IsStaging() bool { return l.Block == 0 }

// Offset returns the data block offset. It must not be called on staging
// locations.
func (l Location) Offset() uint64 { return l.Block - 1 }

// Record is a live row together with its location.
type Record struct {
	Point    Point
	Value    Value
	Location Location
}

// Extent summarises the live rows of a data block.
type Extent struct {
	Bounds Bounds
	Count  uint64
}
