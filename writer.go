package geoblock

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// appendBlock encodes rows as a data block with every row marked live and
// appends it to dst.
func appendBlock(dst []byte, rows []Row) ([]byte, error) {
	if len(rows) > maxRows {
		return dst, errors.Wrapf(ErrCapacity, "%d rows exceed the bitfield limit of %d", len(rows), maxRows)
	}

	start := len(dst)
	bitfieldLen := (len(rows) + 7) / 8

	dst = append(dst, make([]byte, headerSize+bitfieldLen)...)
	bitfield := dst[start+headerSize:]
	for i := range rows {
		bitfield[i/8] |= 1 << uint(i%8)
	}

	for _, row := range rows {
		dst = row.Point.AppendBinary(dst)
		dst = row.Value.AppendBinary(dst)
	}

	size := len(dst) - start
	if uint64(size) > math.MaxUint32 {
		return dst[:start], errors.Wrapf(ErrCapacity, "block of %d bytes exceeds the block size limit", size)
	}
	binary.BigEndian.PutUint32(dst[start:], uint32(size))
	binary.BigEndian.PutUint16(dst[start+4:], uint16(bitfieldLen))
	return dst, nil
}

// appendRangeEntry encodes a range index entry and appends it to dst.
func appendRangeEntry(dst []byte, e RangeEntry) []byte {
	start := len(dst)
	dst = append(dst, 0, 0, 0, 0)

	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], e.Offset)
	dst = append(dst, tmp[:]...)
	dst = e.Range.AppendBinary(dst)
	binary.BigEndian.PutUint64(tmp[:], e.Count)
	dst = append(dst, tmp[:]...)

	binary.BigEndian.PutUint32(dst[start:], uint32(len(dst)-start-4))
	return dst
}
