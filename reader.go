package geoblock

import (
	"encoding/binary"

	"github.com/bsm/geoblock/storage"
	"github.com/pkg/errors"
)

// readBlock reads the data block at offset in increments of chunk bytes,
// never reading past the end of the store.
func readBlock(store storage.Storage, offset uint64, chunk int) ([]byte, error) {
	size, err := store.Len()
	if err != nil {
		return nil, err
	}
	if offset >= uint64(size) || uint64(size)-offset < headerSize {
		return nil, errors.Wrapf(ErrInvalidData, "block header at offset %d past the end of the store (%d bytes)", offset, size)
	}
	avail := uint64(size) - offset

	first := uint64(chunk)
	if first > avail {
		first = avail
	}
	buf, err := store.Read(int64(offset), int64(first))
	if err != nil {
		return nil, err
	}
	if len(buf) < headerSize {
		return nil, errors.Wrapf(ErrInvalidData, "short block header at offset %d", offset)
	}

	total := uint64(binary.BigEndian.Uint32(buf))
	if total < headerSize || total > avail {
		return nil, errors.Wrapf(ErrInvalidData, "block length %d at offset %d out of bounds (%d bytes available)", total, offset, avail)
	}

	for uint64(len(buf)) < total {
		n := total - uint64(len(buf))
		if n > uint64(chunk) {
			n = uint64(chunk)
		}
		more, err := store.Read(int64(offset)+int64(len(buf)), int64(n))
		if err != nil {
			return nil, err
		}
		if len(more) == 0 {
			return nil, errors.Wrapf(ErrInvalidData, "unexpected end of block at offset %d", offset)
		}
		buf = append(buf, more...)
	}
	return buf[:total], nil
}

// readAll reads the entire store in increments of chunk bytes.
func readAll(store storage.Storage, chunk int) ([]byte, error) {
	size, err := store.Len()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, size)
	for int64(len(buf)) < size {
		n := size - int64(len(buf))
		if n > int64(chunk) {
			n = int64(chunk)
		}
		more, err := store.Read(int64(len(buf)), n)
		if err != nil {
			return nil, err
		}
		if len(more) == 0 {
			break
		}
		buf = append(buf, more...)
	}
	return buf, nil
}

// parseBlock decodes the live rows of a raw data block. Row sizes are
// probed through pt and vt so variable-length encodings are supported; only
// live rows are fully decoded.
func parseBlock(buf []byte, pt PointType, vt ValueType) ([]Record, error) {
	if len(buf) < headerSize {
		return nil, errors.Wrapf(ErrInvalidData, "block of %d bytes is shorter than its header", len(buf))
	}
	if total := binary.BigEndian.Uint32(buf); uint64(total) != uint64(len(buf)) {
		return nil, errors.Wrapf(ErrInvalidData, "block length %d does not match buffer length %d", total, len(buf))
	}

	bitfieldLen := int(binary.BigEndian.Uint16(buf[4:]))
	pos := headerSize + bitfieldLen
	if pos > len(buf) {
		return nil, errors.Wrapf(ErrInvalidData, "bitfield length %d exceeds block length %d", bitfieldLen, len(buf))
	}
	bitfield := buf[headerSize:pos]

	var records []Record
	for index := 0; pos < len(buf); index++ {
		if index/8 >= bitfieldLen {
			return nil, errors.Wrapf(ErrInvalidData, "row %d is not covered by a bitfield of %d bytes", index, bitfieldLen)
		}

		psize, err := pt.Size(buf[pos:])
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidData, "point %d at position %d: %v", index, pos, err)
		}
		vsize, err := vt.Size(buf[pos+psize:])
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidData, "value %d at position %d: %v", index, pos+psize, err)
		}
		if pos+psize+vsize > len(buf) {
			return nil, errors.Wrapf(ErrInvalidData, "row %d overruns the block", index)
		}

		if bitfield[index/8]>>uint(index%8)&1 == 1 {
			p, err := pt.Decode(buf[pos : pos+psize])
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidData, "point %d: %v", index, err)
			}
			v, err := vt.Decode(buf[pos+psize : pos+psize+vsize])
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidData, "value %d: %v", index, err)
			}
			records = append(records, Record{
				Point:    p,
				Value:    v,
				Location: Location{Index: uint64(index)},
			})
		}
		pos += psize + vsize
	}
	return records, nil
}

// parseRangeLog decodes every entry of a raw range log.
func parseRangeLog(buf []byte, pt PointType) ([]RangeEntry, error) {
	var entries []RangeEntry
	for pos := 0; pos < len(buf); {
		if len(buf)-pos < 4 {
			return nil, errors.Wrapf(ErrInvalidData, "short range entry header at position %d", pos)
		}
		n := int(binary.BigEndian.Uint32(buf[pos:]))
		pos += 4
		if n < 16 || n > len(buf)-pos {
			return nil, errors.Wrapf(ErrInvalidData, "range entry length %d at position %d out of bounds", n, pos-4)
		}
		body := buf[pos : pos+n]

		rng, rsize, err := pt.DecodeRange(body[8:])
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidData, "range entry at position %d: %v", pos-4, err)
		}
		if 8+rsize+8 != n {
			return nil, errors.Wrapf(ErrInvalidData, "range entry at position %d has %d trailing bytes", pos-4, n-16-rsize)
		}

		entries = append(entries, RangeEntry{
			Offset: binary.BigEndian.Uint64(body),
			Range:  rng,
			Count:  binary.BigEndian.Uint64(body[8+rsize:]),
		})
		pos += n
	}
	return entries, nil
}
