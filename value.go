package geoblock

import (
	"encoding/binary"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// Bytes is a raw byte payload, encoded with a uvarint length prefix.
type Bytes []byte

// AppendBinary implements Value.
func (b Bytes) AppendBinary(dst []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

// SnappyBytes is a byte payload which is stored snappy compressed.
type SnappyBytes []byte

// AppendBinary implements Value.
func (b SnappyBytes) AppendBinary(dst []byte) []byte {
	enc := snappy.Encode(nil, b)
	dst = binary.AppendUvarint(dst, uint64(len(enc)))
	return append(dst, enc...)
}

var (
	// BytesType decodes Bytes values.
	BytesType ValueType = bytesType{}

	// SnappyType decodes SnappyBytes values.
	SnappyType ValueType = snappyType{}
)

type bytesType struct{}

func (bytesType) Size(buf []byte) (int, error) { return prefixedSize(buf) }

func (bytesType) Decode(buf []byte) (Value, error) {
	p, err := prefixedPayload(buf)
	if err != nil {
		return nil, err
	}
	return Bytes(append([]byte{}, p...)), nil
}

type snappyType struct{}

func (snappyType) Size(buf []byte) (int, error) { return prefixedSize(buf) }

func (snappyType) Decode(buf []byte) (Value, error) {
	p, err := prefixedPayload(buf)
	if err != nil {
		return nil, err
	}
	plain, err := snappy.Decode(nil, p)
	if err != nil {
		return nil, err
	}
	return SnappyBytes(plain), nil
}

func prefixedSize(buf []byte) (int, error) {
	n, k := binary.Uvarint(buf)
	if k <= 0 {
		return 0, errors.New("geoblock: bad value length prefix")
	}
	if n > uint64(len(buf)-k) {
		return 0, errors.Errorf("geoblock: value of %d bytes overruns buffer of %d bytes", n, len(buf)-k)
	}
	return k + int(n), nil
}

func prefixedPayload(buf []byte) ([]byte, error) {
	size, err := prefixedSize(buf)
	if err != nil {
		return nil, err
	}
	_, k := binary.Uvarint(buf)
	return buf[k:size], nil
}
