package storage

import (
	"io"

	"github.com/pkg/errors"
)

// Memory is an in-memory Storage. The zero value is an empty store.
type Memory struct {
	buf []byte
}

// NewMemory returns a store seeded with a copy of data.
func NewMemory(data []byte) *Memory {
	return &Memory{buf: append([]byte(nil), data...)}
}

// Read implements Storage. Reads past the end of the store are clipped.
func (m *Memory) Read(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, errors.Errorf("storage: invalid read offset=%d length=%d", offset, length)
	}
	size := int64(len(m.buf))
	if offset >= size {
		return []byte{}, nil
	}
	end := offset + length
	if end > size {
		end = size
	}
	return append([]byte(nil), m.buf[offset:end]...), nil
}

// Write implements Storage.
func (m *Memory) Write(offset int64, data []byte) error {
	if offset < 0 {
		return errors.Errorf("storage: invalid write offset=%d", offset)
	}
	if end := offset + int64(len(data)); end > int64(len(m.buf)) {
		m.grow(end)
	}
	copy(m.buf[offset:], data)
	return nil
}

// Delete implements Storage by zeroing the range.
func (m *Memory) Delete(offset, length int64) error {
	if offset < 0 || length < 0 {
		return errors.Errorf("storage: invalid delete offset=%d length=%d", offset, length)
	}
	size := int64(len(m.buf))
	if offset >= size {
		return nil
	}
	end := offset + length
	if end > size {
		end = size
	}
	for i := offset; i < end; i++ {
		m.buf[i] = 0
	}
	return nil
}

// Truncate implements Storage.
func (m *Memory) Truncate(length int64) error {
	if length < 0 {
		return errors.Errorf("storage: invalid truncate length=%d", length)
	}
	if length > int64(len(m.buf)) {
		m.grow(length)
	} else {
		m.buf = m.buf[:length]
	}
	return nil
}

// Len implements Storage.
func (m *Memory) Len() (int64, error) { return int64(len(m.buf)), nil }

// IsEmpty implements Storage.
func (m *Memory) IsEmpty() (bool, error) { return len(m.buf) == 0, nil }

// ReadTo implements ReaderTo.
func (m *Memory) ReadTo(offset, length int64, w io.Writer) error {
	p, err := m.Read(offset, length)
	if err != nil {
		return err
	}
	_, err = w.Write(p)
	return err
}

// Bytes returns the raw store contents. The slice must not be modified.
func (m *Memory) Bytes() []byte { return m.buf }

func (m *Memory) grow(size int64) {
	if size <= int64(cap(m.buf)) {
		n := len(m.buf)
		m.buf = m.buf[:size]
		for i := n; i < len(m.buf); i++ {
			m.buf[i] = 0
		}
		return
	}
	buf := make([]byte, size, 2*size)
	copy(buf, m.buf)
	m.buf = buf
}
