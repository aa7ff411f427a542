package storage

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// File is a Storage backed by an operating system file.
type File struct {
	f *os.File
}

// OpenFile opens (or creates) the named file for random access.
func OpenFile(name string) (*File, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return &File{f: f}, nil
}

// NewFile wraps an already opened file. The file must be readable and
// writable.
func NewFile(f *os.File) *File {
	return &File{f: f}
}

// Read implements Storage. Reads past the end of the file are clipped.
func (s *File) Read(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, errors.Errorf("storage: invalid read offset=%d length=%d", offset, length)
	}
	p := make([]byte, length)
	n, err := s.f.ReadAt(p, offset)
	if err == io.EOF {
		err = nil
	}
	return p[:n], err
}

// Write implements Storage.
func (s *File) Write(offset int64, data []byte) error {
	_, err := s.f.WriteAt(data, offset)
	return err
}

// Delete implements Storage by zero-filling the part of the range that
// lies within the file.
func (s *File) Delete(offset, length int64) error {
	size, err := s.Len()
	if err != nil {
		return err
	}
	end := offset + length
	if end > size {
		end = size
	}

	zero := make([]byte, 4096)
	for pos := offset; pos < end; pos += int64(len(zero)) {
		n := end - pos
		if n > int64(len(zero)) {
			n = int64(len(zero))
		}
		if _, err := s.f.WriteAt(zero[:n], pos); err != nil {
			return err
		}
	}
	return nil
}

// Truncate implements Storage.
func (s *File) Truncate(length int64) error {
	return s.f.Truncate(length)
}

// Len implements Storage.
func (s *File) Len() (int64, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// IsEmpty implements Storage.
func (s *File) IsEmpty() (bool, error) {
	n, err := s.Len()
	return n == 0, err
}

// ReadTo implements ReaderTo.
func (s *File) ReadTo(offset, length int64, w io.Writer) error {
	_, err := io.Copy(w, io.NewSectionReader(s.f, offset, length))
	return err
}

// Sync implements Syncer.
func (s *File) Sync() error {
	return s.f.Sync()
}

// Close closes the underlying file.
func (s *File) Close() error {
	return s.f.Close()
}
