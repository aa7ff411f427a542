// Package storage contains the random-access storage contract used by
// geoblock together with in-memory and file-backed implementations and a
// block-granular write-back cache.
package storage

import (
	"io"

	"github.com/pkg/errors"
)

// ErrNotSupported is returned when a backend refuses an optional operation.
var ErrNotSupported = errors.New("storage: operation not supported")

// Storage is a raw byte-addressable random access store.
//
// Errors returned by implementations are passed through every layer above
// unchanged.
type Storage interface {
	// Read returns length bytes starting at offset.
	Read(offset, length int64) ([]byte, error)
	// Write stores data at offset, growing the store if necessary.
	Write(offset int64, data []byte) error
	// Delete discards the contents of a byte range.
	Delete(offset, length int64) error
	// Truncate resizes the store to length bytes.
	Truncate(length int64) error
	// Len returns the current store length.
	Len() (int64, error)
	// IsEmpty reports whether the store has zero length.
	IsEmpty() (bool, error)
}

// Syncer is implemented by stores which can flush to durable storage.
type Syncer interface {
	Sync() error
}

// Committer is implemented by stores which buffer writes in memory.
type Committer interface {
	Commit() error
}

// ReaderTo is implemented by stores which can stream a range into a sink.
type ReaderTo interface {
	ReadTo(offset, length int64, w io.Writer) error
}
