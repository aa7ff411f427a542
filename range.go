package geoblock

import (
	"github.com/bsm/geoblock/storage"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// RangeEntry is a range index record for a single data block.
type RangeEntry struct {
	Offset uint64 // data block offset
	Range  Range  // bounding range of the block's rows at write time
	Count  uint64 // number of rows at write time
}

// DataRange is the range index: an append-only log of RangeEntry records
// plus a bounded cache of the current extent of each data block.
type DataRange struct {
	store storage.Storage
	pt    PointType
	chunk int
	cache *simplelru.LRU[uint64, Extent]
}

// NewDataRange opens a range index on top of store.
func NewDataRange(store storage.Storage, pt PointType, cacheSize, chunkSize int) (*DataRange, error) {
	if chunkSize < 1 {
		chunkSize = 1024
	}
	cache, err := simplelru.NewLRU[uint64, Extent](cacheSize, nil)
	if err != nil {
		return nil, err
	}
	return &DataRange{
		store: store,
		pt:    pt,
		chunk: chunkSize,
		cache: cache,
	}, nil
}

// Write appends an entry to the end of the log.
func (r *DataRange) Write(e RangeEntry) error {
	offset, err := r.store.Len()
	if err != nil {
		return err
	}
	return r.store.Write(offset, appendRangeEntry(nil, e))
}

// List returns all entries in append order.
func (r *DataRange) List() ([]RangeEntry, error) {
	buf, err := readAll(r.store, r.chunk)
	if err != nil {
		return nil, err
	}
	return parseRangeLog(buf, r.pt)
}

// Len returns the size of the log in bytes.
func (r *DataRange) Len() (int64, error) {
	return r.store.Len()
}
