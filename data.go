package geoblock

import (
	"encoding/binary"
	"io"
	"log/slog"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bsm/geoblock/storage"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/pkg/errors"
)

// Options define data store specific options.
type Options struct {
	// MaxDataSize is the maximum number of rows in a single data block.
	// Default: 6000.
	MaxDataSize int

	// BBoxCacheSize is the number of block extents kept in memory.
	// Default: 1000.
	BBoxCacheSize int

	// ListCacheSize is the number of decoded blocks kept in memory.
	// Default: 500.
	ListCacheSize int

	// ReadChunkSize is the increment in bytes in which blocks are read.
	// Default: 1KiB.
	ReadChunkSize int

	// Logger receives debug output.
	// Default: discards all output.
	Logger *slog.Logger
}

func (o *Options) norm() *Options {
	var oo Options
	if o != nil {
		oo = *o
	}

	if oo.MaxDataSize < 1 {
		oo.MaxDataSize = 6000
	} else if oo.MaxDataSize > maxRows {
		oo.MaxDataSize = maxRows
	}
	if oo.BBoxCacheSize < 1 {
		oo.BBoxCacheSize = 1000
	}
	if oo.ListCacheSize < 1 {
		oo.ListCacheSize = 500
	}
	if oo.ReadChunkSize < 1 {
		oo.ReadChunkSize = 1 << 10
	}
	if oo.Logger == nil {
		oo.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &oo
}

// DataStore is an append-only store of data blocks with a parallel range
// index.
//
// A DataStore is not safe for concurrent use, wrap it in a Handle to share
// it between call sites.
type DataStore struct {
	store storage.Storage
	rng   *DataRange
	pt    PointType
	vt    ValueType
	o     *Options

	lists *simplelru.LRU[uint64, []Record]
}

// Open opens a data store. Data blocks are kept in store, range index
// entries in rangeStore.
func Open(store, rangeStore storage.Storage, pt PointType, vt ValueType, o *Options) (*DataStore, error) {
	o = o.norm()

	rng, err := NewDataRange(rangeStore, pt, o.BBoxCacheSize, o.ReadChunkSize)
	if err != nil {
		return nil, err
	}
	lists, err := simplelru.NewLRU[uint64, []Record](o.ListCacheSize, nil)
	if err != nil {
		return nil, err
	}

	return &DataStore{
		store: store,
		rng:   rng,
		pt:    pt,
		vt:    vt,
		o:     o,
		lists: lists,
	}, nil
}

// MaxDataSize returns the maximum number of rows per block.
func (s *DataStore) MaxDataSize() int { return s.o.MaxDataSize }

// Range returns the range index.
func (s *DataStore) Range() *DataRange { return s.rng }

// Batch writes rows as a new data block at the end of the store and records
// its bounding range in the range index. It returns the block offset.
func (s *DataStore) Batch(rows []Row) (uint64, error) {
	if len(rows) > s.o.MaxDataSize {
		return 0, errors.Wrapf(ErrCapacity, "%d rows exceed the limit of %d", len(rows), s.o.MaxDataSize)
	}

	size, err := s.store.Len()
	if err != nil {
		return 0, err
	}
	offset := uint64(size)

	points := make([]Point, len(rows))
	for i, row := range rows {
		points[i] = row.Point
	}
	bounds, ok := s.pt.Bounds(points)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidData, "no bounds for %d rows at offset %d", len(rows), offset)
	}

	data, err := appendBlock(nil, rows)
	if err != nil {
		return 0, err
	}
	if err := s.store.Write(size, data); err != nil {
		return 0, err
	}
	if err := s.rng.Write(RangeEntry{
		Offset: offset,
		Range:  s.pt.Range(bounds),
		Count:  uint64(len(rows)),
	}); err != nil {
		return 0, err
	}

	s.o.Logger.Debug("batch written", "offset", offset, "rows", len(rows), "bytes", len(data))
	return offset, nil
}

// List returns the live rows of the block at offset.
func (s *DataStore) List(offset uint64) ([]Record, error) {
	if records, ok := s.lists.Get(offset); ok {
		return copyRecords(records), nil
	}

	buf, err := readBlock(s.store, offset, s.o.ReadChunkSize)
	if err != nil {
		return nil, err
	}
	records, err := s.Parse(buf)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Location.Block = offset + 1
	}

	s.lists.Add(offset, records)
	return copyRecords(records), nil
}

// Parse decodes the live rows of a raw data block. The returned locations
// carry row indexes only.
func (s *DataStore) Parse(buf []byte) ([]Record, error) {
	return parseBlock(buf, s.pt, s.vt)
}

// Query returns the live rows of the block at offset which overlap bounds.
func (s *DataStore) Query(offset uint64, bounds Bounds) ([]Record, error) {
	records, err := s.List(offset)
	if err != nil {
		return nil, err
	}

	matches := records[:0]
	for _, rec := range records {
		if rec.Point.Overlaps(bounds) {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}

// Delete marks rows as deleted by clearing their bitfield bits in place.
// Staging locations are skipped. Deleting a row twice has no further effect.
func (s *DataStore) Delete(locations []Location) error {
	var order []uint64
	byBlock := make(map[uint64]*roaring.Bitmap)
	for _, loc := range locations {
		if loc.IsStaging() {
			continue
		}
		if loc.Index > math.MaxUint32 {
			return errors.Wrapf(ErrOutOfRange, "index %d at offset %d", loc.Index, loc.Offset())
		}

		bm, ok := byBlock[loc.Offset()]
		if !ok {
			bm = roaring.New()
			byBlock[loc.Offset()] = bm
			order = append(order, loc.Offset())
		}
		bm.Add(uint32(loc.Index))
	}

	for _, offset := range order {
		if err := s.deleteRows(offset, byBlock[offset]); err != nil {
			return err
		}
	}
	return nil
}

func (s *DataStore) deleteRows(offset uint64, indexes *roaring.Bitmap) error {
	maxIndex := uint64(indexes.Maximum())
	n := headerSize + 1 + maxIndex/8 // indexes start at 0, unlike lengths

	size, err := s.store.Len()
	if err != nil {
		return err
	}
	if offset >= uint64(size) || n > uint64(size)-offset {
		return errors.Wrapf(ErrOutOfRange, "index %d past the end of the store at offset %d", maxIndex, offset)
	}

	header, err := s.store.Read(int64(offset), int64(n))
	if err != nil {
		return err
	}
	if uint64(len(header)) < n {
		return errors.Wrapf(ErrOutOfRange, "short header read of %d bytes at offset %d", len(header), offset)
	}

	blockSize := uint64(binary.BigEndian.Uint32(header))
	bitfieldLen := uint64(binary.BigEndian.Uint16(header[4:]))
	if n > bitfieldLen+headerSize {
		return errors.Wrapf(ErrOutOfRange, "read length %d from index %d past expected bitfield length %d for block size %d at offset %d",
			n, maxIndex, bitfieldLen, blockSize, offset)
	}
	if n > blockSize {
		return errors.Wrapf(ErrOutOfRange, "data block of %d bytes at offset %d is too small for index %d", blockSize, offset, maxIndex)
	}

	iter := indexes.Iterator()
	for iter.HasNext() {
		i := iter.Next()
		header[headerSize+i/8] &^= 1 << (i % 8)
	}
	if err := s.store.Write(int64(offset)+headerSize, header[headerSize:]); err != nil {
		return err
	}

	if records, ok := s.lists.Get(offset); ok {
		live := records[:0]
		for _, rec := range records {
			if rec.Location.Index > math.MaxUint32 || !indexes.Contains(uint32(rec.Location.Index)) {
				live = append(live, rec)
			}
		}
		s.lists.Add(offset, live)
	}
	s.rng.cache.Remove(offset)

	s.o.Logger.Debug("rows deleted", "offset", offset, "rows", indexes.GetCardinality())
	return nil
}

// BBox returns the bounds and live row count of the block at offset. It
// returns false if the block has no live rows.
func (s *DataStore) BBox(offset uint64) (Extent, bool, error) {
	if ext, ok := s.rng.cache.Get(offset); ok {
		return ext, true, nil
	}

	records, err := s.List(offset)
	if err != nil {
		return Extent{}, false, err
	}
	if len(records) == 0 {
		return Extent{}, false, nil
	}

	points := make([]Point, len(records))
	for i, rec := range records {
		points[i] = rec.Point
	}
	bounds, ok := s.pt.Bounds(points)
	if !ok {
		return Extent{}, false, errors.Wrapf(ErrInvalidData, "no bounds for %d rows at offset %d", len(records), offset)
	}

	ext := Extent{Bounds: bounds, Count: uint64(len(records))}
	s.rng.cache.Add(offset, ext)
	return ext, true, nil
}

// Bytes returns the current length of the data store.
func (s *DataStore) Bytes() (uint64, error) {
	n, err := s.store.Len()
	return uint64(n), err
}

// Commit flushes buffered writes of both the data and range stores and
// syncs them to durable storage where supported.
func (s *DataStore) Commit() error {
	for _, st := range []storage.Storage{s.store, s.rng.store} {
		if c, ok := st.(storage.Committer); ok {
			if err := c.Commit(); err != nil {
				return err
			}
		}
		if c, ok := st.(storage.Syncer); ok {
			if err := c.Sync(); err != nil {
				return err
			}
		}
	}

	s.o.Logger.Debug("store committed")
	return nil
}

func copyRecords(records []Record) []Record {
	return append(make([]Record, 0, len(records)), records...)
}
