package storage

import (
	"io"
	"sort"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/pkg/errors"
)

// CacheOptions define block cache specific options.
type CacheOptions struct {
	// BlockSize is the size in bytes of each cache block.
	// Default: 4KiB.
	BlockSize int

	// Count is the maximum number of blocks held in the read cache.
	// Default: 128.
	Count int
}

func (o *CacheOptions) norm() *CacheOptions {
	var oo CacheOptions
	if o != nil {
		oo = *o
	}

	if oo.BlockSize < 1 {
		oo.BlockSize = 1 << 12
	}
	if oo.Count < 1 {
		oo.Count = 128
	}
	return &oo
}

// BlockCache wraps a Storage and translates byte-range reads and writes
// into fixed-size block operations. Reads are cached in a bounded LRU,
// writes are buffered until Commit.
//
// A BlockCache is not safe for concurrent use.
type BlockCache struct {
	store Storage
	size  int64

	reads  *simplelru.LRU[int64, *Block]
	writes map[int64]*Block
	extent int64 // end of the furthest buffered write

	hits, misses int64
}

// NewBlockCache wraps store.
func NewBlockCache(store Storage, o *CacheOptions) (*BlockCache, error) {
	o = o.norm()

	reads, err := simplelru.NewLRU[int64, *Block](o.Count, nil)
	if err != nil {
		return nil, err
	}
	return &BlockCache{
		store:  store,
		size:   int64(o.BlockSize),
		reads:  reads,
		writes: make(map[int64]*Block),
	}, nil
}

// segment is the intersection of a byte range with a single block.
type segment struct {
	block      int64 // block-aligned offset
	start, end int   // range within the block
	pos        int   // position within the caller's buffer
}

func (c *BlockCache) segments(offset, length int64) []segment {
	if length <= 0 {
		return nil
	}

	limit := offset + length
	first := (offset / c.size) * c.size

	segs := make([]segment, 0, (limit-first+c.size-1)/c.size)
	pos := 0
	for b := first; b < limit; b += c.size {
		start := offset
		if start < b {
			start = b
		}
		end := limit
		if end > b+c.size {
			end = b + c.size
		}
		segs = append(segs, segment{
			block: b,
			start: int(start - b),
			end:   int(end - b),
			pos:   pos,
		})
		pos += int(end - start)
	}
	return segs
}

// Write implements Storage. It buffers data in memory and never touches the
// backing store.
func (c *BlockCache) Write(offset int64, data []byte) error {
	if offset < 0 {
		return errors.Errorf("storage: invalid write offset=%d", offset)
	}

	for _, s := range c.segments(offset, int64(len(data))) {
		chunk := data[s.pos : s.pos+s.end-s.start]

		if blk, ok := c.writes[s.block]; ok {
			blk.Write(s.start, chunk)
			continue
		}

		blk, ok := c.reads.Peek(s.block)
		if ok {
			c.reads.Remove(s.block)
		} else {
			blk = NewBlock(int(c.size))
		}
		blk.Write(s.start, chunk)
		c.writes[s.block] = blk
	}

	if end := offset + int64(len(data)); end > c.extent {
		c.extent = end
	}
	return nil
}

// pendingRead is a segment which must be fetched from the backing store.
type pendingRead struct {
	segment
	write  bool   // merge into the buffered write block
	cached *Block // merge into a partially known read-cache block
}

// Read implements Storage. The result always has exactly length bytes; bytes
// beyond the end of the store are zero.
func (c *BlockCache) Read(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, errors.Errorf("storage: invalid read offset=%d length=%d", offset, length)
	}

	result := make([]byte, length)

	var pending []pendingRead
	for _, s := range c.segments(offset, length) {
		if blk, ok := c.writes[s.block]; ok {
			if blk.HaveAll(s.start, s.end) {
				copy(result[s.pos:], blk.data[s.start:s.end])
			} else {
				pending = append(pending, pendingRead{segment: s, write: true})
			}
			continue
		}

		if blk, ok := c.reads.Get(s.block); ok {
			c.hits++
			if blk.HaveAll(s.start, s.end) {
				copy(result[s.pos:], blk.data[s.start:s.end])
			} else {
				pending = append(pending, pendingRead{segment: s, cached: blk})
			}
			continue
		}

		c.misses++
		pending = append(pending, pendingRead{segment: s})
	}

	if len(pending) == 0 {
		return result, nil
	}

	size, err := c.store.Len()
	if err != nil {
		return nil, err
	}

	i := pending[0].block
	if i > size {
		i = size
	}
	j := pending[len(pending)-1].block + c.size
	if j > size {
		j = size
	}

	var data []byte
	if j > i {
		if data, err = c.store.Read(i, j-i); err != nil {
			return nil, err
		}
	}

	for _, p := range pending {
		dStart := p.block - i
		if dStart > int64(len(data)) {
			dStart = int64(len(data))
		}
		dEnd := dStart + c.size
		if dEnd > int64(len(data)) {
			dEnd = int64(len(data))
		}
		chunk := data[dStart:dEnd]

		switch {
		case p.write:
			blk, ok := c.writes[p.block]
			if !ok {
				panic(errors.Errorf("storage: expected block in write cache at offset %d", p.block))
			}
			blk.Merge(chunk)
			copy(result[p.pos:], blk.data[p.start:p.end])
		case p.cached != nil:
			p.cached.Merge(chunk)
			copy(result[p.pos:], p.cached.data[p.start:p.end])
			c.reads.Add(p.block, p.cached)
		default:
			buf := make([]byte, c.size)
			n := copy(buf, chunk)
			blk := blockFromPartial(buf, n)
			copy(result[p.pos:], blk.data[p.start:p.end])
			c.reads.Add(p.block, blk)
		}
	}
	return result, nil
}

// Commit flushes buffered writes to the backing store. Contiguous runs of
// known bytes are coalesced, across adjacent blocks, into as few physical
// writes as possible.
//
// Buffered writes are discarded and the read cache is updated before any
// physical write is issued. If Commit fails, the cache may therefore be
// ahead of the backing store.
func (c *BlockCache) Commit() error {
	offsets := make([]int64, 0, len(c.writes))
	for b := range c.writes {
		offsets = append(offsets, b)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	type physicalWrite struct {
		offset int64
		data   []byte
	}

	var writes []physicalWrite
	for _, b := range offsets {
		blk := c.writes[b]
		c.reads.Add(b, blk)

		for _, span := range blk.Writes() {
			if n := len(writes); n != 0 && span.Offset == 0 {
				if last := &writes[n-1]; last.offset+int64(len(last.data)) == b {
					last.data = append(last.data, span.Data...)
					continue
				}
			}
			writes = append(writes, physicalWrite{
				offset: b + int64(span.Offset),
				data:   append([]byte(nil), span.Data...),
			})
		}
	}
	c.writes = make(map[int64]*Block)
	c.extent = 0

	for _, w := range writes {
		if err := c.store.Write(w.offset, w.data); err != nil {
			return err
		}
	}
	return nil
}

// ReadTo is not supported by the block cache.
func (c *BlockCache) ReadTo(offset, length int64, w io.Writer) error {
	return ErrNotSupported
}

// Delete implements Storage. The call is forwarded to the backing store and
// affected read-cache blocks are dropped.
func (c *BlockCache) Delete(offset, length int64) error {
	if err := c.store.Delete(offset, length); err != nil {
		return err
	}
	c.invalidate(func(b int64) bool { return b+c.size > offset && b < offset+length })
	return nil
}

// Truncate implements Storage. The call is forwarded to the backing store and
// read-cache blocks reaching beyond length are dropped.
func (c *BlockCache) Truncate(length int64) error {
	if err := c.store.Truncate(length); err != nil {
		return err
	}
	c.invalidate(func(b int64) bool { return b+c.size > length })
	if c.extent > length {
		c.extent = length
	}
	return nil
}

// Len implements Storage. It reports the length of the backing store,
// extended by any buffered writes past its end.
func (c *BlockCache) Len() (int64, error) {
	n, err := c.store.Len()
	if err != nil {
		return 0, err
	}
	if c.extent > n {
		n = c.extent
	}
	return n, nil
}

// IsEmpty implements Storage.
func (c *BlockCache) IsEmpty() (bool, error) {
	if c.extent > 0 {
		return false, nil
	}
	return c.store.IsEmpty()
}

// Sync implements Syncer if the backing store does.
func (c *BlockCache) Sync() error {
	if s, ok := c.store.(Syncer); ok {
		return s.Sync()
	}
	return nil
}

// Stats returns read cache hits and misses.
func (c *BlockCache) Stats() (hits, misses int64) {
	return c.hits, c.misses
}

func (c *BlockCache) invalidate(match func(b int64) bool) {
	for _, b := range c.reads.Keys() {
		if match(b) {
			c.reads.Remove(b)
		}
	}
}
