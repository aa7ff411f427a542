package storage

import "github.com/bits-and-blooms/bitset"

// Span is a contiguous run of known bytes within a Block.
type Span struct {
	Offset int    // offset relative to the start of the block
	Data   []byte // the bytes, aliasing the block buffer
}

// Block is a fixed-size buffer which tracks, byte by byte, which parts of
// its contents are known.
type Block struct {
	data    []byte
	mask    *bitset.BitSet
	missing int
}

// NewBlock returns an empty block of the given size.
func NewBlock(size int) *Block {
	return &Block{
		data:    make([]byte, size),
		mask:    bitset.New(uint(size)),
		missing: size,
	}
}

// BlockFromData wraps data as a fully known block. Individual bytes are not
// marked; completeness checks short-circuit on the missing count instead.
func BlockFromData(data []byte) *Block {
	return &Block{
		data: data,
		mask: bitset.New(uint(len(data))),
	}
}

// blockFromPartial wraps data where only the first n bytes came from the
// store and the remainder is padding.
func blockFromPartial(data []byte, n int) *Block {
	if n >= len(data) {
		return BlockFromData(data)
	}
	b := &Block{
		data:    data,
		mask:    bitset.New(uint(len(data))),
		missing: len(data) - n,
	}
	for i := 0; i < n; i++ {
		b.mask.Set(uint(i))
	}
	return b
}

// Size returns the block size.
func (b *Block) Size() int { return len(b.data) }

// Missing returns the number of bytes which are not yet known.
func (b *Block) Missing() int { return b.missing }

// Bytes returns the block buffer. Unknown bytes are zero.
func (b *Block) Bytes() []byte { return b.data }

// Write copies data into the block at offset and marks the bytes as known.
func (b *Block) Write(offset int, data []byte) {
	copy(b.data[offset:offset+len(data)], data)
	for i := offset; i < offset+len(data); i++ {
		if !b.mask.Test(uint(i)) {
			b.mask.Set(uint(i))
			if b.missing > 0 {
				b.missing--
			}
		}
	}
}

// Merge fills the unknown bytes of the block from data, leaving bytes which
// were already written untouched.
func (b *Block) Merge(data []byte) {
	if b.missing == 0 {
		return
	}
	n := len(data)
	if n > len(b.data) {
		n = len(b.data)
	}
	for i := 0; i < n; i++ {
		if !b.mask.Test(uint(i)) {
			b.data[i] = data[i]
			b.mask.Set(uint(i))
			b.missing--
		}
	}
}

// HaveAll reports whether every byte in [i, j) is known.
func (b *Block) HaveAll(i, j int) bool {
	if b.missing == 0 {
		return true
	}
	for k := i; k < j; k++ {
		if !b.mask.Test(uint(k)) {
			return false
		}
	}
	return true
}

// Writes returns the maximal contiguous known ranges in ascending order.
func (b *Block) Writes() []Span {
	if b.missing == 0 {
		return []Span{{Offset: 0, Data: b.data}}
	}

	size := uint(len(b.data))
	var spans []Span
	for i := uint(0); i < size; {
		start, ok := b.mask.NextSet(i)
		if !ok || start >= size {
			break
		}
		end, ok := b.mask.NextClear(start)
		if !ok || end > size {
			end = size
		}
		spans = append(spans, Span{Offset: int(start), Data: b.data[start:end]})
		i = end
	}
	return spans
}
