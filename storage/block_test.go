package storage_test

import (
	"math/rand"

	"github.com/bsm/geoblock/storage"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Block", func() {
	var subject *storage.Block

	BeforeEach(func() {
		subject = storage.NewBlock(16)
	})

	It("should init empty", func() {
		Expect(subject.Size()).To(Equal(16))
		Expect(subject.Missing()).To(Equal(16))
		Expect(subject.HaveAll(0, 1)).To(BeFalse())
		Expect(subject.HaveAll(3, 3)).To(BeTrue())
		Expect(subject.Writes()).To(BeEmpty())
	})

	It("should init from data", func() {
		blk := storage.BlockFromData([]byte("0123456789abcdef"))
		Expect(blk.Missing()).To(Equal(0))
		Expect(blk.HaveAll(0, 16)).To(BeTrue())
		Expect(blk.Writes()).To(Equal([]storage.Span{
			{Offset: 0, Data: []byte("0123456789abcdef")},
		}))
	})

	It("should track partial writes", func() {
		subject.Write(2, []byte("abc"))
		Expect(subject.Missing()).To(Equal(13))
		Expect(subject.HaveAll(2, 5)).To(BeTrue())
		Expect(subject.HaveAll(1, 5)).To(BeFalse())
		Expect(subject.HaveAll(2, 6)).To(BeFalse())

		subject.Write(3, []byte("XYZ"))
		Expect(subject.Missing()).To(Equal(12))
		Expect(subject.Bytes()[:7]).To(Equal([]byte{0, 0, 'a', 'X', 'Y', 'Z', 0}))
	})

	It("should not count overwrites", func() {
		subject.Write(0, []byte("abcd"))
		subject.Write(0, []byte("efgh"))
		Expect(subject.Missing()).To(Equal(12))
	})

	It("should coalesce writes", func() {
		subject.Write(1, []byte("ab"))
		subject.Write(3, []byte("cd"))
		subject.Write(8, []byte("xy"))
		subject.Write(14, []byte("zz"))
		Expect(subject.Writes()).To(Equal([]storage.Span{
			{Offset: 1, Data: []byte("abcd")},
			{Offset: 8, Data: []byte("xy")},
			{Offset: 14, Data: []byte("zz")},
		}))
	})

	It("should merge around existing writes", func() {
		subject.Write(4, []byte("WXYZ"))
		subject.Merge([]byte("0123456789abcdef"))
		Expect(subject.Missing()).To(Equal(0))
		Expect(subject.Bytes()).To(Equal([]byte("0123WXYZ89abcdef")))
		Expect(subject.HaveAll(0, 16)).To(BeTrue())
	})

	It("should merge short data", func() {
		subject.Write(0, []byte("ab"))
		subject.Merge([]byte("0123"))
		Expect(subject.Missing()).To(Equal(12))
		Expect(subject.HaveAll(0, 4)).To(BeTrue())
		Expect(subject.Bytes()[:4]).To(Equal([]byte("ab23")))

		subject.Merge([]byte("0123"))
		Expect(subject.Missing()).To(Equal(12))
	})

	It("should converge regardless of write order", func() {
		rnd := rand.New(rand.NewSource(1))
		for n := 0; n < 100; n++ {
			blk := storage.NewBlock(64)
			want := make([]byte, 64)
			rnd.Read(want)

			for blk.Missing() != 0 {
				off := rnd.Intn(64)
				end := off + 1 + rnd.Intn(64-off)
				blk.Write(off, want[off:end])
			}
			Expect(blk.HaveAll(0, 64)).To(BeTrue())
			Expect(blk.Bytes()).To(Equal(want))
		}
	})

	It("should report exact covered ranges", func() {
		rnd := rand.New(rand.NewSource(2))
		for n := 0; n < 100; n++ {
			blk := storage.NewBlock(64)
			covered := make([]bool, 64)

			for k := rnd.Intn(6); k >= 0; k-- {
				off := rnd.Intn(64)
				end := off + 1 + rnd.Intn(1+(64-off)/4)
				data := make([]byte, end-off)
				for i := range data {
					data[i] = byte(off + i)
					covered[off+i] = true
				}
				blk.Write(off, data)
			}

			seen := make([]bool, 64)
			prevEnd := -1
			for _, span := range blk.Writes() {
				Expect(span.Offset).To(BeNumerically(">", prevEnd), "spans must be disjoint and maximal")
				for i, c := range span.Data {
					Expect(seen[span.Offset+i]).To(BeFalse())
					Expect(c).To(Equal(byte(span.Offset + i)))
					seen[span.Offset+i] = true
				}
				prevEnd = span.Offset + len(span.Data)
			}
			Expect(seen).To(Equal(covered))
		}
	})
})
