package geoblock_test

import (
	"github.com/bsm/geoblock"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("DataMerge", func() {
	var ds *geoblock.DataStore
	var subject *geoblock.DataMerge
	var handle *geoblock.Handle
	var rowsA, rowsB []geoblock.Row
	var addrA, addrB uint64

	BeforeEach(func() {
		ds, _, _ = openStore(&geoblock.Options{MaxDataSize: 12})
		handle = geoblock.NewHandle(ds)
		subject = geoblock.NewDataMerge(handle)

		var err error
		rowsA = seedRows(5, 0)
		addrA, err = ds.Batch(rowsA)
		Expect(err).NotTo(HaveOccurred())

		rowsB = seedRows(6, 20)
		addrB, err = ds.Batch(rowsB)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should pass through single addresses", func() {
		size, err := ds.Bytes()
		Expect(err).NotTo(HaveOccurred())

		Expect(subject.Batch([]geoblock.MergeRow{{Addr: addrB}})).To(Equal(addrB))
		Expect(ds.Bytes()).To(Equal(size))
	})

	It("should merge blocks", func() {
		addrC, err := subject.Batch([]geoblock.MergeRow{{Addr: addrA}, {Addr: addrB}})
		Expect(err).NotTo(HaveOccurred())
		Expect(addrC).NotTo(Equal(addrA))
		Expect(addrC).NotTo(Equal(addrB))

		records, err := ds.List(addrC)
		Expect(err).NotTo(HaveOccurred())
		Expect(rowsOf(records)).To(Equal(append(append([]geoblock.Row{}, rowsA...), rowsB...)))

		entries, err := ds.Range().List()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(3))
		Expect(entries[2].Offset).To(Equal(addrC))
		Expect(entries[2].Count).To(Equal(uint64(11)))
	})

	It("should only merge live rows", func() {
		Expect(ds.Delete([]geoblock.Location{
			geoblock.BlockLocation(addrA, 0),
			geoblock.BlockLocation(addrB, 5),
		})).To(Succeed())

		addrC, err := subject.Batch([]geoblock.MergeRow{{Addr: addrA}, {Addr: addrB}})
		Expect(err).NotTo(HaveOccurred())

		records, err := ds.List(addrC)
		Expect(err).NotTo(HaveOccurred())
		Expect(rowsOf(records)).To(Equal(append(append([]geoblock.Row{}, rowsA[1:]...), rowsB[:5]...)))
		Expect(indexesOf(records)).To(Equal([]uint64{0, 1, 2, 3, 4, 5, 6, 7, 8}))
	})

	It("should enforce capacity", func() {
		addrD, err := ds.Batch(seedRows(2, 40))
		Expect(err).NotTo(HaveOccurred())
		size, err := ds.Bytes()
		Expect(err).NotTo(HaveOccurred())

		_, err = subject.Batch([]geoblock.MergeRow{{Addr: addrA}, {Addr: addrB}, {Addr: addrD}})
		Expect(causeOf(err)).To(Equal(geoblock.ErrCapacity))
		Expect(ds.Bytes()).To(Equal(size))
	})

	It("should propagate read errors", func() {
		size, err := ds.Bytes()
		Expect(err).NotTo(HaveOccurred())

		_, err = subject.Batch([]geoblock.MergeRow{{Addr: addrA}, {Addr: size + 100}})
		Expect(causeOf(err)).To(Equal(geoblock.ErrInvalidData))
	})

	It("should prevent reentry", func() {
		var inner error
		Expect(handle.Do(func(*geoblock.DataStore) error {
			_, inner = subject.Batch([]geoblock.MergeRow{{Addr: addrA}, {Addr: addrB}})
			return nil
		})).To(Succeed())
		Expect(inner).To(Equal(geoblock.ErrBusy))

		// the handle is released afterwards
		_, err := subject.Batch([]geoblock.MergeRow{{Addr: addrA}, {Addr: addrB}})
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("Handle", func() {
	It("should grant exclusive access", func() {
		ds, _, _ := openStore(nil)
		handle := geoblock.NewHandle(ds)

		var seen *geoblock.DataStore
		Expect(handle.Do(func(s *geoblock.DataStore) error {
			seen = s
			return handle.Do(func(*geoblock.DataStore) error { return nil })
		})).To(Equal(geoblock.ErrBusy))
		Expect(seen).To(BeIdenticalTo(ds))

		Expect(handle.Do(func(*geoblock.DataStore) error { return nil })).To(Succeed())
	})
})
