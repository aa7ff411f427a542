package storage_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/bsm/geoblock/storage"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// sharedBehavior runs the Storage contract against a backend.
func sharedBehavior(factory func() storage.Storage) {
	var subject storage.Storage

	BeforeEach(func() {
		subject = factory()
	})

	It("should start empty", func() {
		Expect(subject.IsEmpty()).To(BeTrue())
		Expect(subject.Len()).To(Equal(int64(0)))
		Expect(subject.Read(0, 10)).To(BeEmpty())
	})

	It("should write and read", func() {
		Expect(subject.Write(0, []byte("hello"))).To(Succeed())
		Expect(subject.Write(5, []byte(" world"))).To(Succeed())
		Expect(subject.Len()).To(Equal(int64(11)))
		Expect(subject.IsEmpty()).To(BeFalse())
		Expect(subject.Read(0, 11)).To(Equal([]byte("hello world")))
		Expect(subject.Read(6, 100)).To(Equal([]byte("world")))
	})

	It("should grow with zeros", func() {
		Expect(subject.Write(4, []byte("x"))).To(Succeed())
		Expect(subject.Read(0, 5)).To(Equal([]byte{0, 0, 0, 0, 'x'}))
	})

	It("should delete", func() {
		Expect(subject.Write(0, []byte("hello world"))).To(Succeed())
		Expect(subject.Delete(3, 100)).To(Succeed())
		Expect(subject.Len()).To(Equal(int64(11)))
		Expect(subject.Read(0, 5)).To(Equal([]byte{'h', 'e', 'l', 0, 0}))
	})

	It("should truncate", func() {
		Expect(subject.Write(0, []byte("hello world"))).To(Succeed())
		Expect(subject.Truncate(5)).To(Succeed())
		Expect(subject.Read(0, 11)).To(Equal([]byte("hello")))
		Expect(subject.Truncate(7)).To(Succeed())
		Expect(subject.Read(0, 11)).To(Equal([]byte{'h', 'e', 'l', 'l', 'o', 0, 0}))
	})

	It("should stream ranges", func() {
		Expect(subject.Write(0, []byte("hello world"))).To(Succeed())

		buf := new(bytes.Buffer)
		Expect(subject.(storage.ReaderTo).ReadTo(6, 5, buf)).To(Succeed())
		Expect(buf.String()).To(Equal("world"))
	})
}

var _ = Describe("Memory", func() {
	sharedBehavior(func() storage.Storage { return new(storage.Memory) })

	It("should copy seed data", func() {
		seed := []byte("abc")
		subject := storage.NewMemory(seed)
		seed[0] = 'x'
		Expect(subject.Read(0, 3)).To(Equal([]byte("abc")))
	})
})

var _ = Describe("File", func() {
	var dir string
	var files []*storage.File

	BeforeEach(func() {
		var err error
		dir, err = ioutil.TempDir("", "geoblock-storage")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		for _, f := range files {
			_ = f.Close()
		}
		files = files[:0]
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	sharedBehavior(func() storage.Storage {
		f, err := storage.OpenFile(filepath.Join(dir, "data"))
		Expect(err).NotTo(HaveOccurred())
		files = append(files, f)
		return f
	})

	It("should persist across opens", func() {
		name := filepath.Join(dir, "persist")
		f, err := storage.OpenFile(name)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Write(0, []byte("durable"))).To(Succeed())
		Expect(f.Sync()).To(Succeed())
		Expect(f.Close()).To(Succeed())

		f, err = storage.OpenFile(name)
		Expect(err).NotTo(HaveOccurred())
		files = append(files, f)
		Expect(f.Read(0, 7)).To(Equal([]byte("durable")))
	})
})
