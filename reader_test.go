package hfile_test

import (
	"bytes"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sztony/hfile"
)

var _ = Describe("Reader", func() {
	var subject *hfile.Reader

	BeforeEach(func() {
		var err error
		subject, err = seedReader(500)
		Expect(err).NotTo(HaveOccurred())
	})

	It("loads entry count and key bounds on open", func() {
		Expect(subject.EntryCount()).To(Equal(500))
		Expect(subject.GetFirstKey()).To(Equal([]byte("key-00000")))
		Expect(subject.GetLastKey()).To(Equal([]byte("key-00499")))
	})

	It("computes a midkey within the file's key range", func() {
		mid, err := subject.Midkey()
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes.Compare(mid, subject.GetFirstKey())).To(BeNumerically(">=", 0))
		Expect(bytes.Compare(mid, subject.GetLastKey())).To(BeNumerically("<=", 0))
	})

	It("exposes the comparator identity via FileInfo", func() {
		v, ok := subject.FileInfo().Get([]byte("hfile.COMPARATOR"))
		Expect(ok).To(BeTrue())
		Expect(string(v)).To(Equal(hfile.DefaultComparatorName))
	})

	It("returns nil for a meta block that was never written", func() {
		v, err := subject.GetMetaBlock("does-not-exist")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(BeNil())
	})

	It("rejects a file with a corrupted trailer magic", func() {
		buf, err := seedFile(10, nil)
		Expect(err).NotTo(HaveOccurred())
		corrupted := buf.Bytes()
		// The trailer is the last 60 bytes; its 8-byte magic comes first.
		corrupted[len(corrupted)-60] ^= 0xff
		_, err = hfile.NewReader(bytes.NewReader(corrupted), int64(len(corrupted)), nil)
		Expect(err).To(MatchError(hfile.ErrBadMagic))
	})

	It("round-trips a named meta block", func() {
		buf := new(bytes.Buffer)
		w := hfile.NewWriter(buf, nil)
		Expect(w.Append([]byte("a"), []byte("1"))).To(Succeed())
		w.AppendMetaBlock("stats", []byte("some metadata payload"))
		Expect(w.Close()).To(Succeed())

		rdr, err := hfile.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()), nil)
		Expect(err).NotTo(HaveOccurred())
		v, err := rdr.GetMetaBlock("stats")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal([]byte("some metadata payload")))
	})
})
