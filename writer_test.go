package hfile_test

import (
	"bytes"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sztony/hfile"
)

var _ = Describe("Writer", func() {
	var buf *bytes.Buffer
	var subject *hfile.Writer

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		subject = hfile.NewWriter(buf, nil)
	})

	It("writes an empty file with just a fileinfo block and a trailer", func() {
		Expect(subject.Close()).To(Succeed())
		Expect(buf.Len()).To(BeNumerically(">", 0))
	})

	It("prevents out-of-order appends", func() {
		Expect(subject.Append([]byte("b"), []byte("1"))).To(Succeed())
		err := subject.Append([]byte("a"), []byte("2"))
		Expect(err).To(MatchError(hfile.ErrOutOfOrder))
		Expect(subject.Append([]byte("b"), []byte("3"))).To(MatchError(hfile.ErrOutOfOrder))
		Expect(subject.Append([]byte("c"), []byte("4"))).To(Succeed())
		Expect(subject.Close()).To(Succeed())
	})

	It("rejects an empty key", func() {
		Expect(subject.Append(nil, []byte("x"))).To(MatchError(hfile.ErrInvalidKey))
	})

	It("rejects appends after Close", func() {
		Expect(subject.Close()).To(Succeed())
		Expect(subject.Append([]byte("a"), []byte("1"))).To(MatchError(hfile.ErrClosed))
	})

	It("rejects reserved-prefix FileInfo entries", func() {
		err := subject.AppendFileInfo([]byte("hfile.bogus"), []byte("x"))
		Expect(err).To(MatchError(hfile.ErrReservedPrefix))
	})

	It("writes many entries across several blocks", func() {
		seeded, err := seedFile(500, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(seeded.Len()).To(BeNumerically(">", 0))

		rdr, err := hfile.NewReader(bytes.NewReader(seeded.Bytes()), int64(seeded.Len()), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(rdr.EntryCount()).To(Equal(500))
		Expect(rdr.GetFirstKey()).To(Equal([]byte("key-00000")))
		Expect(rdr.GetLastKey()).To(Equal([]byte("key-00499")))
	})

	It("closes idempotently", func() {
		Expect(subject.Append([]byte("a"), []byte("1"))).To(Succeed())
		Expect(subject.Close()).To(Succeed())
		Expect(subject.Close()).To(Succeed())
	})
})
