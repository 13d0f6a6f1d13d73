package hfile

import (
	"bytes"
	"io"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Compression facade", func() {
	roundTrip := func(c Compression, payload []byte) []byte {
		var buf bytes.Buffer
		handle, err := acquireCompressor(c, &buf)
		Expect(err).NotTo(HaveOccurred())
		_, err = handle.w.Write(payload)
		Expect(err).NotTo(HaveOccurred())
		Expect(handle.finish()).To(Succeed())

		decomp, finish, err := acquireDecompressor(c, bytes.NewReader(buf.Bytes()))
		Expect(err).NotTo(HaveOccurred())
		defer finish()
		out, err := io.ReadAll(decomp)
		Expect(err).NotTo(HaveOccurred())
		return out
	}

	It("round-trips payloads with every codec", func() {
		payload := bytes.Repeat([]byte("the quick brown fox "), 200)
		for _, c := range []Compression{CompressionNone, CompressionSnappy, CompressionGzip, CompressionZstd} {
			Expect(roundTrip(c, payload)).To(Equal(payload), "codec %s", c)
		}
	})

	It("round-trips empty payloads", func() {
		Expect(roundTrip(CompressionSnappy, nil)).To(BeEmpty())
	})

	It("rejects an unknown ordinal", func() {
		_, err := compressionByOrdinal(99)
		Expect(err).To(MatchError(ErrUnknownCodec))
	})

	It("reuses pooled writers across acquisitions", func() {
		var buf1, buf2 bytes.Buffer
		h1, err := acquireCompressor(CompressionGzip, &buf1)
		Expect(err).NotTo(HaveOccurred())
		Expect(h1.finish()).To(Succeed())

		h2, err := acquireCompressor(CompressionGzip, &buf2)
		Expect(err).NotTo(HaveOccurred())
		_, err = h2.w.Write([]byte("hi"))
		Expect(err).NotTo(HaveOccurred())
		Expect(h2.finish()).To(Succeed())
		Expect(buf2.Len()).To(BeNumerically(">", 0))
	})
})
