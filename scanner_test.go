package hfile_test

import (
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sztony/hfile"
)

var _ = Describe("Scanner", func() {
	var rdr *hfile.Reader
	var scanner *hfile.Scanner

	// 200 entries keyed "key-00000".."key-00398", even numbers only, so
	// seeks can be tested against both present and absent keys.
	BeforeEach(func() {
		var err error
		buf, err := seedFileEven(200, &hfile.WriterOptions{BlockSize: 256})
		Expect(err).NotTo(HaveOccurred())
		rdr, err = hfile.NewReader(newReaderAt(buf), int64(buf.Len()), nil)
		Expect(err).NotTo(HaveOccurred())
		scanner = rdr.NewScanner()
	})

	It("reports unseeked access as an error", func() {
		_, err := scanner.GetKey()
		Expect(err).To(MatchError(hfile.ErrNotSeeked))
	})

	It("seeks to the first entry", func() {
		ok, err := scanner.SeekToFirst()
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		key, err := scanner.GetKey()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(key)).To(Equal("key-00000"))
	})

	It("iterates every entry in order via Next", func() {
		ok, err := scanner.SeekToFirst()
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())

		count := 0
		var prev string
		for {
			key, err := scanner.GetKey()
			Expect(err).NotTo(HaveOccurred())
			if count > 0 {
				Expect(string(key) > prev).To(BeTrue())
			}
			prev = string(key)
			count++
			ok, err := scanner.Next()
			Expect(err).NotTo(HaveOccurred())
			if !ok {
				break
			}
		}
		Expect(count).To(Equal(200))
	})

	It("SeekTo returns 0 and lands on an exact match", func() {
		result, err := scanner.SeekTo([]byte("key-00050"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(0))
		key, err := scanner.GetKey()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(key)).To(Equal("key-00050"))
	})

	It("SeekTo returns 1 and lands on the predecessor when the exact key is absent", func() {
		result, err := scanner.SeekTo([]byte("key-00051"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(1))
		key, err := scanner.GetKey()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(key)).To(Equal("key-00050"))
	})

	It("finds a predecessor that is the last (and only) key of its own block", func() {
		// BlockSize: 1 forces exactly one entry per block, so a
		// predecessor match is always the sole -- and therefore last --
		// entry of a block distinct from the block blockContainingKey
		// would otherwise land on for a same-block scan.
		buf, err := seedFile(10, &hfile.WriterOptions{BlockSize: 1})
		Expect(err).NotTo(HaveOccurred())
		rdr, err := hfile.NewReader(newReaderAt(buf), int64(buf.Len()), nil)
		Expect(err).NotTo(HaveOccurred())
		sc := rdr.NewScanner()

		result, err := sc.SeekTo([]byte("key-00005a"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(1))
		key, err := sc.GetKey()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(key)).To(Equal("key-00005"))
	})

	It("SeekTo returns 1 and lands on the last key when seeking past the end", func() {
		result, err := scanner.SeekTo([]byte("zzzzzzzz"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(1))
		key, err := scanner.GetKey()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(key)).To(Equal("key-00398"))
	})

	It("SeekTo returns -1 and leaves the scanner Unseeked when the key precedes the file", func() {
		result, err := scanner.SeekTo([]byte("a"))
		Expect(err).NotTo(HaveOccurred())
		Expect(result).To(Equal(-1))
		_, err = scanner.GetKey()
		Expect(err).To(MatchError(hfile.ErrNotSeeked))
	})

	It("SeekBefore lands on the largest strictly smaller key", func() {
		ok, err := scanner.SeekBefore([]byte("key-00050"))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		key, err := scanner.GetKey()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(key)).To(Equal("key-00048"))
	})

	It("SeekBefore reports false at or before the first key", func() {
		ok, err := scanner.SeekBefore([]byte("key-00000"))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("SeekBefore lands on the last key when seeking past the end", func() {
		ok, err := scanner.SeekBefore([]byte("zzzzzzzz"))
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		key, err := scanner.GetKey()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(key)).To(Equal(fmt.Sprintf("key-%05d", 398)))
	})
})
