package hfile

import (
	"bytes"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Comparator registry", func() {
	It("registers the default comparator", func() {
		cmp, err := ResolveComparator(DefaultComparatorName)
		Expect(err).NotTo(HaveOccurred())
		Expect(cmp([]byte("a"), []byte("b"))).To(BeNumerically("<", 0))
	})

	It("rejects unknown names", func() {
		_, err := ResolveComparator("no-such-comparator")
		Expect(err).To(MatchError(ErrUnknownComparator))
	})

	It("resolves a newly registered comparator", func() {
		reverse := func(a, b []byte) int { return bytes.Compare(b, a) }
		RegisterComparator("reverse-test", reverse)
		cmp, err := ResolveComparator("reverse-test")
		Expect(err).NotTo(HaveOccurred())
		Expect(cmp([]byte("a"), []byte("b"))).To(BeNumerically(">", 0))
	})
})
