package hfile

import (
	"io"
	"sort"
)

// blockIndex is the in-memory sorted array of (first-key-of-block,
// file-offset, uncompressed-size) triples used to binary-search for the
// block that may contain a given key. Two independent instances exist per
// file: one for data blocks (keyed under the file's comparator) and one
// for meta blocks (always keyed lexicographically, regardless of the
// file's comparator).
type blockIndex struct {
	firstKeys  [][]byte
	offsets    []int64
	sizes      []int32
	comparator Comparator

	// heapBytes is a running estimate of the index's memory footprint,
	// useful to callers doing memory-pressure accounting.
	heapBytes int64
}

func newBlockIndex(cmp Comparator) *blockIndex {
	return &blockIndex{comparator: cmp, heapBytes: 4 * 8}
}

func (bi *blockIndex) count() int { return len(bi.firstKeys) }

func (bi *blockIndex) isEmpty() bool { return len(bi.firstKeys) == 0 }

// add appends a new entry. Entries must be added in increasing key order;
// the writer already guarantees this since blocks are produced in append
// order.
func (bi *blockIndex) add(firstKey []byte, offset int64, size int32) {
	bi.firstKeys = append(bi.firstKeys, firstKey)
	bi.offsets = append(bi.offsets, offset)
	bi.sizes = append(bi.sizes, size)
	bi.heapBytes += int64(len(firstKey)) + 12
}

// blockContainingKey returns the index of the block that may contain key,
// or -1 if key precedes every block's first key. Because the index stores
// each block's *first* key, a non-exact binary-search hit returns the
// predecessor block: the key we want, if present at all, is in the block
// whose first key is the largest one not exceeding key.
func (bi *blockIndex) blockContainingKey(key []byte) int {
	n := len(bi.firstKeys)
	ins := sort.Search(n, func(i int) bool {
		return bi.comparator(bi.firstKeys[i], key) >= 0
	})
	if ins < n && bi.comparator(bi.firstKeys[ins], key) == 0 {
		return ins
	}
	if ins == 0 {
		return -1
	}
	return ins - 1
}

// midkey returns an approximate median key, taken from block boundaries
// only. It fails with ErrEmpty if the index has no entries.
func (bi *blockIndex) midkey() ([]byte, error) {
	if bi.isEmpty() {
		return nil, ErrEmpty
	}
	return bi.firstKeys[(bi.count()-1)/2], nil
}

// serialize writes nothing if the index is empty. Otherwise it writes the
// index magic followed by, per entry, an 8-byte offset, a 4-byte
// uncompressed size and a length-prefixed key.
func (bi *blockIndex) serialize(w io.Writer) error {
	if bi.count() == 0 {
		return nil
	}
	if _, err := w.Write(indexBlockMagic); err != nil {
		return err
	}
	for i := range bi.firstKeys {
		if err := writeUint64(w, uint64(bi.offsets[i])); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(bi.sizes[i])); err != nil {
			return err
		}
		if err := writeByteArray(w, bi.firstKeys[i]); err != nil {
			return err
		}
	}
	return nil
}

// readBlockIndex reads the index written by serialize, located at offset
// with count entries. A count of zero means no index was written at all,
// in which case no I/O is performed.
func readBlockIndex(cmp Comparator, src io.ReaderAt, offset int64, count int) (*blockIndex, error) {
	bi := newBlockIndex(cmp)
	if count == 0 {
		return bi, nil
	}

	s := &readerAtStream{src: src, pos: offset}
	var magic [8]byte
	if err := readFull(s, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != string(indexBlockMagic) {
		return nil, ErrBadMagic
	}

	for i := 0; i < count; i++ {
		off, err := readUint64(s)
		if err != nil {
			return nil, err
		}
		size, err := readUint32(s)
		if err != nil {
			return nil, err
		}
		key, err := readByteArray(s)
		if err != nil {
			return nil, err
		}
		bi.add(key, int64(off), int32(size))
	}
	return bi, nil
}
