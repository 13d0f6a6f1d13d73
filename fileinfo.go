package hfile

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// reservedPrefix marks FileInfo keys owned by this package. User-supplied
// keys may not use it, case-insensitively.
const reservedPrefix = "hfile."

var (
	reservedLastKey      = []byte(reservedPrefix + "LASTKEY")
	reservedAvgKeyLen    = []byte(reservedPrefix + "AVG_KEY_LEN")
	reservedAvgValueLen  = []byte(reservedPrefix + "AVG_VALUE_LEN")
	reservedComparator   = []byte(reservedPrefix + "COMPARATOR")
)

// FileInfo is the small ordered metadata map persisted with every file,
// between the data/meta blocks and the block indices. Entries are kept
// sorted by key so that serialization is deterministic regardless of
// insertion order.
type FileInfo struct {
	keys   [][]byte
	values [][]byte
}

func newFileInfo() *FileInfo {
	return &FileInfo{}
}

// Put inserts or overwrites an entry. checkPrefix rejects user-supplied
// keys beginning with the reserved "hfile." prefix (case-insensitively);
// internal callers writing reserved entries pass checkPrefix=false.
func (fi *FileInfo) put(k, v []byte, checkPrefix bool) error {
	if k == nil || v == nil {
		return ErrInvalidValue
	}
	if checkPrefix && strings.HasPrefix(strings.ToLower(string(k)), reservedPrefix) {
		return fmt.Errorf("%w: %q", ErrReservedPrefix, k)
	}

	i := sort.Search(len(fi.keys), func(i int) bool {
		return bytes.Compare(fi.keys[i], k) >= 0
	})
	if i < len(fi.keys) && bytes.Equal(fi.keys[i], k) {
		fi.values[i] = v
		return nil
	}
	fi.keys = append(fi.keys, nil)
	fi.values = append(fi.values, nil)
	copy(fi.keys[i+1:], fi.keys[i:])
	copy(fi.values[i+1:], fi.values[i:])
	fi.keys[i] = k
	fi.values[i] = v
	return nil
}

// Put adds a user-supplied entry, rejecting reserved-prefix keys.
func (fi *FileInfo) Put(k, v []byte) error {
	return fi.put(k, v, true)
}

// Get returns the value for k, if present.
func (fi *FileInfo) Get(k []byte) ([]byte, bool) {
	i := sort.Search(len(fi.keys), func(i int) bool {
		return bytes.Compare(fi.keys[i], k) >= 0
	})
	if i < len(fi.keys) && bytes.Equal(fi.keys[i], k) {
		return fi.values[i], true
	}
	return nil, false
}

// Len returns the number of entries.
func (fi *FileInfo) Len() int { return len(fi.keys) }

// serialize writes a 4-byte big-endian count followed by, for each entry
// in key order, a length-prefixed key and a length-prefixed value.
func (fi *FileInfo) serialize(w io.Writer) error {
	if err := writeUint32(w, uint32(len(fi.keys))); err != nil {
		return err
	}
	for i := range fi.keys {
		if err := writeByteArray(w, fi.keys[i]); err != nil {
			return err
		}
		if err := writeByteArray(w, fi.values[i]); err != nil {
			return err
		}
	}
	return nil
}

// deserializeFileInfo reads the format serialize writes.
func deserializeFileInfo(r io.Reader) (*FileInfo, error) {
	count, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	fi := &FileInfo{
		keys:   make([][]byte, 0, count),
		values: make([][]byte, 0, count),
	}
	for i := uint32(0); i < count; i++ {
		k, err := readByteArray(r)
		if err != nil {
			return nil, err
		}
		v, err := readByteArray(r)
		if err != nil {
			return nil, err
		}
		fi.keys = append(fi.keys, k)
		fi.values = append(fi.values, v)
	}
	return fi, nil
}

// readFileInfoAt seeks to offset and deserializes a FileInfo from src.
func readFileInfoAt(src io.ReaderAt, offset int64) (*FileInfo, error) {
	// FileInfo has no fixed size up front, so it is read through a plain
	// offset-tracking stream rather than a bounded range: the caller
	// (Reader.LoadMetadata) always reads it before the block indices that
	// immediately follow it, so over-reading past its own content simply
	// never happens -- readByteArray only ever consumes what its own
	// length prefixes call for.
	return deserializeFileInfo(&readerAtStream{src: src, pos: offset})
}

// readerAtStream adapts an io.ReaderAt into a sequential io.Reader
// starting at a given offset, advancing as it is read.
type readerAtStream struct {
	src io.ReaderAt
	pos int64
}

func (s *readerAtStream) Read(p []byte) (int, error) {
	n, err := s.src.ReadAt(p, s.pos)
	s.pos += int64(n)
	return n, err
}
