package hfile

import (
	"io"

	"github.com/cespare/xxhash/v2"
)

// ReaderOptions configure a Reader.
type ReaderOptions struct {
	// Name identifies the file for cache-key derivation. Two Readers
	// opened with the same Name share cache entries if they also share a
	// Cache; this lets callers reopen the same underlying file (e.g.
	// after a process restart) without invalidating a warm cache.
	Name string

	// Cache is consulted and populated as data blocks are decoded. Nil
	// disables caching.
	Cache BlockCache
}

// Reader gives random-access read access to a file written by Writer. A
// Reader must have LoadMetadata called before any other method is used;
// NewReader does this automatically.
type Reader struct {
	src   io.ReaderAt
	size  int64
	name  string
	fid   uint64
	cache BlockCache

	comparator     Comparator
	comparatorName string
	compression    Compression

	trailer   *fixedTrailer
	fileInfo  *FileInfo
	dataIndex *blockIndex
	metaIndex *blockIndex

	firstKey []byte
	lastKey  []byte
	loaded   bool
}

// NewReader opens src, which has the given total size, and loads its
// metadata (trailer, FileInfo and both block indices) eagerly.
func NewReader(src io.ReaderAt, size int64, o *ReaderOptions) (*Reader, error) {
	var oo ReaderOptions
	if o != nil {
		oo = *o
	}
	rdr := &Reader{
		src:   src,
		size:  size,
		name:  oo.Name,
		fid:   xxhash.Sum64String(oo.Name),
		cache: oo.Cache,
	}
	if err := rdr.LoadMetadata(); err != nil {
		return nil, err
	}
	return rdr, nil
}

// LoadMetadata reads the trailer, resolves the comparator and compression
// codec, and loads the FileInfo map and both block indices into memory.
// NewReader calls this once; exposed separately so a caller holding a
// Reader built some other way can (re)load explicitly.
func (rdr *Reader) LoadMetadata() error {
	trailer, err := readTrailerAt(rdr.src, rdr.size)
	if err != nil {
		return err
	}
	rdr.trailer = trailer

	compression, err := compressionByOrdinal(trailer.compressionCodec)
	if err != nil {
		return err
	}
	rdr.compression = compression

	fi, err := readFileInfoAt(rdr.src, trailer.fileinfoOffset)
	if err != nil {
		return err
	}
	rdr.fileInfo = fi

	comparatorName := DefaultComparatorName
	if v, ok := fi.Get(reservedComparator); ok {
		comparatorName = string(v)
	}
	cmp, err := ResolveComparator(comparatorName)
	if err != nil {
		return err
	}
	rdr.comparator = cmp
	rdr.comparatorName = comparatorName

	if v, ok := fi.Get(reservedLastKey); ok {
		rdr.lastKey = v
	}

	dataIdx, err := readBlockIndex(cmp, rdr.src, trailer.dataIndexOffset, int(trailer.dataIndexCount))
	if err != nil {
		return err
	}
	rdr.dataIndex = dataIdx
	if dataIdx.count() > 0 {
		rdr.firstKey = dataIdx.firstKeys[0]
	}

	if trailer.metaIndexCount > 0 {
		metaIdx, err := readBlockIndex(defaultComparator, rdr.src, trailer.metaIndexOffset, int(trailer.metaIndexCount))
		if err != nil {
			return err
		}
		rdr.metaIndex = metaIdx
	} else {
		rdr.metaIndex = newBlockIndex(defaultComparator)
	}

	rdr.loaded = true
	return nil
}

// EntryCount returns the number of key/value entries in the file.
func (rdr *Reader) EntryCount() int { return int(rdr.trailer.entryCount) }

// GetFirstKey returns the smallest key in the file, or nil if the file has
// no data blocks.
func (rdr *Reader) GetFirstKey() []byte { return rdr.firstKey }

// GetLastKey returns the largest key in the file, or nil if the file has
// no data blocks.
func (rdr *Reader) GetLastKey() []byte { return rdr.lastKey }

// Midkey returns an approximate median key, derived only from data-block
// boundaries.
func (rdr *Reader) Midkey() ([]byte, error) {
	return rdr.dataIndex.midkey()
}

// FileInfo returns the file's metadata map, including reserved entries.
func (rdr *Reader) FileInfo() *FileInfo { return rdr.fileInfo }

// GetMetaBlock returns the decoded payload of the named meta block, or a
// nil slice and nil error if no such block exists.
func (rdr *Reader) GetMetaBlock(name string) ([]byte, error) {
	if rdr.metaIndex.isEmpty() {
		return nil, nil
	}
	idx := rdr.metaIndex.blockContainingKey([]byte(name))
	if idx < 0 {
		return nil, nil
	}
	key := rdr.metaIndex.firstKeys[idx]
	if !bytesEqual(key, []byte(name)) {
		return nil, nil
	}

	offset := rdr.metaIndex.offsets[idx]
	size := rdr.metaIndex.sizes[idx]
	raw, err := rdr.readRawBlock(offset, int64(size))
	if err != nil {
		return nil, err
	}
	if len(raw) < len(metaBlockMagic) || string(raw[:len(metaBlockMagic)]) != string(metaBlockMagic) {
		return nil, ErrBadMagic
	}
	return raw[len(metaBlockMagic):], nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// onDiskBlockSize computes how many compressed bytes a data block at index
// i occupies on disk. The writer never records this directly; it is
// derived from the gap to whatever section follows the block:
//   - another data block, when i is not the last one;
//   - the start of the meta-block section, when meta blocks exist;
//   - the start of the FileInfo section, otherwise.
func (rdr *Reader) onDiskBlockSize(i int) int64 {
	if i < rdr.dataIndex.count()-1 {
		return rdr.dataIndex.offsets[i+1] - rdr.dataIndex.offsets[i]
	}
	if rdr.trailer.metaIndexCount > 0 {
		return rdr.firstMetaOffset() - rdr.dataIndex.offsets[i]
	}
	return rdr.trailer.fileinfoOffset - rdr.dataIndex.offsets[i]
}

func (rdr *Reader) firstMetaOffset() int64 {
	// Meta blocks are laid out back to back starting right after the last
	// data block; the meta index only records their offsets individually,
	// so the first one (in write order, which is append order) begins the
	// section.
	min := int64(-1)
	for _, off := range rdr.metaIndex.offsets {
		if min == -1 || off < min {
			min = off
		}
	}
	if min == -1 {
		return rdr.trailer.fileinfoOffset
	}
	return min
}

// readRawBlock reads n on-disk (compressed) bytes at offset and returns
// them decompressed, magic still included. It never touches the cache: it
// serves meta blocks, which are not cached, and readDataBlock, which does
// its own cache lookup around it.
func (rdr *Reader) readRawBlock(offset, n int64) ([]byte, error) {
	section := boundedRange(rdr.src, offset, n)
	decomp, finish, err := acquireDecompressor(rdr.compression, section)
	if err != nil {
		return nil, err
	}
	defer finish()
	buf, err := io.ReadAll(decomp)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// readDataBlock returns the decoded payload (magic stripped) of data
// block i, consulting and populating the cache if one is configured.
func (rdr *Reader) readDataBlock(i int) ([]byte, error) {
	key := CacheKey{FileID: rdr.fid, Block: i}
	if rdr.cache != nil {
		if buf, ok := rdr.cache.Get(key); ok {
			return buf, nil
		}
	}

	size := rdr.onDiskBlockSize(i)
	raw, err := rdr.readRawBlock(rdr.dataIndex.offsets[i], size)
	if err != nil {
		return nil, err
	}
	if len(raw) < len(dataBlockMagic) || string(raw[:len(dataBlockMagic)]) != string(dataBlockMagic) {
		return nil, ErrBadMagic
	}
	payload := raw[len(dataBlockMagic):]

	if rdr.cache != nil {
		rdr.cache.Put(key, payload)
	}
	return payload, nil
}

// NewScanner returns a Scanner over this Reader's data. The Scanner starts
// unseeked; call SeekToFirst, SeekTo or SeekBefore before reading.
func (rdr *Reader) NewScanner() *Scanner {
	return &Scanner{r: rdr, block: -1}
}
