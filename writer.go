package hfile

import (
	"fmt"
	"io"
)

// WriterOptions configure a Writer. A zero-value WriterOptions (or a nil
// pointer passed to NewWriter) yields 64KiB blocks, no compression and the
// bytes.Compare comparator.
type WriterOptions struct {
	// BlockSize is the target uncompressed size in bytes of each data
	// block. Default: 64KiB.
	BlockSize int

	// Compression is the codec applied to every data and meta block
	// written. FileInfo, the block indices and the trailer are written
	// uncompressed. Default: CompressionNone.
	Compression Compression

	// Comparator orders keys. Default: bytes.Compare, registered under
	// DefaultComparatorName.
	Comparator Comparator

	// ComparatorName is the identity persisted in FileInfo so a Reader
	// can resolve the same Comparator later. Required whenever Comparator
	// is set to anything other than the default; ignored otherwise.
	ComparatorName string

	// BloomFilter is reserved for a future bloom-filter feature and
	// currently has no effect.
	BloomFilter bool
}

func (o *WriterOptions) norm() *WriterOptions {
	var oo WriterOptions
	if o != nil {
		oo = *o
	}
	if oo.BlockSize <= 0 {
		oo.BlockSize = DefaultBlockSize
	}
	if !oo.Compression.isValid() {
		oo.Compression = CompressionNone
	}
	if oo.Comparator == nil {
		oo.Comparator = defaultComparator
		oo.ComparatorName = DefaultComparatorName
	} else if oo.ComparatorName == "" {
		oo.ComparatorName = DefaultComparatorName
	}
	return &oo
}

var defaultComparator = mustResolveDefault()

func mustResolveDefault() Comparator {
	cmp, err := ResolveComparator(DefaultComparatorName)
	if err != nil {
		panic(err)
	}
	return cmp
}

// Writer accepts appended key/values in increasing key order, chunks them
// into blocks at a configured size threshold, compresses each block and
// emits the meta blocks, fileinfo, indices and trailer on Close. A Writer
// is single-use: create one, append, close it, and create a new one for
// the next file.
type Writer struct {
	w      io.Writer
	o      *WriterOptions
	offset int64

	curCount   *countingWriter
	curFinish  func() error
	blockBegin int64
	firstKey   []byte
	lastKey    []byte

	entryCount  int
	totalUBytes int64
	keyLenSum   int64
	valueLenSum int64

	blockKeys    [][]byte
	blockOffsets []int64
	blockSizes   []int32

	metaNames   [][]byte
	metaPayload [][]byte

	fileInfo *FileInfo
	closed   bool
}

// NewWriter wraps w, which the Writer never closes itself, and returns a
// Writer ready to accept appends.
func NewWriter(w io.Writer, o *WriterOptions) *Writer {
	return &Writer{
		w:        w,
		o:        o.norm(),
		fileInfo: newFileInfo(),
	}
}

func (wtr *Writer) sink() io.Writer {
	return &offsetWriter{w: wtr.w, offset: &wtr.offset}
}

// Append adds a key/value entry. Keys must be strictly greater than the
// previously appended key under the Writer's comparator.
func (wtr *Writer) Append(key, value []byte) error {
	if wtr.closed {
		return ErrClosed
	}
	if err := wtr.checkKey(key); err != nil {
		return err
	}
	if value == nil {
		return ErrInvalidValue
	}
	if err := wtr.checkBlockBoundary(); err != nil {
		return err
	}

	var hdr [8]byte
	putUint32(hdr[0:4], uint32(len(key)))
	putUint32(hdr[4:8], uint32(len(value)))
	if _, err := wtr.curCount.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := wtr.curCount.Write(key); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := wtr.curCount.Write(value); err != nil {
			return err
		}
	}

	if wtr.firstKey == nil {
		wtr.firstKey = cloneBytes(key)
	}
	wtr.lastKey = cloneBytes(key)
	wtr.entryCount++
	wtr.keyLenSum += int64(len(key))
	wtr.valueLenSum += int64(len(value))
	return nil
}

func cloneBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

func (wtr *Writer) checkKey(key []byte) error {
	if len(key) == 0 {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: length %d > %d", ErrInvalidKey, len(key), MaxKeyLength)
	}
	if wtr.lastKey != nil && wtr.o.Comparator(wtr.lastKey, key) >= 0 {
		return fmt.Errorf("%w: %q must be > %q", ErrOutOfOrder, key, wtr.lastKey)
	}
	return nil
}

// checkBlockBoundary finalizes the current block and opens a new one if
// the uncompressed bytes already written to the current block have
// reached the target size. It never splits an entry: the check runs
// before the next append, never mid-entry, so a block may exceed the
// target by one entry's worth.
func (wtr *Writer) checkBlockBoundary() error {
	if wtr.curCount != nil && wtr.curCount.n < int64(wtr.o.BlockSize) {
		return nil
	}
	if err := wtr.finishBlock(); err != nil {
		return err
	}
	return wtr.newBlock()
}

func (wtr *Writer) newBlock() error {
	wtr.blockBegin = wtr.offset
	handle, err := acquireCompressor(wtr.o.Compression, wtr.sink())
	if err != nil {
		return err
	}
	wtr.curCount = &countingWriter{w: handle.w}
	wtr.curFinish = handle.finish
	wtr.firstKey = nil
	if _, err := wtr.curCount.Write(dataBlockMagic); err != nil {
		return err
	}
	return nil
}

func (wtr *Writer) finishBlock() error {
	if wtr.curCount == nil {
		return nil
	}
	if err := wtr.curFinish(); err != nil {
		return err
	}
	size := wtr.curCount.n

	wtr.blockKeys = append(wtr.blockKeys, wtr.firstKey)
	wtr.blockOffsets = append(wtr.blockOffsets, wtr.blockBegin)
	wtr.blockSizes = append(wtr.blockSizes, int32(size))
	wtr.totalUBytes += size

	wtr.curCount = nil
	wtr.curFinish = nil
	wtr.firstKey = nil
	return nil
}

// AppendMetaBlock buffers a named meta block for emission during Close.
// Meta blocks are expensive -- one codec flush each -- so callers should
// batch unrelated small metadata into one block rather than calling this
// repeatedly.
func (wtr *Writer) AppendMetaBlock(name string, data []byte) {
	wtr.metaNames = append(wtr.metaNames, []byte(name))
	wtr.metaPayload = append(wtr.metaPayload, data)
}

// AppendFileInfo inserts a user-supplied entry into the file's FileInfo
// map. Keys beginning with the reserved "hfile." prefix (case
// insensitively) are rejected.
func (wtr *Writer) AppendFileInfo(k, v []byte) error {
	return wtr.fileInfo.Put(k, v)
}

// Close finalizes the file: the current data block, any buffered meta
// blocks, the FileInfo map, the data-block index, the meta-block index
// (if any) and the fixed trailer, in that order, then releases codec
// resources. Close is idempotent.
func (wtr *Writer) Close() error {
	if wtr.closed {
		return nil
	}
	if err := wtr.finishBlock(); err != nil {
		return err
	}

	trailer := &fixedTrailer{version: fileVersion}

	var metaOffsets []int64
	var metaSizes []int32
	if len(wtr.metaNames) > 0 {
		metaOffsets = make([]int64, len(wtr.metaNames))
		metaSizes = make([]int32, len(wtr.metaNames))
		for i := range wtr.metaNames {
			begin := wtr.offset
			metaOffsets[i] = begin
			if err := wtr.writeMetaBlock(wtr.metaPayload[i]); err != nil {
				return err
			}
			// The on-disk span is whatever writeMetaBlock actually emitted
			// (magic plus the compressed payload), not the uncompressed
			// payload length: a codec can expand small inputs.
			metaSizes[i] = int32(wtr.offset - begin)
		}
	}

	fiOffset, err := wtr.writeFileInfo()
	if err != nil {
		return err
	}
	trailer.fileinfoOffset = fiOffset

	diOffset := wtr.offset
	dataIdx := newBlockIndex(wtr.o.Comparator)
	for i := range wtr.blockKeys {
		dataIdx.add(wtr.blockKeys[i], wtr.blockOffsets[i], wtr.blockSizes[i])
	}
	if err := dataIdx.serialize(wtr.sink()); err != nil {
		return err
	}
	trailer.dataIndexOffset = diOffset
	trailer.dataIndexCount = int32(len(wtr.blockKeys))

	if len(wtr.metaNames) > 0 {
		miOffset := wtr.offset
		metaIdx := newBlockIndex(defaultComparator)
		for i := range wtr.metaNames {
			metaIdx.add(wtr.metaNames[i], metaOffsets[i], metaSizes[i])
		}
		if err := metaIdx.serialize(wtr.sink()); err != nil {
			return err
		}
		trailer.metaIndexOffset = miOffset
		trailer.metaIndexCount = int32(len(wtr.metaNames))
	}

	trailer.totalUncompressedBytes = wtr.totalUBytes
	trailer.entryCount = int32(wtr.entryCount)
	trailer.compressionCodec = int32(wtr.o.Compression)

	if err := trailer.serialize(wtr.sink()); err != nil {
		return err
	}

	wtr.closed = true
	return nil
}

func (wtr *Writer) writeMetaBlock(payload []byte) error {
	handle, err := acquireCompressor(wtr.o.Compression, wtr.sink())
	if err != nil {
		return err
	}
	if _, err := handle.w.Write(metaBlockMagic); err != nil {
		_ = handle.finish()
		return err
	}
	if _, err := handle.w.Write(payload); err != nil {
		_ = handle.finish()
		return err
	}
	return handle.finish()
}

func (wtr *Writer) writeFileInfo() (int64, error) {
	if wtr.lastKey != nil {
		if err := wtr.fileInfo.put(reservedLastKey, wtr.lastKey, false); err != nil {
			return 0, err
		}
	}

	avgKeyLen, avgValueLen := 0, 0
	if wtr.entryCount > 0 {
		avgKeyLen = int(wtr.keyLenSum / int64(wtr.entryCount))
		// Corrected per spec: computed from the value-length accumulator,
		// not (as the original mistakenly does) from the key-length one.
		avgValueLen = int(wtr.valueLenSum / int64(wtr.entryCount))
	}
	var b [4]byte
	putUint32(b[:], uint32(avgKeyLen))
	if err := wtr.fileInfo.put(reservedAvgKeyLen, cloneBytes(b[:]), false); err != nil {
		return 0, err
	}
	putUint32(b[:], uint32(avgValueLen))
	if err := wtr.fileInfo.put(reservedAvgValueLen, cloneBytes(b[:]), false); err != nil {
		return 0, err
	}
	if err := wtr.fileInfo.put(reservedComparator, []byte(wtr.o.ComparatorName), false); err != nil {
		return 0, err
	}

	pos := wtr.offset
	if err := wtr.fileInfo.serialize(wtr.sink()); err != nil {
		return 0, err
	}
	return pos, nil
}
