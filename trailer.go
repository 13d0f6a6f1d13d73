package hfile

import "io"

// trailerSize is the fixed on-disk size of fixedTrailer: an 8-byte magic,
// four i64 fields and five i32 fields.
const trailerSize = 8 + 8*4 + 4*5

// fixedTrailer is the 60-byte record at end-of-file that locates every
// other section. It is the last thing a Writer emits and the first thing
// a Reader reads.
type fixedTrailer struct {
	fileinfoOffset         int64
	dataIndexOffset        int64
	dataIndexCount         int32
	metaIndexOffset        int64
	metaIndexCount         int32
	totalUncompressedBytes int64
	entryCount             int32
	compressionCodec       int32
	version                int32
}

func (t *fixedTrailer) serialize(w io.Writer) error {
	if _, err := w.Write(trailerMagic); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(t.fileinfoOffset)); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(t.dataIndexOffset)); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(t.dataIndexCount)); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(t.metaIndexOffset)); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(t.metaIndexCount)); err != nil {
		return err
	}
	if err := writeUint64(w, uint64(t.totalUncompressedBytes)); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(t.entryCount)); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(t.compressionCodec)); err != nil {
		return err
	}
	return writeUint32(w, uint32(t.version))
}

func deserializeTrailer(r io.Reader) (*fixedTrailer, error) {
	var magic [8]byte
	if err := readFull(r, magic[:]); err != nil {
		return nil, err
	}
	if string(magic[:]) != string(trailerMagic) {
		return nil, ErrBadMagic
	}

	t := &fixedTrailer{}
	var err error
	var u64 uint64
	var u32 uint32

	if u64, err = readUint64(r); err != nil {
		return nil, err
	}
	t.fileinfoOffset = int64(u64)

	if u64, err = readUint64(r); err != nil {
		return nil, err
	}
	t.dataIndexOffset = int64(u64)

	if u32, err = readUint32(r); err != nil {
		return nil, err
	}
	t.dataIndexCount = int32(u32)

	if u64, err = readUint64(r); err != nil {
		return nil, err
	}
	t.metaIndexOffset = int64(u64)

	if u32, err = readUint32(r); err != nil {
		return nil, err
	}
	t.metaIndexCount = int32(u32)

	if u64, err = readUint64(r); err != nil {
		return nil, err
	}
	t.totalUncompressedBytes = int64(u64)

	if u32, err = readUint32(r); err != nil {
		return nil, err
	}
	t.entryCount = int32(u32)

	if u32, err = readUint32(r); err != nil {
		return nil, err
	}
	t.compressionCodec = int32(u32)

	if u32, err = readUint32(r); err != nil {
		return nil, err
	}
	t.version = int32(u32)

	if t.version != fileVersion {
		return nil, ErrUnsupportedVersion
	}
	return t, nil
}

// readTrailerAt reads and validates the trailer at the end of a file of
// the given size.
func readTrailerAt(src io.ReaderAt, size int64) (*fixedTrailer, error) {
	if size < trailerSize {
		return nil, ErrShortRead
	}
	s := &readerAtStream{src: src, pos: size - trailerSize}
	return deserializeTrailer(s)
}
