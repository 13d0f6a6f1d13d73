package hfile

import (
	"encoding/binary"
	"fmt"
	"io"
)

// putUint32 writes v as 4 big-endian bytes into dst, which must have
// length >= 4.
func putUint32(dst []byte, v uint32) {
	binary.BigEndian.PutUint32(dst, v)
}

func getUint32(src []byte) uint32 {
	return binary.BigEndian.Uint32(src)
}

// writeUint32 writes a single big-endian uint32 to w.
func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	putUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// writeUint64 writes a single big-endian uint64 to w.
func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// readFull reads exactly len(buf) bytes from r, turning a short read into
// ErrShortRead.
func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("%w: %v", ErrShortRead, err)
	}
	return nil
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return getUint32(b[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

// writeByteArray writes a 4-byte big-endian length prefix followed by p.
func writeByteArray(w io.Writer, p []byte) error {
	if err := writeUint32(w, uint32(len(p))); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	_, err := w.Write(p)
	return err
}

// readByteArray reads a length-prefixed byte array written by writeByteArray.
func readByteArray(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if err := readFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// offsetWriter wraps an io.Writer and accumulates the number of bytes
// actually written into it into *offset. It tracks the writer's current
// on-disk position around a plain io.Writer, which has no Pos() method of
// its own.
type offsetWriter struct {
	w      io.Writer
	offset *int64
}

func (o *offsetWriter) Write(p []byte) (int, error) {
	n, err := o.w.Write(p)
	*o.offset += int64(n)
	return n, err
}

// countingWriter counts the bytes written through it, regardless of what
// its underlying writer does with them. Wrapped around a block's
// compressing writer, its count is the *uncompressed* size written to the
// current block -- the quantity the block-boundary policy checks against.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// boundedRange returns a reader over exactly n bytes of src starting at
// offset. The standard library already expresses this precisely as
// io.SectionReader, so no third-party replacement is wired for it: this
// is pure random-access byte-range slicing with no domain behavior a
// library would add value to.
func boundedRange(src io.ReaderAt, offset, n int64) *io.SectionReader {
	return io.NewSectionReader(src, offset, n)
}
