package hfile

import "errors"

// Magic sentinels. Any mismatch on read is a hard error; they are integrity
// checks, not checksums.
var (
	dataBlockMagic  = []byte("DATABLK*")
	indexBlockMagic = []byte("IDXBLK)+")
	metaBlockMagic  = []byte("METABLKc")
	trailerMagic    = []byte("TRABLK\"$")
)

const (
	// MaxKeyLength is the largest permitted key size in bytes.
	MaxKeyLength = 64 * 1024

	// DefaultBlockSize is the target uncompressed size of a data block.
	DefaultBlockSize = 64 * 1024

	// fileVersion is the only trailer version this package writes or accepts.
	fileVersion = 1
)

// Sentinel errors. Callers should compare with errors.Is; some are wrapped
// with additional context via fmt.Errorf("...: %w", ...).
var (
	ErrInvalidKey          = errors.New("hfile: invalid key")
	ErrInvalidValue        = errors.New("hfile: invalid value")
	ErrOutOfOrder          = errors.New("hfile: out-of-order append")
	ErrReservedPrefix      = errors.New("hfile: fileinfo key uses reserved prefix")
	ErrBadMagic            = errors.New("hfile: bad magic")
	ErrShortRead           = errors.New("hfile: short read")
	ErrUnknownCodec        = errors.New("hfile: unknown compression codec")
	ErrUnknownComparator   = errors.New("hfile: unknown comparator")
	ErrUnsupportedVersion  = errors.New("hfile: unsupported trailer version")
	ErrDecompressionFailed = errors.New("hfile: decompression failed")
	ErrNotSeeked           = errors.New("hfile: scanner is not seeked")
	ErrEmpty               = errors.New("hfile: file is empty")
	ErrClosed              = errors.New("hfile: writer is closed")
	ErrNotLoaded           = errors.New("hfile: metadata not loaded")
)
