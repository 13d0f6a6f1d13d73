package hfile

import (
	"fmt"
	"io"
	"sync"

	"github.com/golang/snappy"
	kgzip "github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the codec a block was written with. Its integer
// value is persisted verbatim as the trailer's compressionCodec ordinal,
// so the ordering below is part of the on-disk contract: none is always 0,
// and the rest follow registration order.
type Compression int32

const (
	CompressionNone Compression = iota
	CompressionSnappy
	CompressionGzip
	CompressionZstd

	compressionCount
)

func (c Compression) isValid() bool {
	return c >= CompressionNone && c < compressionCount
}

// String returns the codec's short name, as used in diagnostics.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionGzip:
		return "gz"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

func compressionByOrdinal(ordinal int32) (Compression, error) {
	c := Compression(ordinal)
	if !c.isValid() {
		return 0, fmt.Errorf("%w: ordinal %d", ErrUnknownCodec, ordinal)
	}
	return c, nil
}

// compressorHandle is a scoped acquisition of a pooled compressor. w is
// where block payload bytes should be written; finish must be called
// exactly once, on every exit path (including errors), to flush the
// stream and return its resources to the pool.
type compressorHandle struct {
	w      io.Writer
	finish func() error
}

// acquireCompressor borrows a compressor for dst, wrapping it in whatever
// codec-specific stream c requires. The caller must call the returned
// handle's finish exactly once.
func acquireCompressor(c Compression, dst io.Writer) (*compressorHandle, error) {
	switch c {
	case CompressionNone:
		return &compressorHandle{w: dst, finish: func() error { return nil }}, nil

	case CompressionSnappy:
		sw := acquireSnappyWriter(dst)
		return &compressorHandle{
			w: sw,
			finish: func() error {
				err := sw.Close()
				releaseSnappyWriter(sw)
				return err
			},
		}, nil

	case CompressionGzip:
		gw := acquireGzipWriter(dst)
		return &compressorHandle{
			w: gw,
			finish: func() error {
				err := gw.Close()
				releaseGzipWriter(gw)
				return err
			},
		}, nil

	case CompressionZstd:
		zw, err := acquireZstdEncoder(dst)
		if err != nil {
			return nil, err
		}
		return &compressorHandle{
			w: zw,
			finish: func() error {
				err := zw.Close()
				releaseZstdEncoder(zw)
				return err
			},
		}, nil

	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownCodec, c)
	}
}

// acquireDecompressor borrows a decompressor reading from src. The caller
// must call the returned finish exactly once, on every exit path.
func acquireDecompressor(c Compression, src io.Reader) (io.Reader, func(), error) {
	switch c {
	case CompressionNone:
		return src, func() {}, nil

	case CompressionSnappy:
		sr := acquireSnappyReader(src)
		return sr, func() { releaseSnappyReader(sr) }, nil

	case CompressionGzip:
		gr, err := acquireGzipReader(src)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
		}
		return gr, func() { releaseGzipReader(gr) }, nil

	case CompressionZstd:
		zr, err := acquireZstdDecoder(src)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrDecompressionFailed, err)
		}
		return zr, func() { releaseZstdDecoder(zr) }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %v", ErrUnknownCodec, c)
	}
}

// -- snappy pool --------------------------------------------------------

var snappyWriterPool sync.Pool

func acquireSnappyWriter(w io.Writer) *snappy.Writer {
	if v := snappyWriterPool.Get(); v != nil {
		sw := v.(*snappy.Writer)
		sw.Reset(w)
		return sw
	}
	return snappy.NewWriter(w)
}

func releaseSnappyWriter(sw *snappy.Writer) {
	snappyWriterPool.Put(sw)
}

var snappyReaderPool sync.Pool

func acquireSnappyReader(r io.Reader) *snappy.Reader {
	if v := snappyReaderPool.Get(); v != nil {
		sr := v.(*snappy.Reader)
		sr.Reset(r)
		return sr
	}
	return snappy.NewReader(r)
}

func releaseSnappyReader(sr *snappy.Reader) {
	snappyReaderPool.Put(sr)
}

// -- gzip pool (klauspost/compress) -------------------------------------

var gzipWriterPool sync.Pool

func acquireGzipWriter(w io.Writer) *kgzip.Writer {
	if v := gzipWriterPool.Get(); v != nil {
		gw := v.(*kgzip.Writer)
		gw.Reset(w)
		return gw
	}
	return kgzip.NewWriter(w)
}

func releaseGzipWriter(gw *kgzip.Writer) {
	gzipWriterPool.Put(gw)
}

var gzipReaderPool sync.Pool

func acquireGzipReader(r io.Reader) (*kgzip.Reader, error) {
	if v := gzipReaderPool.Get(); v != nil {
		gr := v.(*kgzip.Reader)
		if err := gr.Reset(r); err != nil {
			return nil, err
		}
		return gr, nil
	}
	return kgzip.NewReader(r)
}

func releaseGzipReader(gr *kgzip.Reader) {
	gzipReaderPool.Put(gr)
}

// -- zstd pool (klauspost/compress) -------------------------------------

var zstdEncoderPool sync.Pool

func acquireZstdEncoder(w io.Writer) (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		zw := v.(*zstd.Encoder)
		zw.Reset(w)
		return zw, nil
	}
	return zstd.NewWriter(w)
}

func releaseZstdEncoder(zw *zstd.Encoder) {
	zstdEncoderPool.Put(zw)
}

var zstdDecoderPool sync.Pool

func acquireZstdDecoder(r io.Reader) (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		zr := v.(*zstd.Decoder)
		if err := zr.Reset(r); err != nil {
			return nil, err
		}
		return zr, nil
	}
	return zstd.NewReader(r)
}

func releaseZstdDecoder(zr *zstd.Decoder) {
	zstdDecoderPool.Put(zr)
}
