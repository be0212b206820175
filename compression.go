package nbt

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the container wrapped around a raw tag stream.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZlib
	CompressionZstd
	CompressionLZ4
	CompressionSnappy
)

var (
	gzipMagic   = []byte{0x1f, 0x8b}
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic    = []byte{0x04, 0x22, 0x4d, 0x18}
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
)

// sniffLen is the longest magic prefix checked by DetectCompression.
const sniffLen = 10

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as printed by String.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none", "raw", "":
		return CompressionNone, nil
	case "gzip":
		return CompressionGzip, nil
	case "zlib":
		return CompressionZlib, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "snappy":
		return CompressionSnappy, nil
	default:
		return 0, fmt.Errorf("unknown compression: %q", name)
	}
}

// DetectCompression classifies a stream by its leading bytes. Anything
// without a known magic is treated as a raw tag stream.
func DetectCompression(prefix []byte) Compression {
	switch {
	case bytes.HasPrefix(prefix, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(prefix, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(prefix, lz4Magic):
		return CompressionLZ4
	case bytes.HasPrefix(prefix, snappyMagic):
		return CompressionSnappy
	case isZlibHeader(prefix):
		return CompressionZlib
	default:
		return CompressionNone
	}
}

// isZlibHeader checks the RFC 1950 CMF/FLG pair: deflate method, window
// size at most 32K, and FCHECK making the pair a multiple of 31.
func isZlibHeader(p []byte) bool {
	if len(p) < 2 {
		return false
	}
	cmf, flg := p[0], p[1]
	if cmf&0x0f != 8 || cmf>>4 > 7 {
		return false
	}
	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// NewDecompressor sniffs r and returns a reader yielding the raw tag stream.
// Failures inside the container surface as ErrContainerCorrupt.
func NewDecompressor(r io.Reader) (io.ReadCloser, Compression, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	prefix, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, CompressionNone, wrapError(KindIO, 0, err, "read container header")
	}
	c := DetectCompression(prefix)
	rc, err := NewDecompressorFor(br, c)
	return rc, c, err
}

// NewDecompressorFor wraps r with the decoder for a known scheme.
func NewDecompressorFor(r io.Reader, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, wrapError(KindContainerCorrupt, -1, err, "open %s stream", c)
		}
		return &containerReader{r: zr, closer: zr, scheme: c}, nil
	case CompressionZlib:
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, wrapError(KindContainerCorrupt, -1, err, "open %s stream", c)
		}
		return &containerReader{r: zr, closer: zr, scheme: c}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, wrapError(KindContainerCorrupt, -1, err, "open %s stream", c)
		}
		rc := zr.IOReadCloser()
		return &containerReader{r: rc, closer: rc, scheme: c}, nil
	case CompressionLZ4:
		return &containerReader{r: lz4.NewReader(r), scheme: c}, nil
	case CompressionSnappy:
		return &containerReader{r: snappy.NewReader(r), scheme: c}, nil
	default:
		return nil, newError(KindContainerCorrupt, -1, "unsupported compression %s", c)
	}
}

// containerReader tags decompressor failures so they are not mistaken for
// a short tag stream.
type containerReader struct {
	r      io.Reader
	closer io.Closer
	scheme Compression
}

func (cr *containerReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if err != nil && err != io.EOF {
		return n, wrapError(KindContainerCorrupt, -1, err, "%s stream", cr.scheme)
	}
	return n, err
}

func (cr *containerReader) Close() error {
	if cr.closer == nil {
		return nil
	}
	return cr.closer.Close()
}

// NewCompressor returns a writer that compresses into w. The caller must
// Close it to flush the container trailer.
func NewCompressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZlib:
		return zlib.NewWriter(w), nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
		if err != nil {
			return nil, wrapError(KindIO, -1, err, "open %s writer", c)
		}
		return zw, nil
	case CompressionLZ4:
		zw := lz4.NewWriter(w)
		if err := zw.Apply(lz4.ChecksumOption(true)); err != nil {
			return nil, wrapError(KindIO, -1, err, "open %s writer", c)
		}
		return zw, nil
	case CompressionSnappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, newError(KindIO, -1, "unsupported compression %s", c)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Decompress unwraps data, auto-detecting the container. The output is
// capped at maxBytes; zero means DefaultMaxTotalBytes.
func Decompress(data []byte, maxBytes uint64) ([]byte, Compression, error) {
	if maxBytes == 0 {
		maxBytes = DefaultMaxTotalBytes
	}
	rc, c, err := NewDecompressor(bytes.NewReader(data))
	if err != nil {
		return nil, c, err
	}
	defer rc.Close()
	out, err := io.ReadAll(io.LimitReader(rc, int64(maxBytes)+1))
	if err != nil {
		if KindOf(err) != KindUnknown {
			return nil, c, err
		}
		return nil, c, wrapError(KindContainerCorrupt, -1, err, "%s stream", c)
	}
	if uint64(len(out)) > maxBytes {
		return nil, c, newError(KindLimitExceeded, int64(maxBytes), "decompressed size exceeds %d bytes", maxBytes)
	}
	return out, c, nil
}

// Compress wraps raw in the given container.
func Compress(raw []byte, c Compression) ([]byte, error) {
	var out bytes.Buffer
	w, err := NewCompressor(&out, c)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, wrapError(KindIO, -1, err, "%s write", c)
	}
	if err := w.Close(); err != nil {
		return nil, wrapError(KindIO, -1, err, "%s close", c)
	}
	return out.Bytes(), nil
}
