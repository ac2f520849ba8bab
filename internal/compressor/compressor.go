// Package compressor implements the sender's per-file streaming compressor
// (spec.md §4.2): an identity passthrough, or a zlib deflate stream with a
// terminal flush.
package compressor

import (
	"bytes"

	"github.com/klauspost/compress/zlib"
)

// Mode identifies which compressor a file's metadata command advertises.
type Mode int

const (
	None Mode = iota
	Zlib
)

func (m Mode) String() string {
	if m == Zlib {
		return "zlib"
	}
	return "none"
}

// Compressor is the common contract for both variants: compress(bytes) and
// a terminal flush.
type Compressor interface {
	Compress(data []byte) []byte
	Flush() []byte
}

// Identity returns input unchanged and has an empty flush.
type Identity struct{}

func (Identity) Compress(data []byte) []byte { return data }
func (Identity) Flush() []byte               { return nil }

// ZlibCompressor wraps klauspost/compress/zlib, the drop-in zlib codec the
// teacher repo already depends on (there for zstd chunk compression; this
// protocol's wire format is zlib, so the sibling package is used instead).
type ZlibCompressor struct {
	buf bytes.Buffer
	w   *zlib.Writer
}

// New builds the Compressor for the given mode.
func New(mode Mode) Compressor {
	if mode == Zlib {
		return NewZlib()
	}
	return Identity{}
}

// NewZlib constructs a fresh zlib compressor.
func NewZlib() *ZlibCompressor {
	z := &ZlibCompressor{}
	z.buf.Grow(4096)
	z.w = zlib.NewWriter(&z.buf)
	return z
}

// Compress feeds data into the deflate stream and returns whatever deflate
// output is ready so far. The underlying writer buffers internally, so a
// single small write may yield no output until flushed.
func (z *ZlibCompressor) Compress(data []byte) []byte {
	if len(data) > 0 {
		// zlib.Writer.Write never returns an error for an in-memory
		// destination buffer.
		_, _ = z.w.Write(data)
	}
	out := make([]byte, z.buf.Len())
	copy(out, z.buf.Bytes())
	z.buf.Reset()
	return out
}

// Flush closes the deflate stream, emitting any buffered bytes plus the
// terminal zlib trailer.
func (z *ZlibCompressor) Flush() []byte {
	_ = z.w.Close()
	out := make([]byte, z.buf.Len())
	copy(out, z.buf.Bytes())
	z.buf.Reset()
	return out
}
