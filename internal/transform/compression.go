package transform

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Compression is a Transform stage backed by zstd. It is the default
// compression stage for the byte-transform chain; a fresh encoder
// and decoder pair is created per Serialize/Deserialize call since page
// payloads are framed independently and concurrent encoders would otherwise
// need external synchronization.
type Compression struct {
	level zstd.EncoderLevel
}

// NewCompression returns a Compression stage at the given zstd level. A
// zero level selects zstd's default (SpeedDefault).
func NewCompression(level zstd.EncoderLevel) *Compression {
	if level == 0 {
		level = zstd.SpeedDefault
	}
	return &Compression{level: level}
}

func (c *Compression) Serialize(sink io.Writer) io.WriteCloser {
	enc, err := zstd.NewWriter(sink, zstd.WithEncoderLevel(c.level))
	if err != nil {
		return errWriteCloser{err}
	}
	return enc
}

func (c *Compression) Deserialize(source io.Reader) io.Reader {
	dec, err := zstd.NewReader(source)
	if err != nil {
		return errReader{err}
	}
	return &zstdReadCloser{dec}
}

// zstdReadCloser adapts *zstd.Decoder to io.Reader; Close releases the
// decoder's goroutines. The pager's Reader reads through io.ReadAll and does
// not call Close.
type zstdReadCloser struct {
	dec *zstd.Decoder
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return nil
}

type errWriteCloser struct{ err error }

func (e errWriteCloser) Write([]byte) (int, error) { return 0, e.err }
func (e errWriteCloser) Close() error { return e.err }

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, fmt.Errorf("zstd: %w", e.err) }
