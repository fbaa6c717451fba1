// Package buffer implements the elastic write buffer the pager accumulates
// serialized pages into before flushing them to disk.
package buffer

import (
	"encoding/binary"

	"github.com/valyala/bytebufferpool"
)

var pool bytebufferpool.Pool

// WriteBuffer is an elastic byte buffer retained across Write calls within a
// single uncommitted batch. Its write position equals the number of
// unflushed bytes.
type WriteBuffer struct {
	bb *bytebufferpool.ByteBuffer
}

// New obtains a fresh WriteBuffer from the shared pool. Every flush must
// install a fresh instance on the transaction rather than reusing the
// flushed one — an outstanding async
// write borrows the flushed buffer's underlying storage, so mutating it in
// place before that write completes would corrupt on-disk bytes.
func New() *WriteBuffer {
	return &WriteBuffer{bb: pool.Get()}
}

// Reserve advances the write position by n zero bytes, used for
// pre-payload padding.
func (w *WriteBuffer) Reserve(n int) {
	if n <= 0 {
		return
	}
	w.bb.Write(make([]byte, n))
}

// WriteUint32 appends a little-endian uint32, used for the OtherBeacon
// length prefix.
func (w *WriteBuffer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.bb.Write(b[:])
}

// WriteBytes appends payload verbatim.
func (w *WriteBuffer) WriteBytes(payload []byte) {
	w.bb.Write(payload)
}

// WritePosition returns the number of unflushed bytes currently buffered.
func (w *WriteBuffer) WritePosition() int {
	return w.bb.Len()
}

// Bytes returns the buffer's contents. The returned slice aliases the
// buffer's internal storage and must not be retained past the buffer's next
// mutation or release.
func (w *WriteBuffer) Bytes() []byte {
	return w.bb.B
}

// Release returns the buffer's storage to the shared pool. Only call this
// once the buffer's bytes have been durably written (or are no longer
// needed) — see the ownership-transfer note on New.
func (w *WriteBuffer) Release() {
	pool.Put(w.bb)
	w.bb = nil
}

// Scratch is a small, unpooled elastic buffer used by PagePersister
// implementations to accumulate a single page's serialized bytes before the
// byte-transform chain runs. Kept distinct from WriteBuffer since its
// lifetime is one serialize() call, not a whole commit batch.
type Scratch struct {
	buf []byte
}

// NewScratch returns an empty Scratch.
func NewScratch() *Scratch {
	return &Scratch{}
}

// Write appends p to the scratch buffer.
func (s *Scratch) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Bytes returns the accumulated bytes.
func (s *Scratch) Bytes() []byte {
	return s.buf
}

// Reset clears the scratch buffer for reuse.
func (s *Scratch) Reset() {
	s.buf = s.buf[:0]
}
