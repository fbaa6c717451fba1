// Package pager implements the append-only page writer: alignment policy,
// the serialization pipeline, the write buffer, the revisions index, the
// dual uber-page commit sequence, and truncation/recovery.
package pager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/kvwal/pagewriter/internal/buffer"
	"github.com/kvwal/pagewriter/internal/cache"
	"github.com/kvwal/pagewriter/internal/page"
	"github.com/kvwal/pagewriter/internal/txn"
)

// Writer is the commit coordinator: it owns the data file and
// revisions file handles, the offset cache, the page persister, the
// byte-transform chain, and the companion reader for the lifetime of one
// write session. A Writer is not reentrant or safe for concurrent use
// — callers serialize their own access.
type Writer struct {
	dataFile AsyncFile
	revFile AsyncFile

	cache *cache.RevisionCache
	persister PagePersister
	handler ByteHandler
	hashFunc func([]byte) uint64
	mode page.SerializationType
	reader *Reader
	logger *slog.Logger

	trx txn.Transaction
	buf *buffer.WriteBuffer

	dataSize int64

	stats WriterStats
	closeOnce sync.Once
	closeErr error
}

// Option configures a Writer at construction.
type Option func(*Writer)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) { w.logger = logger }
}

// WithHashFunc overrides the default xxhash.Sum64 content-hash function.
func WithHashFunc(fn func([]byte) uint64) Option {
	return func(w *Writer) { w.hashFunc = fn }
}

// NewWriter constructs a Writer over already-open data and revisions async
// file handles. It queries the data file's current size so
// appends continue from the correct logical offset.
func NewWriter(ctx context.Context, dataFile, revFile AsyncFile, revCache *cache.RevisionCache, persister PagePersister, handler ByteHandler, trx txn.Transaction, mode page.SerializationType, reader *Reader, opts...Option) (*Writer, error) {
	size, err := dataFile.Size().Join(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query data file size: %v", ErrStorageIO, err)
	}

	w := &Writer{
		dataFile: dataFile,
		revFile: revFile,
		cache: revCache,
		persister: persister,
		handler: handler,
		hashFunc: xxhash.Sum64,
		mode: mode,
		reader: reader,
		logger: slog.Default(),
		trx: trx,
		buf: trx.NewBufferedBytesInstance(),
		dataSize: size,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Stats returns a snapshot of cumulative writer activity.
func (w *Writer) Stats() WriterStats {
	return w.stats
}

// nextCandidateOffset returns the logical offset the next appended entry
// would start at before class-specific alignment: the
// current file length plus whatever is already buffered. The very first
// append to an empty file/buffer pair reserves the FirstBeacon prefix by
// padding the buffer itself, so the physical write position stays
// w.dataSize while the logical offset jumps past the reserved region.
func (w *Writer) nextCandidateOffset() int64 {
	if w.dataSize == 0 && w.buf.WritePosition() == 0 {
		lead := FirstAppendOffset()
		w.buf.Reserve(int(lead))
		return lead
	}
	return w.dataSize + int64(w.buf.WritePosition())
}

// Write serializes ref.Page, aligns it, appends it to the write buffer,
// flushes if the buffer crossed FlushSize, and records the resulting offset
// and content hash into ref. In Data mode, committing a RevisionRootPage
// triggers the revision-index side effects described on indexRevision.
func (w *Writer) Write(ctx context.Context, ref *page.Reference) (*Writer, error) {
	if _, err := w.writeEntry(ctx, ref); err != nil {
		return w, err
	}
	return w, nil
}

// writeEntry performs the shared append logic and returns the transformed
// payload bytes, so WriteUberPageReference can reuse them for the dual
// beacon write without re-running the serialization pipeline.
func (w *Writer) writeEntry(ctx context.Context, ref *page.Reference) ([]byte, error) {
	if ref == nil || ref.Page == nil {
		return nil, fmt.Errorf("%w: page reference with nil page reached writer", ErrAssertionFailure)
	}

	payload, err := Serialize(w.trx, w.persister, w.handler, ref.Page, w.mode)
	if err != nil {
		return nil, err
	}

	candidate := w.nextCandidateOffset()
	writeOffset, padBefore, padAfter := NextOffset(candidate, ref.Page.Variant(), len(payload), w.mode)

	if padBefore > 0 {
		w.buf.Reserve(padBefore)
	}
	w.buf.WriteUint32(uint32(len(payload)))
	w.buf.WriteBytes(payload)
	if padAfter > 0 {
		w.buf.Reserve(padAfter)
	}

	if w.buf.WritePosition() > FlushSize {
		if err := w.flush(ctx); err != nil {
			return nil, err
		}
	}

	switch w.mode {
	case page.Data:
		ref.Key = writeOffset
	case page.TransactionIntentLog:
		ref.PersistentLogKey = writeOffset
	}

	if hc, ok := ref.Page.(page.HashCoder); ok {
		ref.Hash = hc.HashCode()
	} else {
		ref.Hash = w.hashFunc(payload)
	}

	w.stats.PagesWritten++
	w.stats.BytesWritten += uint64(len(payload))

	if w.mode == page.Data {
		if root, ok := ref.Page.(*page.RevisionRootPage); ok {
			if err := w.indexRevision(ctx, root, writeOffset); err != nil {
				return nil, err
			}
		}
	}

	return payload, nil
}

// indexRevision appends a 16-byte record to the revisions file and
// populates the offset cache, triggered whenever a committed RevisionRootPage
// passes through Write.
func (w *Writer) indexRevision(ctx context.Context, root *page.RevisionRootPage, offset int64) error {
	size, err := w.revFile.Size().Join(ctx)
	if err != nil {
		return fmt.Errorf("%w: query revisions file size: %v", ErrStorageIO, err)
	}

	dest := size
	if root.Revision == 0 {
		dest = size + FirstBeacon
	}

	record := encodeRevisionRecord(uint64(offset), root.CommitTimestampMillis)
	if _, err := w.revFile.Write(record, dest).Join(ctx); err != nil {
		return fmt.Errorf("%w: write revision %d index record: %v", ErrStorageIO, root.Revision, err)
	}

	data := cache.RevisionFileData{
		Offset: uint64(offset),
		Timestamp: time.UnixMilli(root.CommitTimestampMillis),
	}
	w.cache.Put(root.Revision, data)
	w.stats.RevisionsFlushed++
	w.stats.CurrentRevision = root.Revision

	w.logger.Debug("indexed revision", "revision", root.Revision, "offset", offset, "timestamp", data.Timestamp)
	return nil
}

// flush writes the buffer's accumulated bytes to the data file at the
// current end-of-file offset, then installs a fresh buffer obtained from
// the transaction. The flushed buffer's
// storage must never be reused afterward: an outstanding async write may
// still be reading it.
func (w *Writer) flush(ctx context.Context) error {
	if w.buf.WritePosition() == 0 {
		return nil
	}

	writeAt := w.dataSize
	payload := w.buf.Bytes()
	n, err := w.dataFile.Write(payload, writeAt).Join(ctx)
	if err != nil {
		return fmt.Errorf("%w: flush write buffer: %v", ErrStorageIO, err)
	}

	w.dataSize = writeAt + int64(n)
	w.buf.Release()
	w.buf = w.trx.NewBufferedBytesInstance()
	w.stats.FlushCount++
	return nil
}

// WriteUberPageReference runs the dual uber-page commit sequence: it
// flushes any pending buffer, serializes and appends the uber
// page like any other Data-mode page, mirrors the resulting bytes into both
// halves of the revisions file's reserved beacon region, and durably syncs
// both files before returning.
func (w *Writer) WriteUberPageReference(ctx context.Context, ref *page.Reference) (*Writer, error) {
	if w.buf.WritePosition() > 0 {
		if err := w.flush(ctx); err != nil {
			return w, err
		}
	}

	payload, err := w.writeEntry(ctx, ref)
	if err != nil {
		return w, err
	}

	if err := w.writeBeaconHalf(ctx, payload, true); err != nil {
		return w, err
	}
	if err := w.writeBeaconHalf(ctx, payload, false); err != nil {
		return w, err
	}
	if _, err := w.revFile.DataSync().Join(ctx); err != nil {
		return w, fmt.Errorf("%w: sync revisions file: %v", ErrStorageIO, err)
	}

	if err := w.flush(ctx); err != nil {
		return w, err
	}
	if _, err := w.dataFile.DataSync().Join(ctx); err != nil {
		return w, fmt.Errorf("%w: sync data file: %v", ErrStorageIO, err)
	}

	w.logger.Info("committed uber page", "bytes", len(payload))
	return w, nil
}

// writeBeaconHalf writes payload, zero-padded to FirstBeacon/2 bytes, into
// the first or second half of the revisions file's reserved region.
// isFirstUberPage is threaded explicitly rather than held as writer state,
// even though both halves are written on every WriteUberPageReference
// call: the boolean selects which fixed half receives the copy.
func (w *Writer) writeBeaconHalf(ctx context.Context, payload []byte, isFirstUberPage bool) error {
	half := FirstBeacon / 2
	if len(payload) > half {
		return fmt.Errorf("%w: serialized uber page (%d bytes) exceeds beacon half (%d bytes)", ErrAssertionFailure, len(payload), half)
	}

	region := make([]byte, half)
	copy(region, payload)

	offset := int64(half)
	if isFirstUberPage {
		offset = 0
	}

	if _, err := w.revFile.Write(region, offset).Join(ctx); err != nil {
		return fmt.Errorf("%w: write beacon half at %d: %v", ErrStorageIO, offset, err)
	}
	return nil
}

// Truncate resets both files to length 0 and discards the writer's
// buffered state. Calling Truncate twice in a row is a no-op the second
// time.
func (w *Writer) Truncate(ctx context.Context) (*Writer, error) {
	if _, err := w.dataFile.Truncate(0).Join(ctx); err != nil {
		return w, fmt.Errorf("%w: truncate data file: %v", ErrStorageIO, err)
	}
	if _, err := w.revFile.Truncate(0).Join(ctx); err != nil {
		return w, fmt.Errorf("%w: truncate revisions file: %v", ErrStorageIO, err)
	}
	w.dataSize = 0
	w.buf.Release()
	w.buf = w.trx.NewBufferedBytesInstance()
	return w, nil
}

// TruncateTo rolls back to a prior revision: resolve revision's recorded
// offset (via the cache, falling back to the on-disk index record), read
// its stored length prefix, and truncate the data file just past the end of
// that revision root page.
func (w *Writer) TruncateTo(ctx context.Context, revision uint64) (*Writer, error) {
	data, err := resolveRevision(ctx, w.revFile, w.cache, revision)
	if err != nil {
		return w, err
	}

	header := make([]byte, OtherBeacon)
	n, err := w.dataFile.Read(header, int64(data.Offset)).Join(ctx)
	if err != nil {
		return w, fmt.Errorf("%w: read length prefix at revision %d: %v", ErrStorageIO, revision, err)
	}
	if n < OtherBeacon {
		return w, fmt.Errorf("%w: short length prefix at revision %d", ErrIllegalState, revision)
	}

	dataLength := le32(header)
	newLength := int64(data.Offset) + OtherBeacon + int64(dataLength)
	if _, err := w.dataFile.Truncate(newLength).Join(ctx); err != nil {
		return w, fmt.Errorf("%w: truncate to revision %d: %v", ErrStorageIO, revision, err)
	}
	w.dataSize = newLength

	w.logger.Info("truncated to revision", "revision", revision, "length", newLength)
	return w, nil
}

// Close fsyncs both files and closes the companion reader exactly once;
// subsequent calls are a no-op returning the first close's result.
func (w *Writer) Close(ctx context.Context) error {
	w.closeOnce.Do(func() {
		if err := w.flush(ctx); err != nil {
			w.closeErr = err
			return
		}
		if _, err := w.dataFile.DataSync().Join(ctx); err != nil {
			w.closeErr = fmt.Errorf("%w: sync data file on close: %v", ErrStorageIO, err)
			return
		}
		if _, err := w.revFile.DataSync().Join(ctx); err != nil {
			w.closeErr = fmt.Errorf("%w: sync revisions file on close: %v", ErrStorageIO, err)
			return
		}
		if w.reader != nil {
			if err := w.reader.Close(); err != nil {
				w.closeErr = err
				return
			}
		}
		if err := w.dataFile.Close(); err != nil {
			w.closeErr = fmt.Errorf("%w: close data file: %v", ErrStorageIO, err)
			return
		}
		w.closeErr = w.revFile.Close()
		if w.closeErr != nil {
			w.closeErr = fmt.Errorf("%w: close revisions file: %v", ErrStorageIO, w.closeErr)
		}
	})
	return w.closeErr
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
