package pager

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kvwal/pagewriter/internal/cache"
	"github.com/kvwal/pagewriter/internal/page"
)

// Reader is the companion page reader: it resolves a
// PageReference to a decoded Page, reversing the byte-transform chain the
// writer applied, and shares the writer's offset cache and hash function so
// both sides agree on revision lookups without duplicating state.
type Reader struct {
	dataFile AsyncFile
	revFile AsyncFile
	cache *cache.RevisionCache
	handler ByteHandler
	hashFunc func([]byte) uint64
}

// NewReader constructs a Reader sharing dataFile/revFile/cache with a
// Writer (or opened read-only against the same paths).
func NewReader(dataFile, revFile AsyncFile, revCache *cache.RevisionCache, handler ByteHandler, hashFunc func([]byte) uint64) *Reader {
	return &Reader{
		dataFile: dataFile,
		revFile: revFile,
		cache: revCache,
		handler: handler,
		hashFunc: hashFunc,
	}
}

// ByteHandler returns the shared transform chain, exposed so a writer can
// be constructed with the same handler instance.
func (r *Reader) ByteHandler() ByteHandler {
	return r.handler
}

// HashFunc returns the shared content-hash function.
func (r *Reader) HashFunc() func([]byte) uint64 {
	return r.hashFunc
}

// ReadPage resolves offset (ref.Key for Data mode, ref.PersistentLogKey for
// TransactionIntentLog mode) to a decoded Page: it reads the OtherBeacon
// length prefix, reads the payload, reverses the byte-transform chain, and
// dispatches on the leading variant tag written by Persister.SerializePage.
// The minimal reference page types here carry no page-number field
// on Reference, so key/value and fragment pages decode with page number 0;
// a node-level transaction layer that tracks page identity would supply the
// real one.
func (r *Reader) ReadPage(ctx context.Context, ref *page.Reference, mode page.SerializationType) (page.Page, error) {
	offset := ref.Key
	if mode == page.TransactionIntentLog {
		offset = ref.PersistentLogKey
	}

	header := make([]byte, OtherBeacon)
	n, err := r.dataFile.Read(header, offset).Join(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read length prefix at %d: %v", ErrStorageIO, offset, err)
	}
	if n < OtherBeacon {
		return nil, fmt.Errorf("%w: short length prefix at %d", ErrStorageIO, offset)
	}
	length := binary.LittleEndian.Uint32(header)

	raw := make([]byte, length)
	n, err = r.dataFile.Read(raw, offset+OtherBeacon).Join(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: read payload at %d: %v", ErrStorageIO, offset, err)
	}
	if uint32(n) < length {
		return nil, fmt.Errorf("%w: short payload at %d", ErrStorageIO, offset)
	}

	plain, err := io.ReadAll(r.handler.Deserialize(bytes.NewReader(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: reverse byte-transform chain: %v", ErrStorageIO, err)
	}

	pg, err := page.DecodePage(0, plain)
	if err != nil {
		return nil, fmt.Errorf("%w: decode page at %d: %v", ErrStorageIO, offset, err)
	}
	return pg, nil
}

// ReadRevisionRoot resolves revision via the shared offset cache and reads
// its RevisionRootPage.
func (r *Reader) ReadRevisionRoot(ctx context.Context, revision uint64) (*page.RevisionRootPage, error) {
	data, err := resolveRevision(ctx, r.revFile, r.cache, revision)
	if err != nil {
		return nil, err
	}

	ref := &page.Reference{Key: int64(data.Offset)}
	pg, err := r.ReadPage(ctx, ref, page.Data)
	if err != nil {
		return nil, err
	}
	root, ok := pg.(*page.RevisionRootPage)
	if !ok {
		return nil, fmt.Errorf("%w: revision %d resolved to %T, not a revision root page", ErrIllegalState, revision, pg)
	}
	return root, nil
}

// Close is a no-op: the reader never closes dataFile or revFile. When the
// handles are shared with a Writer, Writer.Close closes them.
func (r *Reader) Close() error {
	return nil
}
