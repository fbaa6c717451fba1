package pager

import (
	"bytes"
	"fmt"
	"io"

	"github.com/kvwal/pagewriter/internal/buffer"
	"github.com/kvwal/pagewriter/internal/page"
	"github.com/kvwal/pagewriter/internal/txn"
)

// ByteHandler wraps a sink/source with the configured transform chain.
// *transform.Chain satisfies this interface; it is declared
// here, rather than imported from the transform package directly, so the
// writer depends only on the narrow capability it needs.
type ByteHandler interface {
	Serialize(sink io.Writer) io.WriteCloser
	Deserialize(source io.Reader) io.Reader
}

// PagePersister serializes a Page into scratch.
type PagePersister interface {
	SerializePage(trx txn.Transaction, scratch *buffer.Scratch, pg page.Page, mode page.SerializationType) error
}

// Serialize runs the serialization pipeline: persist the page into a
// scratch buffer, then stream it through the byte-transform chain to
// produce the final on-disk payload.
func Serialize(trx txn.Transaction, persister PagePersister, handler ByteHandler, pg page.Page, mode page.SerializationType) ([]byte, error) {
	if pg == nil {
		return nil, fmt.Errorf("%w: nil page reached serializer", ErrAssertionFailure)
	}

	scratch := buffer.NewScratch()
	if err := persister.SerializePage(trx, scratch, pg, mode); err != nil {
		return nil, fmt.Errorf("%w: serialize page: %v", ErrStorageIO, err)
	}

	var out bytes.Buffer
	wc := handler.Serialize(&out)
	if _, err := wc.Write(scratch.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: transform write: %v", ErrStorageIO, err)
	}
	if err := wc.Close(); err != nil {
		return nil, fmt.Errorf("%w: transform close: %v", ErrStorageIO, err)
	}

	scratch.Reset()
	return out.Bytes(), nil
}
