package page

import (
	"fmt"

	"github.com/kvwal/pagewriter/internal/buffer"
	"github.com/kvwal/pagewriter/internal/txn"
)

// Persister implements the writer's PagePersister capability for every
// page variant defined in this package. It is the pluggable "page ->
// bytes" step the serialization pipeline delegates to; the writer
// itself never interprets the bytes beyond length-prefixing them.
type Persister struct{}

// NewPersister returns the default Persister.
func NewPersister() *Persister {
	return &Persister{}
}

// SerializePage appends the wire form of page into scratch. A one-byte
// variant tag precedes the page's own encoding so a Reader can dispatch to
// the matching Decode function without out-of-band type information.
func (p *Persister) SerializePage(_ txn.Transaction, scratch *buffer.Scratch, pg Page, _ SerializationType) error {
	if pg == nil {
		return fmt.Errorf("persister: nil page")
	}
	variant := pg.Variant()
	scratch.Write([]byte{byte(variant)})
	switch v := pg.(type) {
	case *UberPage:
		scratch.Write(EncodeUber(v))
	case *RevisionRootPage:
		scratch.Write(EncodeRevisionRoot(v))
	case *UnorderedKeyValuePage:
		scratch.Write(EncodeKV(v))
	case *Fragment:
		scratch.Write(EncodeFragment(v))
	default:
		return fmt.Errorf("persister: unknown page variant %T", pg)
	}
	return nil
}

// DecodePage reverses SerializePage: it reads the leading variant tag and
// dispatches to the matching Decode function. pageNumber is only meaningful
// for variants that carry one (key/value pages and fragments).
func DecodePage(pageNumber uint64, buf []byte) (Page, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("decode page: empty buffer")
	}
	variant := Variant(buf[0])
	body := buf[1:]
	switch variant {
	case VariantUber:
		return DecodeUber(body)
	case VariantRevisionRoot:
		return DecodeRevisionRoot(body)
	case VariantUnorderedKeyValue:
		return DecodeKV(pageNumber, body), nil
	case VariantFragment:
		return DecodeFragment(pageNumber, body), nil
	default:
		return nil, fmt.Errorf("decode page: unknown variant tag %d", buf[0])
	}
}
