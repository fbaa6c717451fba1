// Package page defines the in-memory page variants the writer and reader
// operate on, along with the PageReference descriptor the writer mutates as
// a side effect of persisting a page.
//
// These types are a minimal, concrete stand-in for the node-level
// transaction API and page-type package the original spec treats as
// external collaborators: enough to exercise every alignment, commit, and
// truncation path end to end.
package page

import "fmt"

// Variant tags a Page with the class that drives alignment and commit
// behavior.
type Variant uint8

const (
	VariantUnknown Variant = iota
	VariantUber
	VariantRevisionRoot
	VariantUnorderedKeyValue
	VariantFragment // generic inner/leaf page
)

func (v Variant) String() string {
	switch v {
	case VariantUber:
		return "UberPage"
	case VariantRevisionRoot:
		return "RevisionRootPage"
	case VariantUnorderedKeyValue:
		return "UnorderedKeyValuePage"
	case VariantFragment:
		return "Fragment"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(v))
	}
}

// Page is the narrow interface the writer needs from any page variant: just
// enough to branch on alignment class and, for key/value pages, to pull a
// self-reported hash instead of hashing the serialized bytes.
type Page interface {
	Variant() Variant
}

// HashCoder is implemented by page variants that carry their own content
// hash (today, only UnorderedKeyValuePage) rather than relying on the
// writer to hash the serialized bytes.
type HashCoder interface {
	HashCode() uint64
}

// SerializationType selects which PageReference field receives the write
// offset, and whether the write participates in revision indexing.
type SerializationType uint8

const (
	// Data pages are part of the main, versioned page tree.
	Data SerializationType = iota
	// TransactionIntentLog pages belong to the transaction-intent log and
	// never trigger revision-index side effects.
	TransactionIntentLog
)

func (s SerializationType) String() string {
	if s == TransactionIntentLog {
		return "TransactionIntentLog"
	}
	return "Data"
}

// Reference is the mutable descriptor the writer updates as a side effect
// of persisting a page.
type Reference struct {
	// Key is the absolute byte offset in the data file, set when mode is Data.
	Key int64
	// PersistentLogKey is the absolute offset in the transaction-intent log,
	// set when mode is TransactionIntentLog.
	PersistentLogKey int64
	// Hash is the content hash: the page's own HashCode() for
	// UnorderedKeyValuePage, or the configured hash function over the
	// serialized bytes for every other variant.
	Hash uint64
	// Page is the in-memory page this reference points to. A nil Page
	// reaching the writer is a precondition violation (ErrAssertionFailure).
	Page Page
}
