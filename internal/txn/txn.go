// Package txn defines the narrow Transaction capability the writer and the
// page persister consume. The full node-level
// transaction API is out of scope; this is the minimal surface the writer
// needs: a source of fresh write buffers, plus whatever the persister needs
// to read page state (the concrete pages in package page are
// self-contained, so no extra accessors are required here today).
package txn

import "github.com/kvwal/pagewriter/internal/buffer"

// Transaction is consumed by the writer (for fresh buffers on flush) and by
// PagePersister implementations (for page-state access, should a future
// page variant need it).
type Transaction interface {
	// NewBufferedBytesInstance supplies a fresh elastic byte buffer after a
	// flush.
	NewBufferedBytesInstance() *buffer.WriteBuffer
	// ID identifies the transaction for logging.
	ID() uint64
}

// Simple is a minimal Transaction implementation suitable for the demo CLI
// and tests: every call to NewBufferedBytesInstance hands back a fresh
// pooled buffer.
type Simple struct {
	id uint64
}

// NewSimple creates a Simple transaction with the given id.
func NewSimple(id uint64) *Simple {
	return &Simple{id: id}
}

func (s *Simple) NewBufferedBytesInstance() *buffer.WriteBuffer {
	return buffer.New()
}

func (s *Simple) ID() uint64 { return s.id }
