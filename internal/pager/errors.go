package pager

import "errors"

// Sentinel errors every writer/reader failure wraps via fmt.Errorf so
// callers can errors.Is against a stable taxonomy.
var (
	// ErrStorageIO covers any underlying I/O failure: read, write,
	// truncate, or sync. Once returned, the writer is unusable.
	ErrStorageIO = errors.New("pager: storage I/O failure")

	// ErrIllegalState covers a cache lookup failure, timeout, or
	// interruption during TruncateTo. The writer is unusable afterward.
	ErrIllegalState = errors.New("pager: illegal state")

	// ErrAssertionFailure covers a precondition violation, such as a
	// PageReference with a nil page reaching the writer. Never recovered.
	ErrAssertionFailure = errors.New("pager: assertion failure")
)
