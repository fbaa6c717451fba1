package pager

import "github.com/kvwal/pagewriter/internal/page"

// Binary-contract constants.
const (
	// UberPageByteAlign is the alignment modulus for uber pages. Not a
	// power of two, so it is checked and applied with modulo arithmetic
	// rather than a bitmask.
	UberPageByteAlign = 100

	// RevisionRootPageByteAlign is the alignment modulus for
	// revision-root pages. A power of two, so bitmask arithmetic applies.
	RevisionRootPageByteAlign = 256

	// PageFragmentByteAlign is the alignment modulus for every other
	// Data-mode page. A power of two.
	PageFragmentByteAlign = 8

	// FlushSize is the write-buffer byte threshold that triggers a flush.
	FlushSize = 64000

	// FirstBeacon is the reserved prefix size of the revisions file, split
	// into two equal halves for the dual uber-page; the data file reserves
	// it too (see FirstAppendOffset). A compile-time constant; it must stay
	// even.
	FirstBeacon = 512

	// OtherBeacon is the length-prefix header size for on-disk entries.
	OtherBeacon = 4
)

// alignModulo rounds offset up to the next multiple of align using modulo
// arithmetic, for alignment classes that are not powers of two (uber
// pages).
func alignModulo(offset int64, align int64) int64 {
	rem := offset % align
	if rem == 0 {
		return offset
	}
	return offset + (align - rem)
}

// alignPow2 rounds offset up to the next multiple of align using bitmask
// arithmetic. align must be a power of two.
func alignPow2(offset int64, align int64) int64 {
	mask := align - 1
	return (offset + mask) &^ mask
}

// NextOffset computes the write offset and padding for appending a
// serialized page. currentOffset is the candidate start-of-entry
// offset before any class-specific padding, i.e. fileSize plus whatever is
// already buffered.
//
// For SerializationType != Data, no padding applies and writeOffset equals
// currentOffset verbatim (transaction-intent-log entries are not part of
// the aligned page tree).
//
// For UberPage, alignment is satisfied by padding added *after* the
// payload so that entryEnd (length prefix + payload + padAfter) lands on a
// UberPageByteAlign boundary; writeOffset itself is unpadded.
//
// For RevisionRootPage and every other Data-mode variant, alignment is
// satisfied by padding added *before* the entry so writeOffset itself lands
// on the class boundary.
func NextOffset(currentOffset int64, variant page.Variant, serializedLength int, mode page.SerializationType) (writeOffset int64, padBefore int, padAfter int) {
	if mode != page.Data {
		return currentOffset, 0, 0
	}

	switch variant {
	case page.VariantUber:
		entrySize := int64(OtherBeacon + serializedLength)
		aligned := alignModulo(entrySize, UberPageByteAlign)
		return currentOffset, 0, int(aligned - entrySize)
	case page.VariantRevisionRoot:
		aligned := alignPow2(currentOffset, RevisionRootPageByteAlign)
		return aligned, int(aligned - currentOffset), 0
	default:
		aligned := alignPow2(currentOffset, PageFragmentByteAlign)
		return aligned, int(aligned - currentOffset), 0
	}
}

// FirstAppendOffset returns the candidate offset for the very first append
// to an empty Data-mode file. FirstBeacon bytes are reserved for the dual
// uber-page beacon, so the first append must land strictly past the
// reserved region, not merely at a boundary that happens to coincide with
// its end: FirstBeacon+1 rounded up to the next PageFragmentByteAlign
// boundary.
func FirstAppendOffset() int64 {
	return alignPow2(FirstBeacon+1, PageFragmentByteAlign)
}
