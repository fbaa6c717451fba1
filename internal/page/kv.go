package page

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// KVPageSize is the fixed logical size of an UnorderedKeyValuePage's entry
// region: a directory of (keyOffset, valueOffset) pairs grows from the
// header, tuples grow from the end of the page.
const KVPageSize = 4096

const (
	kvRecordCountSize = 2
	kvDirEntrySize = 4 // 2 bytes key offset + 2 bytes value offset
)

// Tuple is a variable-length key/value pair stored in an
// UnorderedKeyValuePage.
type Tuple struct {
	Key []byte
	Value []byte
}

// UnorderedKeyValuePage is a slotted page of key/value tuples. Unlike a
// B+Tree leaf, entries are not required to be range-contiguous across
// sibling pages — "unordered" refers to placement within the revision's
// page tree, not within the page itself (entries are still kept sorted by
// key inside the page, though Get and HashCode scan them linearly).
type UnorderedKeyValuePage struct {
	PageNumber uint64
	entries []Tuple
	dirty bool
	cachedHash uint64
	hashValid bool
}

// NewUnorderedKeyValuePage creates an empty key/value page.
func NewUnorderedKeyValuePage(pageNumber uint64) *UnorderedKeyValuePage {
	return &UnorderedKeyValuePage{PageNumber: pageNumber}
}

func (p *UnorderedKeyValuePage) Variant() Variant { return VariantUnorderedKeyValue }

// Set inserts or replaces the value for key, keeping entries sorted by key.
func (p *UnorderedKeyValuePage) Set(key, value []byte) {
	for i, e := range p.entries {
		if bytes.Equal(e.Key, key) {
			p.entries[i].Value = value
			p.invalidate()
			return
		}
	}
	p.entries = append(p.entries, Tuple{Key: key, Value: value})
	sort.Slice(p.entries, func(a, b int) bool {
		return bytes.Compare(p.entries[a].Key, p.entries[b].Key) < 0
	})
	p.invalidate()
}

// Get performs a linear scan for key; the small page sizes this format
// targets keep that cheap, so a binary search over the sorted entries
// wasn't worth the extra bookkeeping.
func (p *UnorderedKeyValuePage) Get(key []byte) ([]byte, bool) {
	for _, e := range p.entries {
		if bytes.Equal(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// Entries returns the page's tuples in key order.
func (p *UnorderedKeyValuePage) Entries() []Tuple {
	return p.entries
}

func (p *UnorderedKeyValuePage) invalidate() {
	p.dirty = true
	p.hashValid = false
}

// HashCode returns the page's self-reported content hash. The hash is cached until the page is next mutated.
func (p *UnorderedKeyValuePage) HashCode() uint64 {
	if p.hashValid {
		return p.cachedHash
	}
	h := xxhash.New()
	for _, e := range p.entries {
		h.Write(e.Key)
		h.Write(e.Value)
	}
	p.cachedHash = h.Sum64()
	p.hashValid = true
	return p.cachedHash
}

// EncodeKV serializes an UnorderedKeyValuePage into the slotted layout
// described above: record count, then a directory of (keyOffset,
// valueOffset) pairs giving the absolute start of each key and value in the
// buffer, then tuples packed from the end of the buffer backward.
func EncodeKV(p *UnorderedKeyValuePage) []byte {
	buf := make([]byte, KVPageSize)
	binary.LittleEndian.PutUint16(buf[0:kvRecordCountSize], uint16(len(p.entries)))

	dirOff := kvRecordCountSize
	entryEnd := KVPageSize
	for _, e := range p.entries {
		keyOffset := entryEnd - len(e.Key) - len(e.Value)
		valueOffset := entryEnd - len(e.Value)
		binary.LittleEndian.PutUint16(buf[dirOff:dirOff+2], uint16(keyOffset))
		binary.LittleEndian.PutUint16(buf[dirOff+2:dirOff+4], uint16(valueOffset))
		copy(buf[keyOffset:valueOffset], e.Key)
		copy(buf[valueOffset:entryEnd], e.Value)
		dirOff += kvDirEntrySize
		entryEnd = keyOffset
	}
	return buf
}

// DecodeKV reverses EncodeKV.
func DecodeKV(pageNumber uint64, buf []byte) *UnorderedKeyValuePage {
	p := NewUnorderedKeyValuePage(pageNumber)
	count := int(binary.LittleEndian.Uint16(buf[0:kvRecordCountSize]))
	dirOff := kvRecordCountSize
	entryEnd := len(buf)
	entries := make([]Tuple, 0, count)
	for i := 0; i < count; i++ {
		keyOffset := int(binary.LittleEndian.Uint16(buf[dirOff: dirOff+2]))
		valueOffset := int(binary.LittleEndian.Uint16(buf[dirOff+2: dirOff+4]))
		key := make([]byte, valueOffset-keyOffset)
		copy(key, buf[keyOffset:valueOffset])
		value := make([]byte, entryEnd-valueOffset)
		copy(value, buf[valueOffset:entryEnd])
		entries = append(entries, Tuple{Key: key, Value: value})
		entryEnd = keyOffset
		dirOff += kvDirEntrySize
	}
	p.entries = entries
	return p
}
