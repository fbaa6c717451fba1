package page

import "encoding/binary"

// Fragment is a generic inner/leaf node of a revision's page tree: any page
// variant that is neither an UberPage nor a RevisionRootPage. Keys separate
// child page-tree offsets, using separator keys and child pointers with
// fixed-width offsets rather than a slotted directory, since fragments here
// only need to round-trip through the writer/reader, not support in-place
// B+Tree mutation.
type Fragment struct {
	PageNumber uint64
	// Leaf reports whether this fragment has no children (a leaf of the
	// page tree) as opposed to an inner node with ChildOffsets.
	Leaf bool
	// Keys are the separator keys, one per child boundary for an inner
	// node, or the stored keys for a leaf.
	Keys [][]byte
	// ChildOffsets holds one absolute data-file offset per key for an
	// inner node; empty for a leaf.
	ChildOffsets []int64
}

func (f *Fragment) Variant() Variant { return VariantFragment }

// EncodeFragment serializes a Fragment as: leaf flag (1 byte), key count
// (u16), then for each key: length (u16) + key bytes [+ child offset (u64)
// if not a leaf].
func EncodeFragment(f *Fragment) []byte {
	size := 1 + 2
	for _, k := range f.Keys {
		size += 2 + len(k)
		if !f.Leaf {
			size += 8
		}
	}
	buf := make([]byte, size)
	off := 0
	if f.Leaf {
		buf[off] = 1
	} else {
		buf[off] = 0
	}
	off++
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(f.Keys)))
	off += 2
	for i, k := range f.Keys {
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(k)))
		off += 2
		copy(buf[off:off+len(k)], k)
		off += len(k)
		if !f.Leaf {
			binary.LittleEndian.PutUint64(buf[off:off+8], uint64(f.ChildOffsets[i]))
			off += 8
		}
	}
	return buf
}

// DecodeFragment reverses EncodeFragment.
func DecodeFragment(pageNumber uint64, buf []byte) *Fragment {
	f := &Fragment{PageNumber: pageNumber}
	off := 0
	f.Leaf = buf[off] == 1
	off++
	count := int(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2
	f.Keys = make([][]byte, 0, count)
	if !f.Leaf {
		f.ChildOffsets = make([]int64, 0, count)
	}
	for i := 0; i < count; i++ {
		klen := int(binary.LittleEndian.Uint16(buf[off : off+2]))
		off += 2
		key := make([]byte, klen)
		copy(key, buf[off:off+klen])
		off += klen
		f.Keys = append(f.Keys, key)
		if !f.Leaf {
			childOff := int64(binary.LittleEndian.Uint64(buf[off : off+8]))
			off += 8
			f.ChildOffsets = append(f.ChildOffsets, childOff)
		}
	}
	return f
}
