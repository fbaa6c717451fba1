package page

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// revisionRootEncodedSize: revision number (8) + commit timestamp millis (8)
// + page-tree root offset (8) + CRC32 (4).
const revisionRootEncodedSize = 8 + 8 + 8 + 4

// RevisionRootPage is the page tree's root for a single committed revision.
type RevisionRootPage struct {
	// Revision is the revision number this page roots.
	Revision uint64
	// CommitTimestampMillis is the commit time in milliseconds since the
	// Unix epoch.
	CommitTimestampMillis int64
	// RootOffset is the absolute data-file offset of the page tree's root
	// fragment for this revision.
	RootOffset int64
}

func (p *RevisionRootPage) Variant() Variant { return VariantRevisionRoot }

// EncodeRevisionRoot serializes a RevisionRootPage to its fixed-size
// on-disk form.
func EncodeRevisionRoot(p *RevisionRootPage) []byte {
	buf := make([]byte, revisionRootEncodedSize)
	binary.LittleEndian.PutUint64(buf[0:8], p.Revision)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(p.CommitTimestampMillis))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(p.RootOffset))
	crc := crc32.ChecksumIEEE(buf[:24])
	binary.LittleEndian.PutUint32(buf[24:28], crc)
	return buf
}

// DecodeRevisionRoot reverses EncodeRevisionRoot.
func DecodeRevisionRoot(buf []byte) (*RevisionRootPage, error) {
	if len(buf) < revisionRootEncodedSize {
		return nil, fmt.Errorf("revision root page too short: %d bytes", len(buf))
	}
	crc := binary.LittleEndian.Uint32(buf[24:28])
	if computed := crc32.ChecksumIEEE(buf[:24]); computed != crc {
		return nil, fmt.Errorf("revision root CRC mismatch: stored=%08x computed=%08x", crc, computed)
	}
	return &RevisionRootPage{
		Revision: binary.LittleEndian.Uint64(buf[0:8]),
		CommitTimestampMillis: int64(binary.LittleEndian.Uint64(buf[8:16])),
		RootOffset: int64(binary.LittleEndian.Uint64(buf[16:24])),
	}, nil
}
