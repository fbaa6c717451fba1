package page

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// UberMagic identifies a valid uber page, following the same fixed
// magic-number convention used by the on-disk superblock header.
const UberMagic = "PWUBER01"

// UberFormatVersion is the on-disk format version for UberPage.
const UberFormatVersion uint32 = 1

// uberEncodedSize is the fixed byte size of an encoded UberPage: magic (8) +
// format version (4) + revision count (8) + revision-root offset (8) +
// CRC32 (4).
const uberEncodedSize = 8 + 4 + 8 + 8 + 4

// UberPage is the root-of-roots: a durable marker pointing at the current
// revision's root page. Two copies are written per committed
// session to survive a torn write.
type UberPage struct {
	// RevisionCount is the number of revisions committed so far, including
	// the one this uber page points at.
	RevisionCount uint64
	// RevisionRootOffset is the absolute data-file offset of the
	// RevisionRootPage this uber page points at.
	RevisionRootOffset int64
}

func (p *UberPage) Variant() Variant { return VariantUber }

// EncodeUber serializes an UberPage to its fixed-size on-disk form.
func EncodeUber(p *UberPage) []byte {
	buf := make([]byte, uberEncodedSize)
	copy(buf[0:8], UberMagic)
	binary.LittleEndian.PutUint32(buf[8:12], UberFormatVersion)
	binary.LittleEndian.PutUint64(buf[12:20], p.RevisionCount)
	binary.LittleEndian.PutUint64(buf[20:28], uint64(p.RevisionRootOffset))
	crc := crc32.ChecksumIEEE(buf[:28])
	binary.LittleEndian.PutUint32(buf[28:32], crc)
	return buf
}

// DecodeUber reverses EncodeUber, validating the magic and checksum.
func DecodeUber(buf []byte) (*UberPage, error) {
	if len(buf) < uberEncodedSize {
		return nil, fmt.Errorf("uber page too short: %d bytes", len(buf))
	}
	if string(buf[0:8]) != UberMagic {
		return nil, fmt.Errorf("bad uber page magic %q", buf[0:8])
	}
	version := binary.LittleEndian.Uint32(buf[8:12])
	if version != UberFormatVersion {
		return nil, fmt.Errorf("unsupported uber page version %d", version)
	}
	crc := binary.LittleEndian.Uint32(buf[28:32])
	if computed := crc32.ChecksumIEEE(buf[:28]); computed != crc {
		return nil, fmt.Errorf("uber page CRC mismatch: stored=%08x computed=%08x", crc, computed)
	}
	return &UberPage{
		RevisionCount: binary.LittleEndian.Uint64(buf[12:20]),
		RevisionRootOffset: int64(binary.LittleEndian.Uint64(buf[20:28])),
	}, nil
}
