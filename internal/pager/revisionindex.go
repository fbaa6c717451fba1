package pager

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/kvwal/pagewriter/internal/cache"
)

// revisionRecordSize is the fixed width of one revisions-index record:
// offset (u64 LE) + commit timestamp in millis (i64 LE).
const revisionRecordSize = 8 + 8

// revisionRecordOffset returns the byte offset of revision r's fixed-size
// record in the revisions file: records are appended sequentially
// immediately after the reserved FirstBeacon region.
func revisionRecordOffset(revision uint64) int64 {
	return FirstBeacon + int64(revision)*revisionRecordSize
}

// encodeRevisionRecord builds the 16-byte on-disk record for a commit.
func encodeRevisionRecord(offset uint64, timestampMillis int64) []byte {
	b := make([]byte, revisionRecordSize)
	binary.LittleEndian.PutUint64(b[0:8], offset)
	binary.LittleEndian.PutUint64(b[8:16], uint64(timestampMillis))
	return b
}

func decodeRevisionRecord(b []byte) (offset uint64, timestampMillis int64) {
	offset = binary.LittleEndian.Uint64(b[0:8])
	timestampMillis = int64(binary.LittleEndian.Uint64(b[8:16]))
	return
}

// resolveRevision returns the cached RevisionFileData for revision,
// populating the cache from the on-disk revisions-index record on a miss.
// A 5-second timeout applies if ctx carries no deadline of its own.
func resolveRevision(ctx context.Context, revFile AsyncFile, revCache *cache.RevisionCache, revision uint64) (cache.RevisionFileData, error) {
	if data, ok := revCache.Get(revision); ok {
		return data, nil
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	record := make([]byte, revisionRecordSize)
	n, err := revFile.Read(record, revisionRecordOffset(revision)).Join(ctx)
	if err != nil {
		return cache.RevisionFileData{}, fmt.Errorf("%w: read revision %d index record: %v", ErrIllegalState, revision, err)
	}
	if n < revisionRecordSize {
		return cache.RevisionFileData{}, fmt.Errorf("%w: short revision %d index record (%d bytes)", ErrIllegalState, revision, n)
	}

	offset, timestampMillis := decodeRevisionRecord(record)
	data := cache.RevisionFileData{Offset: offset, Timestamp: time.UnixMilli(timestampMillis)}
	revCache.Put(revision, data)
	return data, nil
}
