package pager

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/kvwal/pagewriter/internal/asyncio"
	"github.com/kvwal/pagewriter/internal/cache"
	"github.com/kvwal/pagewriter/internal/page"
	"github.com/kvwal/pagewriter/internal/transform"
	"github.com/kvwal/pagewriter/internal/txn"
)

func newTestWriter(t *testing.T) (*Writer, *memFile, *memFile) {
	t.Helper()
	pool := asyncio.NewPool(2)
	dataFile := newMemFile(pool)
	revFile := newMemFile(pool)
	revCache := cache.NewRevisionCache(16)
	handler := transform.NewChain(transform.Noop{})
	persister := page.NewPersister()
	trx := txn.NewSimple(1)
	reader := NewReader(dataFile, revFile, revCache, handler, nil)

	w, err := NewWriter(context.Background(), dataFile, revFile, revCache, persister, handler, trx, page.Data, reader)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	return w, dataFile, revFile
}

// sevenByteKeyFragment serializes (via Persister) to exactly 13 bytes:
// 1 variant tag + 1 leaf flag + 2 key count + 2 key length + 7 key bytes.
func sevenByteKeyFragment() *page.Fragment {
	return &page.Fragment{Leaf: true, Keys: [][]byte{[]byte("abcdefg")}}
}

// Scenario A: empty writer, single 13-byte fragment page in Data mode.
func TestWrite_EmptyWriterSingleFragment(t *testing.T) {
	w, dataFile, _ := newTestWriter(t)
	ref := &page.Reference{Page: sevenByteKeyFragment()}

	if _, err := w.Write(context.Background(), ref); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ref.Key != 520 {
		t.Fatalf("got offset %d, want 520", ref.Key)
	}

	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw := dataFile.bytes()
	for i := 0; i < 520; i++ {
		if raw[i] != 0 {
			t.Fatalf("byte %d of reserved prefix is non-zero", i)
		}
	}
	length := binary.LittleEndian.Uint32(raw[520:524])
	if length != 13 {
		t.Fatalf("got length prefix %d, want 13", length)
	}
	if len(raw) < 537 {
		t.Fatalf("data file too short: %d bytes", len(raw))
	}
}

// Scenario D: crossing FlushSize triggers exactly one flush and a
// fresh buffer instance.
func TestWrite_FlushThresholdTriggersSingleFlush(t *testing.T) {
	w, _, _ := newTestWriter(t)
	ctx := context.Background()
	firstBuf := w.buf

	// Each UnorderedKeyValuePage serializes to a fixed KVPageSize (4096)
	// bytes plus a 1-byte variant tag and a 4-byte length prefix: ~4101
	// bytes per page. 16 of them comfortably cross FlushSize (64000).
	for i := 0; i < 16; i++ {
		kv := page.NewUnorderedKeyValuePage(uint64(i))
		kv.Set([]byte("k"), []byte("v"))
		ref := &page.Reference{Page: kv}
		if _, err := w.Write(ctx, ref); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	if got := w.Stats().FlushCount; got != 1 {
		t.Fatalf("flush count = %d, want exactly 1 after exceeding FlushSize", got)
	}
	if w.buf == firstBuf {
		t.Fatalf("flush did not install a fresh buffer instance")
	}
}

// TestFlushHonoursPadding verifies the resolved "flush-offset arithmetic"
// open question: a RevisionRootPage written after a smaller,
// not-yet-flushed fragment must land in the data file at its padded
// offset, not at the unpadded candidate offset.
func TestFlushHonoursPadding(t *testing.T) {
	w, dataFile, _ := newTestWriter(t)
	ctx := context.Background()

	fragRef := &page.Reference{Page: sevenByteKeyFragment()}
	if _, err := w.Write(ctx, fragRef); err != nil {
		t.Fatalf("write fragment: %v", err)
	}
	if fragRef.Key != 520 {
		t.Fatalf("fragment offset = %d, want 520", fragRef.Key)
	}

	root := &page.RevisionRootPage{Revision: 0, CommitTimestampMillis: time.Now().UnixMilli(), RootOffset: fragRef.Key}
	rootRef := &page.Reference{Page: root}
	if _, err := w.Write(ctx, rootRef); err != nil {
		t.Fatalf("write revision root: %v", err)
	}
	if rootRef.Key != 768 {
		t.Fatalf("revision root offset = %d, want 768 (next multiple of 256 after 537)", rootRef.Key)
	}
	if rootRef.Key%RevisionRootPageByteAlign != 0 {
		t.Fatalf("revision root offset %d not aligned to %d", rootRef.Key, RevisionRootPageByteAlign)
	}

	if err := w.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw := dataFile.bytes()
	for i := 537; i < 768; i++ {
		if raw[i] != 0 {
			t.Fatalf("padding byte at %d is non-zero, flush did not honour padding", i)
		}
	}
	length := binary.LittleEndian.Uint32(raw[768:772])
	if length == 0 {
		t.Fatalf("revision root length prefix at padded offset is zero")
	}
}

// Scenario B: WriteUberPageReference leaves two byte-identical halves
// of the revisions file's reserved beacon region.
func TestWriteUberPageReference_DualBeacon(t *testing.T) {
	w, _, revFile := newTestWriter(t)
	ctx := context.Background()

	uber := &page.UberPage{RevisionCount: 1, RevisionRootOffset: 520}
	ref := &page.Reference{Page: uber}
	if _, err := w.WriteUberPageReference(ctx, ref); err != nil {
		t.Fatalf("WriteUberPageReference: %v", err)
	}

	raw := revFile.bytes()
	if len(raw) < FirstBeacon {
		t.Fatalf("revisions file shorter than FirstBeacon: %d bytes", len(raw))
	}
	half := FirstBeacon / 2
	first := raw[0:half]
	second := raw[half: 2*half]
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("beacon halves differ at byte %d: %x vs %x", i, first[i], second[i])
		}
	}
}

// Scenario E: TruncateTo reads the stored length prefix and truncates
// just past the end of that revision's payload.
func TestTruncateTo(t *testing.T) {
	w, _, _ := newTestWriter(t)
	ctx := context.Background()

	kv := page.NewUnorderedKeyValuePage(0)
	kv.Set([]byte("a"), []byte("b"))
	kvRef := &page.Reference{Page: kv}
	if _, err := w.Write(ctx, kvRef); err != nil {
		t.Fatalf("write kv: %v", err)
	}

	root := &page.RevisionRootPage{Revision: 3, CommitTimestampMillis: time.Now().UnixMilli(), RootOffset: kvRef.Key}
	rootRef := &page.Reference{Page: root}
	if _, err := w.Write(ctx, rootRef); err != nil {
		t.Fatalf("write revision root: %v", err)
	}
	if err := w.flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if _, err := w.TruncateTo(ctx, 3); err != nil {
		t.Fatalf("TruncateTo: %v", err)
	}

	if w.dataSize <= rootRef.Key {
		t.Fatalf("data size %d did not extend past revision root offset %d", w.dataSize, rootRef.Key)
	}
}

// Scenario F: a second Close is a no-op returning the first result.
func TestClose_Idempotent(t *testing.T) {
	w, _, _ := newTestWriter(t)
	ctx := context.Background()

	if err := w.Close(ctx); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := w.Close(ctx); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

// Scenario 7: Truncate then Truncate leaves both
// files empty with no error.
func TestTruncate_Idempotent(t *testing.T) {
	w, dataFile, revFile := newTestWriter(t)
	ctx := context.Background()

	ref := &page.Reference{Page: sevenByteKeyFragment()}
	if _, err := w.Write(ctx, ref); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if _, err := w.Truncate(ctx); err != nil {
		t.Fatalf("first truncate: %v", err)
	}
	if _, err := w.Truncate(ctx); err != nil {
		t.Fatalf("second truncate: %v", err)
	}
	if len(dataFile.bytes()) != 0 || len(revFile.bytes()) != 0 {
		t.Fatalf("expected both files empty after truncation")
	}
}

func TestWrite_NilPageIsAssertionFailure(t *testing.T) {
	w, _, _ := newTestWriter(t)
	ref := &page.Reference{}
	if _, err := w.Write(context.Background(), ref); !errors.Is(err, ErrAssertionFailure) {
		t.Fatalf("got error %v, want ErrAssertionFailure for nil page", err)
	}
}
