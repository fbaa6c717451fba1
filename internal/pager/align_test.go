package pager

import (
	"testing"

	"github.com/kvwal/pagewriter/internal/page"
)

func TestNextOffset_FragmentPadsBefore(t *testing.T) {
	off, before, after := NextOffset(520, page.VariantFragment, 13, page.Data)
	if off != 520 || before != 0 || after != 0 {
		t.Fatalf("got offset=%d before=%d after=%d, want 520/0/0", off, before, after)
	}
}

func TestNextOffset_RevisionRootAlignsTo256(t *testing.T) {
	off, before, _ := NextOffset(600, page.VariantRevisionRoot, 20, page.Data)
	if off != 768 {
		t.Fatalf("got offset=%d, want 768", off)
	}
	if before != 168 {
		t.Fatalf("got padBefore=%d, want 168", before)
	}
}

func TestNextOffset_UberPadsAfter(t *testing.T) {
	off, before, after := NextOffset(1000, page.VariantUber, 40, page.Data)
	if off != 1000 || before != 0 {
		t.Fatalf("uber page must not pad before: offset=%d before=%d", off, before)
	}
	entrySize := OtherBeacon + 40 + after
	if entrySize%UberPageByteAlign != 0 {
		t.Fatalf("entry size %d not aligned to %d", entrySize, UberPageByteAlign)
	}
}

func TestNextOffset_TransactionIntentLogNeverPads(t *testing.T) {
	off, before, after := NextOffset(601, page.VariantFragment, 13, page.TransactionIntentLog)
	if off != 601 || before != 0 || after != 0 {
		t.Fatalf("intent-log writes must not be padded: offset=%d before=%d after=%d", off, before, after)
	}
}

func TestFirstAppendOffset(t *testing.T) {
	got := FirstAppendOffset()
	if got != 520 {
		t.Fatalf("got %d, want 520 (FirstBeacon+1 rounded up to a multiple of 8)", got)
	}
}

func TestAlignPow2(t *testing.T) {
	cases := []struct{ offset, align, want int64 }{
		{0, 8, 0},
		{1, 8, 8},
		{256, 256, 256},
		{257, 256, 512},
	}
	for _, c := range cases {
		if got := alignPow2(c.offset, c.align); got != c.want {
			t.Fatalf("alignPow2(%d, %d) = %d, want %d", c.offset, c.align, got, c.want)
		}
	}
}

func TestAlignModulo(t *testing.T) {
	cases := []struct{ offset, align, want int64 }{
		{0, 100, 0},
		{44, 100, 100},
		{100, 100, 100},
		{101, 100, 200},
	}
	for _, c := range cases {
		if got := alignModulo(c.offset, c.align); got != c.want {
			t.Fatalf("alignModulo(%d, %d) = %d, want %d", c.offset, c.align, got, c.want)
		}
	}
}
