package asyncio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPool_SubmitAndJoin(t *testing.T) {
	pool := NewPool(2)
	f := Submit(pool, func() (int, error) { return 42, nil })

	got, err := f.Join(context.Background())
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	if !f.Ready() {
		t.Fatal("future should be ready after Join returns")
	}

	submitted, completed := pool.Stats()
	if submitted != 1 || completed != 1 {
		t.Fatalf("stats = %d submitted, %d completed; want 1, 1", submitted, completed)
	}
}

func TestPool_SubmitPropagatesError(t *testing.T) {
	pool := NewPool(1)
	wantErr := errors.New("boom")
	f := Submit(pool, func() (int, error) { return 0, wantErr })

	_, err := f.Join(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("got error %v, want %v", err, wantErr)
	}
}

func TestFuture_JoinRespectsContextCancellation(t *testing.T) {
	pool := NewPool(1)
	block := make(chan struct{})
	f := Submit(pool, func() (int, error) {
		<-block
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Join(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got error %v, want context.DeadlineExceeded", err)
	}
	close(block)
}
