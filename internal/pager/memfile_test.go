package pager

import (
	"sync"

	"github.com/kvwal/pagewriter/internal/asyncio"
)

// memFile is an in-memory AsyncFile backed by a growable byte slice, used
// so pager tests can exercise alignment, flush, and truncation logic
// without touching the filesystem.
type memFile struct {
	mu   sync.Mutex
	data []byte
	pool *asyncio.Pool
}

func newMemFile(pool *asyncio.Pool) *memFile {
	return &memFile{pool: pool}
}

func (m *memFile) Read(buf []byte, off int64) *asyncio.Future[int] {
	return asyncio.Submit(m.pool, func() (int, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if off < 0 || off > int64(len(m.data)) {
			return 0, nil
		}
		n := copy(buf, m.data[off:])
		return n, nil
	})
}

func (m *memFile) Write(buf []byte, off int64) *asyncio.Future[int] {
	return asyncio.Submit(m.pool, func() (int, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		end := off + int64(len(buf))
		if end > int64(len(m.data)) {
			grown := make([]byte, end)
			copy(grown, m.data)
			m.data = grown
		}
		copy(m.data[off:end], buf)
		return len(buf), nil
	})
}

func (m *memFile) Size() *asyncio.Future[int64] {
	return asyncio.Submit(m.pool, func() (int64, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return int64(len(m.data)), nil
	})
}

func (m *memFile) DataSync() *asyncio.Future[struct{}] {
	return asyncio.Submit(m.pool, func() (struct{}, error) {
		return struct{}{}, nil
	})
}

func (m *memFile) Truncate(length int64) *asyncio.Future[struct{}] {
	return asyncio.Submit(m.pool, func() (struct{}, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if length <= int64(len(m.data)) {
			m.data = m.data[:length]
		} else {
			grown := make([]byte, length)
			copy(grown, m.data)
			m.data = grown
		}
		return struct{}{}, nil
	})
}

func (m *memFile) Close() error { return nil }

func (m *memFile) bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}
