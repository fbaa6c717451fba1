package pager

import (
	"os"

	"github.com/kvwal/pagewriter/internal/asyncio"
)

// AsyncFile is the abstraction the writer performs every durability-relevant
// operation through. Each method dispatches onto a shared worker pool and
// returns a Future.
type AsyncFile interface {
	Read(buf []byte, off int64) *asyncio.Future[int]
	Write(buf []byte, off int64) *asyncio.Future[int]
	Size() *asyncio.Future[int64]
	DataSync() *asyncio.Future[struct{}]
	Truncate(length int64) *asyncio.Future[struct{}]
	Close() error
}

// osAsyncFile implements AsyncFile over a regular *os.File, offloading every
// call onto a shared asyncio.Pool.
type osAsyncFile struct {
	f *os.File
	pool *asyncio.Pool
}

// OpenAsyncFile opens (creating if necessary) the file at path and wraps it
// so all operations are dispatched through pool.
func OpenAsyncFile(path string, pool *asyncio.Pool) (AsyncFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return &osAsyncFile{f: f, pool: pool}, nil
}

func (a *osAsyncFile) Read(buf []byte, off int64) *asyncio.Future[int] {
	return asyncio.Submit(a.pool, func() (int, error) {
		return a.f.ReadAt(buf, off)
	})
}

func (a *osAsyncFile) Write(buf []byte, off int64) *asyncio.Future[int] {
	return asyncio.Submit(a.pool, func() (int, error) {
		return a.f.WriteAt(buf, off)
	})
}

func (a *osAsyncFile) Size() *asyncio.Future[int64] {
	return asyncio.Submit(a.pool, func() (int64, error) {
		fi, err := a.f.Stat()
		if err != nil {
			return 0, err
		}
		return fi.Size(), nil
	})
}

func (a *osAsyncFile) DataSync() *asyncio.Future[struct{}] {
	return asyncio.Submit(a.pool, func() (struct{}, error) {
		return struct{}{}, a.f.Sync()
	})
}

func (a *osAsyncFile) Truncate(length int64) *asyncio.Future[struct{}] {
	return asyncio.Submit(a.pool, func() (struct{}, error) {
		return struct{}{}, a.f.Truncate(length)
	})
}

func (a *osAsyncFile) Close() error {
	return a.f.Close()
}
