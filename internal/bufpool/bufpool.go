// Package bufpool recycles the buffers used to build command lines.
package bufpool

import (
	"bytes"
	"sync"
)

type Pool struct {
	pool    sync.Pool
	maxSize int
}

// New returns a pool of buffers preallocated to initialSize bytes.
// Buffers that grew past maxSize are dropped instead of recycled.
func New(initialSize, maxSize int) *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, initialSize))
			},
		},
		maxSize: maxSize,
	}
}

func (p *Pool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

func (p *Pool) Put(buf *bytes.Buffer) {
	if buf.Cap() > p.maxSize {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}
