package optimize

import (
	"bytes"
	"sync"
)

// maxRetainedCapacity bounds the buffers kept in the pool so a single
// oversized frame does not pin memory for the life of the process.
const maxRetainedCapacity = 16 << 20

// BufferPool recycles byte buffers used by the frame encoders.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a pool whose buffers start at initialCapacity.
func NewBufferPool(initialCapacity int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, initialCapacity))
			},
		},
	}
}

// Get returns an empty buffer ready for use.
func (p *BufferPool) Get() *bytes.Buffer {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns a buffer to the pool. Buffers that grew past the retention
// cap are dropped instead.
func (p *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxRetainedCapacity {
		return
	}
	p.pool.Put(buf)
}
