package memory

import (
	"bytes"
	"sync"
)

// BytePool manages a pool of reusable byte slices used as read chunks
type BytePool struct {
	pool sync.Pool
	size int
}

// NewBytePool creates a new byte pool handing out slices of length size
func NewBytePool(size int) *BytePool {
	return &BytePool{
		size: size,
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		},
	}
}

// Get retrieves a chunk from the pool
func (bp *BytePool) Get() *[]byte {
	b := bp.pool.Get().(*[]byte)
	*b = (*b)[:bp.size]
	return b
}

// Put returns a chunk to the pool for reuse
func (bp *BytePool) Put(b *[]byte) {
	if cap(*b) >= bp.size {
		bp.pool.Put(b)
	}
}

// BufferPool manages a pool of reusable bytes.Buffer instances
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a new buffer pool
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return &bytes.Buffer{}
			},
		},
	}
}

// Get retrieves a buffer from the pool
func (bp *BufferPool) Get() *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns a buffer to the pool for reuse
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	// Only pool buffers under a reasonable size to prevent memory bloat
	if buf.Cap() <= 64*1024 {
		bp.pool.Put(buf)
	}
}
