package pool

import (
	"sync"
)

// BufferPool implements a pool of byte slices for efficient memory reuse
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a new buffer pool with buffers of the specified capacity
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, 0, size)
				return &buffer
			},
		},
	}
}

// Get retrieves a buffer from the pool or creates a new one if none are available
func (bp *BufferPool) Get() *[]byte {
	return bp.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool for reuse
func (bp *BufferPool) Put(buffer *[]byte) {
	// Reset buffer length but keep capacity
	*buffer = (*buffer)[:0]
	bp.pool.Put(buffer)
}

// RuneBufferPool implements a pool of rune slices
type RuneBufferPool struct {
	pool sync.Pool
}

// NewRuneBufferPool creates a new pool of rune slices with the specified capacity
func NewRuneBufferPool(size int) *RuneBufferPool {
	return &RuneBufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				buffer := make([]rune, 0, size)
				return &buffer
			},
		},
	}
}

// Get retrieves a rune buffer from the pool
func (rbp *RuneBufferPool) Get() *[]rune {
	return rbp.pool.Get().(*[]rune)
}

// Put returns a rune buffer to the pool
func (rbp *RuneBufferPool) Put(buffer *[]rune) {
	*buffer = (*buffer)[:0]
	rbp.pool.Put(buffer)
}

// AppendRunes decodes s into the pooled buffer and returns it.
func (rbp *RuneBufferPool) AppendRunes(buffer *[]rune, s string) []rune {
	for _, r := range s {
		*buffer = append(*buffer, r)
	}
	return *buffer
}

// IntBufferPool implements a pool of int slices used as flat dynamic-programming tables
type IntBufferPool struct {
	pool  sync.Pool
	limit int
}

// NewIntBufferPool creates a new pool of int slices with the specified capacity.
// Buffers that grew beyond limit elements are dropped on Put instead of pooled.
func NewIntBufferPool(size, limit int) *IntBufferPool {
	return &IntBufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				buffer := make([]int, 0, size)
				return &buffer
			},
		},
		limit: limit,
	}
}

// Get retrieves an int buffer of exactly n elements. Contents are unspecified.
func (ibp *IntBufferPool) Get(n int) *[]int {
	buffer := ibp.pool.Get().(*[]int)
	if cap(*buffer) < n {
		*buffer = make([]int, n)
	} else {
		*buffer = (*buffer)[:n]
	}
	return buffer
}

// Put returns an int buffer to the pool
func (ibp *IntBufferPool) Put(buffer *[]int) {
	if cap(*buffer) > ibp.limit {
		return
	}
	*buffer = (*buffer)[:0]
	ibp.pool.Put(buffer)
}
