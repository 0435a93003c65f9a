// Package pool provides pooled byte buffers for the per-frame codec hot path.
package pool

import "sync"

const (
	// StreamBufferDefaultSize fits a full RLE stream of a 160x112 raster.
	StreamBufferDefaultSize = 1024 * 4
	// StreamBufferMaxThreshold keeps oversized buffers out of the pool.
	StreamBufferMaxThreshold = 1024 * 64
)

// ByteBuffer wraps a reusable byte slice.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates an empty ByteBuffer with the given capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, defaultSize)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the number of bytes written.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Reset empties the buffer and keeps its capacity.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// WriteByte appends a single byte.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)
	return nil
}

// Write appends data.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// Clone returns a copy of the written bytes that is safe to keep after Put.
func (bb *ByteBuffer) Clone() []byte {
	if len(bb.B) == 0 {
		return []byte{}
	}
	out := make([]byte, len(bb.B))
	copy(out, bb.B)

	return out
}

// ByteBufferPool is a sync.Pool of ByteBuffers with an upper retention bound.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool producing buffers of defaultSize capacity.
// Buffers that grew beyond maxThreshold are dropped on Put; zero disables the bound.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves an empty buffer.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a buffer to the pool.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}
	bb.Reset()
	p.pool.Put(bb)
}

var streamPool = NewByteBufferPool(StreamBufferDefaultSize, StreamBufferMaxThreshold)

// GetStreamBuffer retrieves a buffer from the shared stream pool.
func GetStreamBuffer() *ByteBuffer {
	return streamPool.Get()
}

// PutStreamBuffer returns a buffer to the shared stream pool.
func PutStreamBuffer(bb *ByteBuffer) {
	streamPool.Put(bb)
}
