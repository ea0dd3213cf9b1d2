// Package buffer provides a small growable byte buffer with a sync.Pool in
// front of it, adapted from mebo's internal/pool package for nch's much
// smaller messages (a handful of values per message versus a multi-metric
// blob), so the default size and discard threshold are scaled down
// accordingly.
package buffer

import "sync"

const (
	// DefaultSize is the capacity a freshly pooled Buffer starts with.
	DefaultSize = 256
	// MaxThreshold is the capacity above which a Buffer is discarded
	// instead of being returned to the pool, to avoid pinning a single
	// oversized message's memory in the pool indefinitely.
	MaxThreshold = 64 * 1024
)

// Buffer is an append-only byte buffer that retains its backing array
// across Reset calls.
type Buffer struct {
	B []byte
}

// New creates a Buffer with the given starting capacity.
func New(size int) *Buffer {
	return &Buffer{B: make([]byte, 0, size)}
}

// Bytes returns the buffer's contents.
func (b *Buffer) Bytes() []byte { return b.B }

// Reset empties the buffer without releasing its backing array.
func (b *Buffer) Reset() { b.B = b.B[:0] }

// Write appends data, growing the backing array if necessary, and
// satisfies io.Writer.
func (b *Buffer) Write(data []byte) (int, error) {
	b.B = append(b.B, data...)
	return len(data), nil
}

// WriteByte appends a single byte.
func (b *Buffer) WriteByte(c byte) error {
	b.B = append(b.B, c)
	return nil
}

var pool = sync.Pool{
	New: func() any { return New(DefaultSize) },
}

// Get retrieves a Buffer from the shared pool.
func Get() *Buffer {
	buf, _ := pool.Get().(*Buffer)
	return buf
}

// Put returns a Buffer to the shared pool, discarding it instead if it grew
// past MaxThreshold.
func Put(b *Buffer) {
	if b == nil {
		return
	}

	if cap(b.B) > MaxThreshold {
		return
	}

	b.Reset()
	pool.Put(b)
}
