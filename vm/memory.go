package vm

import (
	"sync"

	"github.com/holiman/uint256"
)

// ---------------------------------------------------------------------------
// Byte-addressable memory
// ---------------------------------------------------------------------------

// Memory is the expandable byte memory of one frame. It grows in 32-byte
// words; its length is always a whole number of words. Reads past the
// current length observe zeroes only after an explicit Resize; the caller
// charges expansion gas before any mutation.
type Memory struct {
	store       []byte
	lastGasCost uint64
}

var memoryPool = sync.Pool{
	New: func() interface{} {
		return &Memory{}
	},
}

// NewMemory fetches a cleared memory from the pool.
func NewMemory() *Memory {
	return memoryPool.Get().(*Memory)
}

// Free clears the memory and returns it to the pool.
func (m *Memory) Free() {
	// Oversized buffers are dropped rather than recycled.
	const maxBufferSize = 16 << 10
	if cap(m.store) <= maxBufferSize {
		m.store = m.store[:0]
		m.lastGasCost = 0
		memoryPool.Put(m)
	}
}

// Set writes size bytes at offset. The region must already be resized.
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size > 0 {
		if offset+size > uint64(len(m.store)) {
			panic("invalid memory: store empty")
		}
		copy(m.store[offset:offset+size], value)
	}
}

// Set32 writes a word, left-padded to 32 bytes, at offset. The region
// must already be resized.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("invalid memory: store empty")
	}
	val.PutUint256(m.store[offset:])
}

// Resize grows memory to size bytes, rounded up to a whole word count.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) < size {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
}

// GetCopy returns a fresh copy of size bytes at offset.
func (m *Memory) GetCopy(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	cpy := make([]byte, size)
	// Zero-fill beyond the current length never happens in practice:
	// expansion gas was charged and Resize called before any access.
	copy(cpy, m.store[offset:offset+size])
	return cpy
}

// GetPtr returns a view of size bytes at offset, valid until the next
// mutation.
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Copy moves length bytes from src to dst, handling overlap.
func (m *Memory) Copy(dst, src, length uint64) {
	if length == 0 {
		return
	}
	copy(m.store[dst:], m.store[src:src+length])
}

// Len returns the current memory length in bytes.
func (m *Memory) Len() int {
	return len(m.store)
}

// Data returns the backing slice.
func (m *Memory) Data() []byte {
	return m.store
}
