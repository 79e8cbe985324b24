package memory

import (
	"math"
	"math/bits"
	"unsafe"
)

// initialCapacity is the block size of the first allocation. Every
// growth after that doubles it.
const initialCapacity = 4

// Buffer is a contiguous, manually grown array of T. Nothing is
// allocated until the first Push. When the block is full it is
// reallocated at twice its size, so appends cost amortized O(1) and at
// most half of the block is ever unused.
//
// Slots [0, Len) hold pushed values, slots [Len, Cap) hold the zero
// value. Drop tears the buffer down: every live element is dropped once
// and the block goes back to the allocator.
//
// A Buffer is not safe for concurrent use.
type Buffer[T any] struct {
	_        noCopy
	alloc    Allocator[T]
	block    []T
	length   int
	capacity int
}

func NewBuffer[T any]() *Buffer[T] {
	return &Buffer[T]{alloc: GoAllocator[T]{}}
}

// NewBufferWithAllocator returns an empty buffer that gets its blocks
// from a.
func NewBufferWithAllocator[T any](a Allocator[T]) *Buffer[T] {
	return &Buffer[T]{alloc: a}
}

func (b *Buffer[T]) Len() int { return b.length }
func (b *Buffer[T]) Cap() int { return b.capacity }

// Get returns a copy of the element at index i. ok is false when i is
// outside [0, Len).
func (b *Buffer[T]) Get(i int) (v T, ok bool) {
	if i < 0 || i >= b.length {
		return v, false
	}
	return b.block[i], true
}

// Push appends v, growing the block first when it is full.
func (b *Buffer[T]) Push(v T) {
	switch {
	case b.capacity == 0:
		b.allocate()
	case b.length == b.capacity:
		b.grow()
	}
	b.block[b.length] = v
	b.length++
}

// Drop drops every live element, then frees the block. The buffer is
// empty afterwards and may be pushed to again.
func (b *Buffer[T]) Drop() {
	for i := 0; i < b.length; i++ {
		dropInPlace(&b.block[i])
	}
	if b.capacity > 0 {
		b.allocator().Free(b.block)
	}
	b.block = nil
	b.length = 0
	b.capacity = 0
}

func (b *Buffer[T]) allocate() {
	checkedSize[T](initialCapacity)
	b.block = b.checkedBlock(b.allocator().Allocate(initialCapacity), initialCapacity)
	b.capacity = initialCapacity
}

func (b *Buffer[T]) grow() {
	if b.capacity > math.MaxInt/2 {
		fatal("memory.Buffer: capacity %d overflows on doubling", b.capacity)
	}
	n := b.capacity * 2
	checkedSize[T](n)
	b.block = b.checkedBlock(b.allocator().Reallocate(b.block, n), n)
	b.capacity = n
}

func (b *Buffer[T]) allocator() Allocator[T] {
	if b.alloc == nil {
		b.alloc = GoAllocator[T]{}
	}
	return b.alloc
}

func (b *Buffer[T]) checkedBlock(block []T, n int) []T {
	if len(block) != n {
		fatal("memory.Buffer: allocation of %d slots returned %d", n, len(block))
	}
	return block
}

// checkedSize returns the byte size of n elements of T. Zero-size
// element types and sizes that do not fit in an int are fatal.
func checkedSize[T any](n int) int {
	var zero T
	size := unsafe.Sizeof(zero)
	if size == 0 {
		fatal("memory.Buffer: zero-size element type %T", zero)
	}
	hi, lo := bits.Mul(uint(n), uint(size))
	if hi != 0 || lo > math.MaxInt {
		fatal("memory.Buffer: %d elements of %d bytes overflow", n, size)
	}
	return int(lo)
}
