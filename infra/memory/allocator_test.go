package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedAllocatorTracksBlocks(t *testing.T) {
	a := NewCheckedAllocator[int](nil)

	b1 := a.Allocate(4)
	b1[0] = 7
	b2 := a.Reallocate(b1, 8)
	require.Len(t, b2, 8)
	assert.Equal(t, 7, b2[0])
	assert.Equal(t, 1, a.Live())
	assert.Equal(t, 8, a.LiveSlots())

	a.Free(b2)
	assert.Zero(t, a.Live())
	assert.Equal(t, 2, a.Allocs())
	assert.Equal(t, 2, a.Frees())
}

func TestCheckedAllocatorDoubleFreeIsFatal(t *testing.T) {
	a := NewCheckedAllocator[int](nil)
	b := a.Allocate(4)
	a.Free(b)
	requireFatal(t, func() { a.Free(b) })
	requireFatal(t, func() { a.Free(make([]int, 4)) })
}

func TestCheckedAllocatorSizeMismatchIsFatal(t *testing.T) {
	a := NewCheckedAllocator[int](nil)
	b := a.Allocate(8)
	requireFatal(t, func() { a.Free(b[:4]) })
}

func TestGoAllocatorFreeClears(t *testing.T) {
	var a GoAllocator[*int]
	b := a.Allocate(4)
	v := 1
	b[0] = &v
	a.Free(b)
	assert.Nil(t, b[0])
}

func TestPoolReturnsZeroedBlocks(t *testing.T) {
	p := NewPool[int]()
	for i := 0; i < 10; i++ {
		b := p.Allocate(16)
		require.Len(t, b, 16)
		for _, v := range b {
			require.Zero(t, v)
		}
		for j := range b {
			b[j] = j + 1
		}
		p.Free(b)
	}

	b := p.Allocate(4)
	b[3] = 3
	nb := p.Reallocate(b, 8)
	require.Len(t, nb, 8)
	assert.Equal(t, 3, nb[3])
	assert.Zero(t, nb[7])
}
