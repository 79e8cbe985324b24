package memory

import "sync"

// Allocator hands out and takes back fixed-size blocks of T. A block
// returned by Allocate or Reallocate must have exactly n slots, all
// holding the zero value beyond whatever was copied in.
type Allocator[T any] interface {
	Allocate(n int) []T
	// Reallocate returns a block of n slots whose prefix holds the
	// contents of block. The old block is released.
	Reallocate(block []T, n int) []T
	Free(block []T)
}

// GoAllocator allocates blocks from the Go heap.
type GoAllocator[T any] struct{}

func (GoAllocator[T]) Allocate(n int) []T {
	return make([]T, n)
}

func (a GoAllocator[T]) Reallocate(block []T, n int) []T {
	nb := a.Allocate(n)
	copy(nb, block)
	a.Free(block)
	return nb
}

// Free clears the block so it no longer keeps its elements reachable.
func (GoAllocator[T]) Free(block []T) {
	clear(block)
}

// CheckedAllocator wraps an Allocator and keeps track of every block it
// has handed out. Freeing a block twice, or one it never issued, is
// fatal. Tests use Live and LiveSlots to prove nothing leaked.
type CheckedAllocator[T any] struct {
	mu     sync.Mutex
	mem    Allocator[T]
	live   map[*T]int
	allocs int
	frees  int
}

// NewCheckedAllocator wraps mem; a nil mem means GoAllocator.
func NewCheckedAllocator[T any](mem Allocator[T]) *CheckedAllocator[T] {
	if mem == nil {
		mem = GoAllocator[T]{}
	}
	return &CheckedAllocator[T]{mem: mem, live: make(map[*T]int)}
}

func (a *CheckedAllocator[T]) Allocate(n int) []T {
	block := a.mem.Allocate(n)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.track(block)
	return block
}

func (a *CheckedAllocator[T]) Reallocate(block []T, n int) []T {
	a.mu.Lock()
	a.untrack(block)
	a.mu.Unlock()

	nb := a.mem.Reallocate(block, n)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.track(nb)
	return nb
}

func (a *CheckedAllocator[T]) Free(block []T) {
	a.mu.Lock()
	a.untrack(block)
	a.mu.Unlock()

	a.mem.Free(block)
}

func (a *CheckedAllocator[T]) track(block []T) {
	if len(block) == 0 {
		return
	}
	a.live[&block[0]] = len(block)
	a.allocs++
}

func (a *CheckedAllocator[T]) untrack(block []T) {
	if len(block) == 0 {
		return
	}
	n, ok := a.live[&block[0]]
	if !ok {
		fatal("memory.CheckedAllocator: free of a block that is not live (%d slots)", len(block))
	}
	if n != len(block) {
		fatal("memory.CheckedAllocator: block issued with %d slots freed with %d", n, len(block))
	}
	delete(a.live, &block[0])
	a.frees++
}

// Live is the number of blocks handed out and not yet freed.
func (a *CheckedAllocator[T]) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// LiveSlots is the total size of all live blocks, in elements.
func (a *CheckedAllocator[T]) LiveSlots() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, n := range a.live {
		total += n
	}
	return total
}

func (a *CheckedAllocator[T]) Allocs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs
}

func (a *CheckedAllocator[T]) Frees() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frees
}
