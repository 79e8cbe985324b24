package memory

import "sync"

// Pool is an Allocator that recycles freed blocks instead of leaving
// them to the collector. Blocks are kept per exact size; a Buffer only
// ever asks for 4, 8, 16, ... slots, so a handful of classes cover
// every request it makes.
//
// Unlike the primitives, a Pool may be shared by buffers living on
// different goroutines.
type Pool[T any] struct {
	mu      sync.Mutex
	classes map[int]*sync.Pool
}

func NewPool[T any]() *Pool[T] {
	return &Pool[T]{classes: make(map[int]*sync.Pool)}
}

func (p *Pool[T]) class(n int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	sp, ok := p.classes[n]
	if !ok {
		sp = &sync.Pool{
			New: func() any {
				b := make([]T, n)
				return &b
			},
		}
		p.classes[n] = sp
	}
	return sp
}

func (p *Pool[T]) Allocate(n int) []T {
	return *p.class(n).Get().(*[]T)
}

func (p *Pool[T]) Reallocate(block []T, n int) []T {
	nb := p.Allocate(n)
	copy(nb, block)
	p.Free(block)
	return nb
}

// Free clears the block and keeps it for the next request of the same
// size.
func (p *Pool[T]) Free(block []T) {
	if len(block) == 0 {
		return
	}
	clear(block)
	p.class(len(block)).Put(&block)
}
