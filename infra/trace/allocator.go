package trace

import (
	"reflect"
	"time"

	"memkit/infra/memory"
	"memkit/infra/sequence"
)

// Sink receives events as they happen. Record must not block for long;
// it runs inside the allocator call.
type Sink interface {
	Record(Event)
}

// Allocator forwards to another memory.Allocator and reports every call
// to a Sink.
type Allocator[T any] struct {
	mem  memory.Allocator[T]
	sink Sink
	seq  *sequence.Sequencer
	elem string
	size int
	now  func() time.Time
}

// Discard is a Sink that drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(Event) {}

// Wrap returns a tracing allocator around mem. A nil sink discards
// events; a nil seq starts a fresh sequence at 1.
func Wrap[T any](mem memory.Allocator[T], sink Sink, seq *sequence.Sequencer) *Allocator[T] {
	if sink == nil {
		sink = Discard
	}
	if seq == nil {
		seq = sequence.New(0)
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	return &Allocator[T]{
		mem:  mem,
		sink: sink,
		seq:  seq,
		elem: typ.String(),
		size: int(typ.Size()),
		now:  time.Now,
	}
}

func (a *Allocator[T]) Allocate(n int) []T {
	block := a.mem.Allocate(n)
	a.emit(KindAlloc, len(block), 0)
	return block
}

func (a *Allocator[T]) Reallocate(block []T, n int) []T {
	from := len(block)
	nb := a.mem.Reallocate(block, n)
	a.emit(KindRealloc, len(nb), from)
	return nb
}

func (a *Allocator[T]) Free(block []T) {
	slots := len(block)
	a.mem.Free(block)
	a.emit(KindFree, slots, 0)
}

func (a *Allocator[T]) emit(kind Kind, slots, from int) {
	a.sink.Record(Event{
		Seq:   a.seq.Next(),
		Kind:  kind,
		Elem:  a.elem,
		Slots: slots,
		Bytes: slots * a.size,
		From:  from,
		At:    a.now(),
	})
}
