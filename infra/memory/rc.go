package memory

// rcInner is the single block shared by every handle to one value.
type rcInner[T any] struct {
	value T
	count Cell[int]
}

// Rc is one counted handle to a shared value. The value lives until
// the last handle is dropped, and is dropped synchronously at that
// moment. Handles give shared access only; wrap the value in a RefCell
// when it needs to change.
//
// The count is a plain Cell, so handles to one value must stay on one
// goroutine.
type Rc[T any] struct {
	_     noCopy
	inner *rcInner[T]
}

func NewRc[T any](v T) *Rc[T] {
	inner := &rcInner[T]{value: v}
	inner.count.Set(1)
	return &Rc[T]{inner: inner}
}

// Clone returns a new handle to the same value.
func (r *Rc[T]) Clone() *Rc[T] {
	inner := r.live("Clone")
	inner.count.Set(inner.count.Get() + 1)
	return &Rc[T]{inner: inner}
}

// Value returns the shared value. For pointer types this is the shared
// pointer itself, not a copy of what it points at.
func (r *Rc[T]) Value() T {
	return r.live("Value").value
}

// Count reports how many live handles share the value.
func (r *Rc[T]) Count() int {
	return r.live("Count").count.Get()
}

// Drop releases this handle. Dropping the last handle drops the value
// and releases the shared block.
func (r *Rc[T]) Drop() {
	inner := r.live("Drop")
	r.inner = nil

	c := inner.count.Get()
	if c > 1 {
		inner.count.Set(c - 1)
		return
	}
	if c != 1 {
		fatal("memory.Rc: live handle observed count %d", c)
	}
	inner.count.Set(0)
	dropInPlace(&inner.value)
	var zero T
	inner.value = zero
}

func (r *Rc[T]) live(op string) *rcInner[T] {
	if r.inner == nil {
		fatal("memory.Rc: %s on a dropped handle", op)
	}
	return r.inner
}
