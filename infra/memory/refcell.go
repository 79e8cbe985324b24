package memory

import "strconv"

// BorrowKind is the borrow mode a RefCell is currently in.
type BorrowKind uint8

const (
	Unshared BorrowKind = iota
	Shared
	Exclusive
)

// BorrowState is the bookkeeping a RefCell keeps in its Cell. Readers
// is the number of live Ref guards and is only non-zero when Kind is
// Shared.
type BorrowState struct {
	Kind    BorrowKind
	Readers int
}

func (s BorrowState) String() string {
	switch s.Kind {
	case Unshared:
		return "unshared"
	case Shared:
		return "shared(" + strconv.Itoa(s.Readers) + ")"
	case Exclusive:
		return "exclusive"
	default:
		return "unknown"
	}
}

// RefCell moves Go's missing aliasing rules to run time: any number of
// shared borrows, or exactly one exclusive borrow, never both. A borrow
// that would break this is refused, not blocked.
//
// A RefCell is not safe for concurrent use; the state machine only
// orders borrows made from a single goroutine.
type RefCell[T any] struct {
	_     noCopy
	value T
	state Cell[BorrowState]
}

func NewRefCell[T any](v T) *RefCell[T] {
	return &RefCell[T]{value: v}
}

// State reports the current borrow state.
func (c *RefCell[T]) State() BorrowState {
	return c.state.Get()
}

// Borrow takes a shared borrow. It fails while an exclusive borrow is
// live.
func (c *RefCell[T]) Borrow() (*Ref[T], bool) {
	s := c.state.Get()
	switch s.Kind {
	case Unshared:
		c.state.Set(BorrowState{Kind: Shared, Readers: 1})
	case Shared:
		c.state.Set(BorrowState{Kind: Shared, Readers: s.Readers + 1})
	default:
		return nil, false
	}
	return &Ref[T]{cell: c}, true
}

// BorrowMut takes the exclusive borrow. It fails while any other borrow
// is live.
func (c *RefCell[T]) BorrowMut() (*RefMut[T], bool) {
	if c.state.Get().Kind != Unshared {
		return nil, false
	}
	c.state.Set(BorrowState{Kind: Exclusive})
	return &RefMut[T]{cell: c}, true
}

// Drop drops the held value. Dropping a RefCell while a guard is still
// live is fatal: the guard would outlive what it borrows.
func (c *RefCell[T]) Drop() {
	if s := c.state.Get(); s.Kind != Unshared {
		fatal("memory.RefCell: dropped while %s", s)
	}
	old := c.value
	var zero T
	c.value = zero
	dropInPlace(&old)
}

// Ref is a live shared borrow. Drop it to release the borrow.
type Ref[T any] struct {
	cell *RefCell[T]
}

func (r *Ref[T]) Value() T {
	return r.owner("Value").value
}

func (r *Ref[T]) Drop() {
	c := r.owner("Drop")
	r.cell = nil

	s := c.state.Get()
	switch {
	case s.Kind == Shared && s.Readers == 1:
		c.state.Set(BorrowState{Kind: Unshared})
	case s.Kind == Shared && s.Readers > 1:
		c.state.Set(BorrowState{Kind: Shared, Readers: s.Readers - 1})
	default:
		fatal("memory.RefCell: shared borrow released in state %s", s)
	}
}

func (r *Ref[T]) owner(op string) *RefCell[T] {
	if r.cell == nil {
		fatal("memory.Ref: %s after release", op)
	}
	return r.cell
}

// RefMut is the live exclusive borrow. Drop it to release the borrow.
type RefMut[T any] struct {
	cell *RefCell[T]
}

func (r *RefMut[T]) Value() T {
	return r.owner("Value").value
}

// Set overwrites the borrowed value. The old value is dropped.
func (r *RefMut[T]) Set(v T) {
	c := r.owner("Set")
	old := c.value
	c.value = v
	dropInPlace(&old)
}

// Ptr gives in-place access to the value. The pointer must not be used
// after the guard is dropped.
func (r *RefMut[T]) Ptr() *T {
	return &r.owner("Ptr").value
}

func (r *RefMut[T]) Drop() {
	c := r.owner("Drop")
	r.cell = nil

	if s := c.state.Get(); s.Kind != Exclusive {
		fatal("memory.RefCell: exclusive borrow released in state %s", s)
	}
	c.state.Set(BorrowState{Kind: Unshared})
}

func (r *RefMut[T]) owner(op string) *RefCell[T] {
	if r.cell == nil {
		fatal("memory.RefMut: %s after release", op)
	}
	return r.cell
}
