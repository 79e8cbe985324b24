package memory

// Cell holds one value that can be replaced through a shared *Cell.
// It never hands out a pointer to its contents: callers only ever see
// whole values going in and out, so there is nothing to alias.
//
// A Cell is not safe for concurrent use.
type Cell[T any] struct {
	_     noCopy
	value T
}

func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{value: v}
}

// Set replaces the held value. The previous value is dropped.
func (c *Cell[T]) Set(v T) {
	old := c.value
	c.value = v
	dropInPlace(&old)
}

// Get returns a copy of the held value. Only trivially copyable values
// may be read this way; a value that implements Dropper owns something
// and must be moved out with Replace instead.
func (c *Cell[T]) Get() T {
	if isDropper(&c.value) {
		fatal("memory.Cell: Get on %T, which owns resources; use Replace", c.value)
	}
	return c.value
}

// Replace stores v and hands the previous value back to the caller,
// who now owns it.
func (c *Cell[T]) Replace(v T) T {
	old := c.value
	c.value = v
	return old
}

// Drop drops the held value and leaves the zero value in its place.
func (c *Cell[T]) Drop() {
	var zero T
	c.Set(zero)
}
