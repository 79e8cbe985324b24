package memory

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ledger counts how often each resource id was dropped.
type ledger struct {
	dropped map[int]int
}

func newLedger() *ledger {
	return &ledger{dropped: make(map[int]int)}
}

type resource struct {
	id int
	l  *ledger
}

func (r resource) Drop() {
	r.l.dropped[r.id]++
}

// requireFatal runs fn and checks it panicked with an assertion failure.
func requireFatal(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a fatal panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.HasAssertionFailure(err), "panic %v is not an assertion failure", err)
	}()
	fn()
}

func TestNilOwnersAreSkipped(t *testing.T) {
	var c Cell[*Rc[int]]
	assert.Nil(t, c.Get(), "a nil handle owns nothing and may be read")

	rc := NewRc(1)
	c.Set(rc)
	assert.Equal(t, 1, rc.Count())
	c.Drop()
	c.Drop()

	b := NewBuffer[*Rc[int]]()
	b.Push(nil)
	b.Push(NewRc(2))
	b.Drop()
	assert.Zero(t, b.Len())

	l := newLedger()
	inner := NewRc(resource{id: 3, l: l})
	rcCell := NewRefCell(inner)
	rcCell.Drop()
	rcCell.Drop()
	assert.Equal(t, 1, l.dropped[3])
}
