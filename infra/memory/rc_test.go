package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRcCloneSharesValue(t *testing.T) {
	a := NewRc("shared")
	b := a.Clone()

	assert.Equal(t, "shared", a.Value())
	assert.Equal(t, "shared", b.Value())
	assert.Equal(t, 2, a.Count())
	assert.Equal(t, 2, b.Count())
}

func TestRcValueDroppedWithLastHandle(t *testing.T) {
	l := newLedger()
	root := NewRc(resource{id: 1, l: l})

	const k = 5
	handles := []*Rc[resource]{root}
	for i := 0; i < k; i++ {
		handles = append(handles, root.Clone())
	}
	require.Equal(t, k+1, root.Count())

	for i := len(handles) - 1; i > 0; i-- {
		handles[i].Drop()
		require.Zero(t, l.dropped[1], "value dropped with %d handles still live", i)
		require.Equal(t, i, root.Count())
	}

	root.Drop()
	assert.Equal(t, 1, l.dropped[1])
}

func TestRcDropOrderDoesNotMatter(t *testing.T) {
	l := newLedger()
	a := NewRc(resource{id: 1, l: l})
	b := a.Clone()
	c := b.Clone()

	a.Drop()
	c.Drop()
	assert.Equal(t, 1, b.Count())
	assert.Equal(t, 1, b.Value().id)
	assert.Zero(t, l.dropped[1])

	b.Drop()
	assert.Equal(t, 1, l.dropped[1])
}

func TestRcWithRefCell(t *testing.T) {
	shared := NewRc(NewRefCell(0))
	h := shared.Clone()

	m, ok := h.Value().BorrowMut()
	require.True(t, ok)
	*m.Ptr() += 10
	m.Drop()

	r, ok := shared.Value().Borrow()
	require.True(t, ok)
	assert.Equal(t, 10, r.Value())
	r.Drop()

	h.Drop()
	shared.Drop()
}

func TestRcUseAfterDropIsFatal(t *testing.T) {
	a := NewRc(1)
	b := a.Clone()
	a.Drop()

	requireFatal(t, func() { a.Value() })
	requireFatal(t, func() { a.Clone() })
	requireFatal(t, func() { a.Drop() })
	assert.Equal(t, 1, b.Count(), "a fatal misuse must not touch the count")
}
