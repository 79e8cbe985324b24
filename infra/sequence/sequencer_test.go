package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencerNext(t *testing.T) {
	s := New(0)
	assert.Equal(t, uint64(1), s.Next())
	assert.Equal(t, uint64(2), s.Next())
	assert.Equal(t, uint64(2), s.Last())
}

func TestSequencerResume(t *testing.T) {
	s := New(10)
	s.Resume(40)
	assert.Equal(t, uint64(41), s.Next())

	s.Resume(5)
	assert.Equal(t, uint64(42), s.Next(), "resume must not move backwards")
}
