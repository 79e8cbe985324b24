package sequence

import "sync/atomic"

// Sequencer hands out strictly increasing sequence numbers for trace
// events. Numbers start after the value the sequencer was created or
// resumed with, so a reopened trace store continues where it stopped.
type Sequencer struct {
	last atomic.Uint64
}

// New returns a sequencer whose first Next is start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Last returns the most recently issued number.
func (s *Sequencer) Last() uint64 {
	return s.last.Load()
}

// Resume moves the sequencer forward to v. It never moves backwards.
func (s *Sequencer) Resume(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}
