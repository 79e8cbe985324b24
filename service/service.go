package service

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"memkit/infra/kafka"
	"memkit/infra/memory"
	"memkit/infra/sequence"
	"memkit/infra/trace"
	"memkit/infra/trace/store"
	"memkit/jobs/broadcaster"
)

/*
Service runs the memory primitives end to end and ships the allocation
trace they produce:

- a traced, leak-checked Buffer is filled and torn down
- a RefCell counter is shared through Rc handles held in a Buffer
- the trace goes to the pebble store and, from there, to Kafka
*/
type Service struct {
	cfg          Config
	log          *slog.Logger
	newPublisher func(kafka.Config) (kafka.Publisher, error)
}

// Report is what one run observed.
type Report struct {
	Pushed   int
	Len      int
	Cap      int
	Growths  int
	Events   int
	Stored   int
	Relayed  int
	Counter  int
	Handles  int
	LastSeq  uint64
	Allocs   int
	Frees    int
	Verified bool
}

var ErrLeak = errors.New("allocation leaked")

func New(cfg Config, log *slog.Logger) (*Service, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		cfg:          cfg,
		log:          log.With("component", "service"),
		newPublisher: kafka.New,
	}, nil
}

//
// ──────────────────────────────────────────────────────────
// Run
// ──────────────────────────────────────────────────────────
//

// Run exercises the primitives, then persists and relays the trace when
// a store and brokers are configured.
func (s *Service) Run(ctx context.Context) (Report, error) {
	var (
		st  *store.Store
		seq = sequence.New(0)
	)
	if s.cfg.StoreDir != "" {
		var err error
		if st, err = store.Open(s.cfg.StoreDir); err != nil {
			return Report{}, err
		}
		defer st.Close()

		last, err := st.LastSeq()
		if err != nil {
			return Report{}, err
		}
		seq.Resume(last)
	}

	rec := &trace.Recorder{}
	rep, err := s.Exercise(rec, seq)
	if err != nil {
		return rep, err
	}
	events := rec.Events()
	rep.Events = len(events)
	rep.LastSeq = seq.Last()

	if st == nil {
		return rep, nil
	}
	if err := st.Append(events...); err != nil {
		return rep, err
	}
	rep.Stored = len(events)
	s.log.Info("trace stored", "dir", s.cfg.StoreDir, "events", rep.Stored, "last_seq", rep.LastSeq)

	if len(s.cfg.Kafka.Brokers) == 0 {
		return rep, nil
	}
	pub, err := s.newPublisher(s.cfg.Kafka)
	if err != nil {
		return rep, err
	}
	bc := broadcaster.New(st, pub, s.log)
	defer bc.Close()

	rep.Relayed, err = bc.RunOnce(ctx)
	return rep, err
}

// Exercise pushes 1..Count through a traced, checked buffer and runs the
// shared counter scenario. Trace events go to sink.
func (s *Service) Exercise(sink trace.Sink, seq *sequence.Sequencer) (Report, error) {
	rep, err := s.fillBuffer(sink, seq)
	if err != nil {
		return rep, err
	}
	rep.Counter, rep.Handles, err = s.shareCounter()
	if err != nil {
		return rep, err
	}
	rep.Verified = true
	return rep, nil
}

func (s *Service) fillBuffer(sink trace.Sink, seq *sequence.Sequencer) (Report, error) {
	var base memory.Allocator[int]
	switch s.cfg.Allocator {
	case AllocatorPool:
		base = memory.NewPool[int]()
	default:
		base = memory.GoAllocator[int]{}
	}
	checked := memory.NewCheckedAllocator(base)
	buf := memory.NewBufferWithAllocator[int](trace.Wrap[int](checked, sink, seq))

	rep := Report{Pushed: s.cfg.Count}
	prevCap := 0
	for i := 1; i <= s.cfg.Count; i++ {
		buf.Push(i)
		if v, ok := buf.Get(i - 1); !ok || v != i {
			return rep, errors.Newf("get(%d) = %d, %t after pushing %d", i-1, v, ok, i)
		}
		if c := buf.Cap(); c != prevCap {
			rep.Growths++
			prevCap = c
		}
	}
	rep.Len, rep.Cap = buf.Len(), buf.Cap()
	if want := expectedCap(s.cfg.Count); rep.Len != s.cfg.Count || rep.Cap != want {
		return rep, errors.Newf("len=%d cap=%d, want len=%d cap=%d", rep.Len, rep.Cap, s.cfg.Count, want)
	}
	s.log.Debug("buffer filled", "len", rep.Len, "cap", rep.Cap, "growths", rep.Growths)

	buf.Drop()
	rep.Allocs, rep.Frees = checked.Allocs(), checked.Frees()
	if live := checked.Live(); live != 0 {
		return rep, errors.Wrapf(ErrLeak, "%d blocks (%d slots) still live", live, checked.LiveSlots())
	}
	return rep, nil
}

// expectedCap is the capacity doubling from 4 reaches after n pushes.
func expectedCap(n int) int {
	if n == 0 {
		return 0
	}
	c := 4
	for c < n {
		c *= 2
	}
	return c
}

// tally is the shared counter. It reports its own destruction so the
// run can check it happens once, with the last handle.
type tally struct {
	n       int
	dropped *int
}

func (t tally) Drop() { *t.dropped++ }

func (s *Service) shareCounter() (total, handles int, err error) {
	dropped := 0
	root := memory.NewRc(memory.NewRefCell(tally{dropped: &dropped}))

	held := memory.NewBuffer[*memory.Rc[*memory.RefCell[tally]]]()
	for i := 0; i < s.cfg.SharedHandles; i++ {
		held.Push(root.Clone())
	}
	handles = root.Count()

	for i := 0; i < held.Len(); i++ {
		h, _ := held.Get(i)
		cell := h.Value()

		m, ok := cell.BorrowMut()
		if !ok {
			return 0, handles, errors.Newf("handle %d: counter already borrowed (%s)", i, cell.State())
		}
		if _, ok := cell.Borrow(); ok {
			return 0, handles, errors.New("shared borrow granted during exclusive borrow")
		}
		m.Ptr().n++
		m.Drop()
	}

	held.Drop()
	if dropped != 0 {
		return 0, handles, errors.New("counter dropped while the root handle is live")
	}

	r, ok := root.Value().Borrow()
	if !ok {
		return 0, handles, errors.New("counter still borrowed after all guards were dropped")
	}
	total = r.Value().n
	r.Drop()

	root.Drop()
	if dropped != 1 {
		return total, handles, errors.Newf("counter dropped %d times, want 1", dropped)
	}
	s.log.Debug("shared counter", "handles", handles, "total", total)
	return total, handles, nil
}
