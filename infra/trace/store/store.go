// Package store persists trace events in a pebble database so a run
// can be inspected, or relayed to Kafka, after the process that
// produced it has exited.
package store

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"memkit/infra/trace"
)

const eventPrefix = "event/"

// cursorKey sorts outside the event range.
var cursorKey = []byte("cursor/broadcast")

// -------------------- Store --------------------

type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the store in dir.
func Open(dir string) (*Store, error) {
	return open(dir, &pebble.Options{})
}

// OpenInMemory returns a store backed by an in-memory filesystem.
func OpenInMemory() (*Store, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(dir string, opts *pebble.Options) (*Store, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open trace store %q", dir)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// -------------------- Events --------------------

// Append writes events in one synced batch.
func (s *Store) Append(events ...trace.Event) error {
	if len(events) == 0 {
		return nil
	}
	b := s.db.NewBatch()
	defer b.Close()

	for _, e := range events {
		if err := b.Set(keyFor(e.Seq), e.Marshal(), nil); err != nil {
			return errors.Wrapf(err, "stage event %d", e.Seq)
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return errors.Wrap(err, "commit events")
	}
	return nil
}

// Scan calls fn for every event with Seq > after, in sequence order.
// An error from fn stops the scan and is returned as is.
func (s *Store) Scan(after uint64, fn func(trace.Event) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: keyFor(after + 1),
		UpperBound: []byte(eventPrefix + "~"),
	})
	if err != nil {
		return errors.Wrap(err, "open event iterator")
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		e, err := trace.Unmarshal(iter.Value())
		if err != nil {
			return errors.Wrapf(err, "decode %s", iter.Key())
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return iter.Error()
}

// LastSeq returns the highest stored sequence number, or 0 when the
// store is empty.
func (s *Store) LastSeq() (uint64, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(eventPrefix),
		UpperBound: []byte(eventPrefix + "~"),
	})
	if err != nil {
		return 0, errors.Wrap(err, "open event iterator")
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}
	return parseKey(iter.Key())
}

// -------------------- Cursor --------------------

// Cursor returns the last sequence number the broadcaster delivered.
func (s *Store) Cursor() (uint64, error) {
	val, closer, err := s.db.Get(cursorKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read cursor")
	}
	defer closer.Close()

	if len(val) != 8 {
		return 0, errors.Newf("cursor has %d bytes, want 8", len(val))
	}
	return binary.BigEndian.Uint64(val), nil
}

func (s *Store) SetCursor(seq uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seq)
	if err := s.db.Set(cursorKey, buf[:], pebble.Sync); err != nil {
		return errors.Wrap(err, "write cursor")
	}
	return nil
}

// -------------------- Helpers --------------------

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", eventPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	if _, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte(eventPrefix))), "%d", &seq); err != nil {
		return 0, errors.Wrapf(err, "parse key %q", b)
	}
	return seq, nil
}
