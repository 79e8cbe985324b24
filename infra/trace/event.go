package trace

import (
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Kind is the allocator call an Event describes.
type Kind uint8

const (
	KindAlloc Kind = iota + 1
	KindRealloc
	KindFree
)

func (k Kind) String() string {
	switch k {
	case KindAlloc:
		return "alloc"
	case KindRealloc:
		return "realloc"
	case KindFree:
		return "free"
	default:
		return "unknown"
	}
}

// Event is one allocator call. Slots and Bytes describe the block the
// call produced (alloc, realloc) or released (free); From is the size
// of the block a realloc replaced.
type Event struct {
	Seq   uint64
	Kind  Kind
	Elem  string
	Slots int
	Bytes int
	From  int
	At    time.Time
}

const (
	fieldSeq protowire.Number = iota + 1
	fieldKind
	fieldElem
	fieldSlots
	fieldBytes
	fieldAt
	fieldFrom
)

var ErrMalformed = errors.New("trace: malformed event")

// Marshal encodes e in the protobuf wire format. Zero fields are
// omitted.
func (e Event) Marshal() []byte {
	b := make([]byte, 0, 32+len(e.Elem))
	b = appendVarint(b, fieldSeq, e.Seq)
	b = appendVarint(b, fieldKind, uint64(e.Kind))
	if e.Elem != "" {
		b = protowire.AppendTag(b, fieldElem, protowire.BytesType)
		b = protowire.AppendString(b, e.Elem)
	}
	b = appendVarint(b, fieldSlots, uint64(e.Slots))
	b = appendVarint(b, fieldBytes, uint64(e.Bytes))
	if !e.At.IsZero() {
		b = appendVarint(b, fieldAt, uint64(e.At.UnixNano()))
	}
	b = appendVarint(b, fieldFrom, uint64(e.From))
	return b
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// Unmarshal decodes an Event written by Marshal. Unknown fields are
// skipped.
func Unmarshal(b []byte) (Event, error) {
	var e Event
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Event{}, malformed(n)
		}
		b = b[n:]

		switch {
		case num == fieldElem && typ == protowire.BytesType:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return Event{}, malformed(n)
			}
			e.Elem = s
			b = b[n:]
		case typ == protowire.VarintType && num >= fieldSeq && num <= fieldFrom:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Event{}, malformed(n)
			}
			e.setVarint(num, v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Event{}, malformed(n)
			}
			b = b[n:]
		}
	}
	return e, nil
}

func (e *Event) setVarint(num protowire.Number, v uint64) {
	switch num {
	case fieldSeq:
		e.Seq = v
	case fieldKind:
		e.Kind = Kind(v)
	case fieldSlots:
		e.Slots = int(v)
	case fieldBytes:
		e.Bytes = int(v)
	case fieldAt:
		e.At = time.Unix(0, int64(v))
	case fieldFrom:
		e.From = int(v)
	}
}

func malformed(n int) error {
	return errors.Mark(errors.Wrap(protowire.ParseError(n), "decode event"), ErrMalformed)
}
