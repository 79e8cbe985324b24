package memory

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Dropper is implemented by values that own something which must be
// released when their owner goes away.
type Dropper interface {
	Drop()
}

// dropInPlace runs the destruction routine of the value at p, if any.
// Pointer receivers are honoured so a struct stored by value in a slot
// can still be torn down. A nil pointer owns nothing and is skipped.
func dropInPlace[T any](p *T) {
	if isNil(any(*p)) {
		return
	}
	if d, ok := any(*p).(Dropper); ok {
		d.Drop()
		return
	}
	if d, ok := any(p).(Dropper); ok {
		d.Drop()
	}
}

func isDropper[T any](v *T) bool {
	if isNil(any(*v)) {
		return false
	}
	if _, ok := any(*v).(Dropper); ok {
		return true
	}
	_, ok := any(v).(Dropper)
	return ok
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// fatal aborts on a broken invariant. Callers never recover from it.
func fatal(format string, args ...any) {
	panic(errors.AssertionFailedf(format, args...))
}

// noCopy makes go vet's copylocks check flag values that must not be
// copied after first use.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
