// Package memory provides low-level ownership primitives with explicit
// allocation and lifecycle control: a manually grown Buffer, a
// reference-counted Rc handle, and the Cell / RefCell interior
// mutability types they are built on.
//
// None of the primitives synchronize. A Buffer, Cell, Rc or RefCell
// (and every guard or handle derived from it) must only ever be used
// from one goroutine at a time; sharing one across goroutines without
// external locking is a data race. This is a hard usage constraint,
// not something the types try to detect.
//
// Values that own resources implement Dropper. Their Drop method is
// called exactly once when their owner tears them down.
//
// Invariant violations (zero-size elements, size overflow, a borrow
// released outside its window, use of a dropped handle) panic with a
// cockroachdb/errors assertion failure. Ordinary absence, such as an
// out-of-range index or a conflicting borrow, is reported through an
// ok bool.
package memory
