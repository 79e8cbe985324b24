// Package service runs the memory primitives end to end: it fills a
// traced, leak-checked buffer, shares a counter through Rc and RefCell,
// and hands the allocation trace to the store and broadcaster.
package service
