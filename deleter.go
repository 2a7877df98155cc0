package rcu

import "unsafe"

// vtable is the dynamic dispatch record a deleter carries: the one place in
// this package where dynamic dispatch is load-bearing. invoke applies the
// user's disposal action to a retired pointer; dealloc releases the memory
// backing that action without running it.
type vtable struct {
	invoke  func(action unsafe.Pointer, p unsafe.Pointer)
	dealloc func(action unsafe.Pointer)
}

var emptyVtable = &vtable{
	invoke:  func(unsafe.Pointer, unsafe.Pointer) {},
	dealloc: func(unsafe.Pointer) {},
}

// deleter is a type-erased disposal action bound to a pointer type. There is
// no hand-rolled small-buffer optimization here: Go's escape analysis already
// decides whether the boxed action ends up on the stack or the heap, so there
// is nothing to gain by placing it into an inline byte array by hand -- doing
// that safely would need exactly the unsafe, GC-hostile tricks this package
// otherwise avoids.
//
// A deleter is move-only: take leaves the receiver empty. Destroying a
// non-empty deleter (dealloc) releases its action's memory but never invokes
// it -- invocation is a Domain's job, performed exactly once while clearing a
// drained generation.
type deleter struct {
	action unsafe.Pointer
	vt     *vtable
}

// emptyDeleter returns the empty deleter, bound to emptyVtable. Invoking or
// destroying it is a no-op.
func emptyDeleter() deleter {
	return deleter{vt: emptyVtable}
}

func (d deleter) isEmpty() bool {
	return d.vt == nil || d.vt == emptyVtable
}

// newDeleter type-erases dispose, a disposal action over *T, into a deleter.
// A nil dispose yields the empty deleter.
func newDeleter[T any](dispose func(*T)) deleter {
	if dispose == nil {
		return emptyDeleter()
	}
	boxed := new(func(*T))
	*boxed = dispose
	return deleter{
		action: unsafe.Pointer(boxed),
		vt: &vtable{
			invoke: func(action unsafe.Pointer, p unsafe.Pointer) {
				(*(*func(*T))(action))((*T)(p))
			},
			dealloc: func(unsafe.Pointer) {},
		},
	}
}

// invoke applies the deleter's disposal action to p. Callers must ensure
// invoke runs at most once per deleter.
func (d deleter) invoke(p unsafe.Pointer) {
	d.vt.invoke(d.action, p)
}

// destroy releases memory backing the deleter's action without invoking it.
func (d deleter) destroy() {
	d.vt.dealloc(d.action)
}

// take returns the receiver's value and resets the receiver to empty,
// modeling the deleter's move-only contract.
func (d *deleter) take() deleter {
	out := *d
	*d = emptyDeleter()
	return out
}
