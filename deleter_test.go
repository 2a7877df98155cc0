package rcu

import (
	"testing"
	"unsafe"
)

func TestDeleterInvokesDisposeOnce(t *testing.T) {
	var calls int
	var seen *int
	v := 42
	d := newDeleter(func(p *int) {
		calls++
		seen = p
	})
	if d.isEmpty() {
		t.Fatal("deleter built from a non-nil dispose must not be empty")
	}
	d.invoke(unsafe.Pointer(&v))
	if calls != 1 {
		t.Fatalf("expected dispose invoked once, got %d", calls)
	}
	if seen != &v {
		t.Fatalf("expected dispose to see %p, got %p", &v, seen)
	}
}

func TestEmptyDeleterIsNoop(t *testing.T) {
	d := emptyDeleter()
	if !d.isEmpty() {
		t.Fatal("emptyDeleter must report empty")
	}
	// Must not panic: empty invoke/destroy are no-ops.
	d.invoke(nil)
	d.destroy()
}

func TestDeleterTakeLeavesSourceEmpty(t *testing.T) {
	var calls int
	d := newDeleter(func(*int) { calls++ })
	moved := d.take()
	if !d.isEmpty() {
		t.Fatal("take must leave the source deleter empty")
	}
	if moved.isEmpty() {
		t.Fatal("take must return the original, non-empty deleter")
	}
	var v int
	moved.invoke(unsafe.Pointer(&v))
	if calls != 1 {
		t.Fatalf("expected moved deleter to still invoke dispose, got %d calls", calls)
	}
}

func TestNewDeleterNilDisposeIsEmpty(t *testing.T) {
	d := newDeleter[int](nil)
	if !d.isEmpty() {
		t.Fatal("newDeleter with a nil dispose must be empty")
	}
}
