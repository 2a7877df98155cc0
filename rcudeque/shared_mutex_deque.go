package rcudeque

import "sync"

// SharedMutexDeque is the behavioral reference Deque is checked against: the
// same View and Iterator contract, implemented with a single sync.RWMutex
// instead of rcu-mediated publication. Readers and writers both serialize on
// the same lock, so it is never the faster choice -- only the one whose
// observable read/write semantics define what "correct" means for Deque.
type SharedMutexDeque[T any] struct {
	mu   sync.RWMutex
	desc descriptor[T]
}

// NewSharedMutexDequeFromSlice constructs a SharedMutexDeque initially
// holding a copy of elems.
func NewSharedMutexDequeFromSlice[T any](elems []T) *SharedMutexDeque[T] {
	d := buildDescriptor(elems)
	return &SharedMutexDeque[T]{desc: *d}
}

// View returns a snapshot of the deque's current layout, safe to read until
// the caller is done with it; no matching guard or unlock is required since
// the snapshot is a value copy taken under the read lock.
func (q *SharedMutexDeque[T]) View() View[T] {
	q.mu.RLock()
	defer q.mu.RUnlock()
	snap := q.desc
	return View[T]{desc: &snap}
}

// Lock acquires the deque's write lock.
func (q *SharedMutexDeque[T]) Lock() { q.mu.Lock() }

// Unlock releases the deque's write lock.
func (q *SharedMutexDeque[T]) Unlock() { q.mu.Unlock() }

// Rewire replaces the deque's layout. The caller must hold the write lock.
func (q *SharedMutexDeque[T]) Rewire(islands []*island[T], count int) {
	q.desc = descriptor[T]{islands: islands, count: count}
}

// PushBack appends v, growing the island layout if needed. The caller must
// hold the write lock.
func (q *SharedMutexDeque[T]) PushBack(v T) {
	q.desc = *growDescriptor(&q.desc, []T{v})
}

// Replace rebuilds the deque's entire layout from elems. The caller must
// hold the write lock.
func (q *SharedMutexDeque[T]) Replace(elems []T) {
	q.desc = *buildDescriptor(elems)
}
