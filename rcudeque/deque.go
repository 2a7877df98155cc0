package rcudeque

import (
	"sync"
	"sync/atomic"

	"github.com/herman08chen/rcu"
)

// Deque is a growable, randomly-indexable sequence whose layout is published
// through an rcu.Domain. Readers call View inside a reader critical section
// and never block a writer; writers hold the deque itself as a sync.Locker
// and republish a new descriptor with Rewire.
//
// A Deque must not be copied after first use.
type Deque[T any] struct {
	dom  *rcu.Domain
	mu   sync.Mutex
	desc atomic.Pointer[descriptor[T]]

	// retired recycles the island-pointer slices backing descriptors that
	// have finished their rcu retirement. Go's GC already reclaims that
	// memory once unreferenced, so the only thing left to gain is not
	// asking the allocator for a same-shaped slice again on every Replace.
	retired sync.Pool
}

// NewFromSlice constructs a Deque over dom, initially holding a copy of
// elems. dom must outlive the deque; passing nil selects rcu.Default.
func NewFromSlice[T any](dom *rcu.Domain, elems []T) *Deque[T] {
	if dom == nil {
		dom = rcu.Default()
	}
	q := &Deque[T]{dom: dom}
	q.desc.Store(buildDescriptor(elems))
	return q
}

// Lock acquires the deque's write lock. Rewire, PushBack, and Close must only
// be called while holding it.
func (q *Deque[T]) Lock() { q.mu.Lock() }

// Unlock releases the deque's write lock.
func (q *Deque[T]) Unlock() { q.mu.Unlock() }

// View returns a snapshot of q's current layout, valid for the lifetime of
// g's open critical section. Calling View without an open critical section
// on g is a programming error.
func (q *Deque[T]) View(g *rcu.ReadGuard) View[T] {
	if g.Depth() == 0 {
		panic("rcudeque: View called without an open reader critical section")
	}
	return View[T]{desc: q.desc.Load()}
}

// Rewire publishes a new descriptor built from islands and count, retiring
// the previous one through q's domain. The caller must hold q's write lock.
func (q *Deque[T]) Rewire(islands []*island[T], count int) {
	next := &descriptor[T]{islands: islands, count: count}
	old := q.desc.Swap(next)
	if old == nil {
		return
	}
	rcu.Retire(q.dom, old, func(d *descriptor[T]) {
		buf := d.islands[:0]
		q.retired.Put(&buf)
	})
}

// Replace rebuilds the deque's entire layout from elems and publishes it,
// retiring the previous layout through q's domain. It is the bulk-rewrite
// counterpart to Rewire for callers outside this package, which cannot name
// the island type Rewire's low-level signature exposes. The caller must hold
// q's write lock.
func (q *Deque[T]) Replace(elems []T) {
	n := islandsForCount(len(elems))
	islands := q.borrowIslandSlice(n)
	for i := range islands {
		islands[i] = new(island[T])
	}
	for i, v := range elems {
		islands[i/islandSize][i%islandSize] = v
	}
	q.Rewire(islands, len(elems))
}

// PushBack appends v, growing the island layout if the last island is full,
// and republishes the result. The caller must hold q's write lock.
func (q *Deque[T]) PushBack(v T) {
	prev := q.desc.Load()
	next := growDescriptor(prev, []T{v})
	old := q.desc.Swap(next)
	rcu.Retire(q.dom, old, func(d *descriptor[T]) {
		buf := d.islands[:0]
		q.retired.Put(&buf)
	})
}

// borrowIslandSlice returns a recycled island-pointer slice of length n when
// the pool holds one with enough capacity, or a freshly allocated one
// otherwise. The slice's backing array came from a descriptor the domain has
// already disposed, so no reader still traverses it; its entries may still
// point at islands that newer descriptors share, so the caller overwrites
// every entry before use.
func (q *Deque[T]) borrowIslandSlice(n int) []*island[T] {
	if v, ok := q.retired.Get().(*[]*island[T]); ok && cap(*v) >= n {
		return (*v)[:n]
	}
	return make([]*island[T], n)
}

// Close releases q's reference to its current layout. It is the caller's
// responsibility to ensure no reader still holds a View obtained before
// Close -- typically by calling rcu.Synchronize(dom) first. After Close, the
// deque must not be used again.
func (q *Deque[T]) Close() {
	q.desc.Store(nil)
}
