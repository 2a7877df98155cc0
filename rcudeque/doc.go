// Package rcudeque provides an append-structured, randomly-indexable
// sequence whose layout is published atomically: Deque publishes a
// descriptor (an array of fixed-size "island" pointers plus an element
// count) through the rcu package's reclamation domain, so readers can
// traverse a snapshot of the sequence without ever taking a lock.
//
// A reader snapshots the current layout inside an rcu.ReadGuard's critical
// section:
//
//	g := dom.Enter()
//	v := deque.View(g)
//	for it := v.Begin(); it.Index() < v.End().Index(); it.Inc() {
//	        use(it.Get())
//	}
//	g.Leave()
//
// A writer holds the deque itself as a sync.Locker and publishes a new
// layout built from a slice of elements:
//
//	deque.Lock()
//	deque.Replace(newElems)
//	deque.Unlock()
//
// SharedMutexDeque implements the same view and iterator contract guarded by
// a single sync.RWMutex. It exists only as the behavioral reference the rcu
// variant's observed read/write semantics are checked against; it is not a
// faster or safer alternative.
package rcudeque
