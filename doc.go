// Package rcu provides a user-space read-copy-update reclamation engine.
//
// A Domain lets many goroutines traverse a shared, mutable data structure
// without taking any lock on the fast path, while a writer publishes new
// versions and defers destruction of old ones until every reader that could
// still observe them has departed.
//
// A reader opens a critical section with Domain.Enter, which returns a
// *ReadGuard; it closes the section with ReadGuard.Leave. Go has no portable
// goroutine-local storage the way some languages have thread-local storage --
// goroutines migrate across OS threads and are not 1:1 with them -- so the
// guard carries that state explicitly: it remembers which shard counter it
// incremented and how deeply it has been re-entered, and Leave uses that
// state directly instead of consulting ambient per-thread storage.
//
//	g := dom.Enter()
//	defer g.Leave()
//	// ... traverse a structure published under dom ...
//
// A writer calls Retire to hand a pointer and a disposal action to the
// domain; the domain invokes the disposal exactly once, only after every
// reader that could have observed the pointer has left its critical section.
// Synchronize blocks until every outstanding retirement has been disposed.
package rcu
