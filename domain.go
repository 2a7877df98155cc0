package rcu

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Domain is a reclamation engine: a fixed ring of generations, each owning a
// bank of per-shard reader counters and a bounded bucket of retired objects.
// A default, process-wide Domain is reachable through Default; additional
// domains may be constructed with NewDomain for test isolation.
type Domain struct {
	gens       [ringSize]*generation
	currentIdx atomic.Uint64
	shardRR    atomic.Uint64

	// mu serializes every writer-side operation: Retire, Synchronize, and
	// Barrier. Retirement is only safe from a single writer at a time;
	// taking the lock here is cheap relative to everything else Retire
	// already does, so that requirement is enforced rather than merely
	// documented.
	mu sync.Mutex

	logger *slog.Logger
}

// Option configures a Domain constructed with NewDomain.
type Option func(*Domain)

// WithLogger overrides the logger a Domain uses to report disposer panics
// recovered while clearing a generation. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Domain) { d.logger = l }
}

// NewDomain constructs an independent Domain. Most callers want Default;
// NewDomain exists for test isolation, so that the reentrancy state a
// ReadGuard carries is bound to one domain identity and never shared across
// domains in the same process.
func NewDomain(opts ...Option) *Domain {
	d := &Domain{logger: slog.Default()}
	for i := range d.gens {
		d.gens[i] = newGeneration()
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDomain = sync.OnceValue(func() *Domain {
	return NewDomain()
})

// Default returns the stable, process-wide default Domain, lazily
// initialized on first use.
func Default() *Domain {
	return defaultDomain()
}

// ReadGuard is an open reader critical section on one Domain. Rather than
// deriving shard and depth from ambient per-thread storage, a ReadGuard
// carries them explicitly, and nested critical sections on the same
// goroutine are expressed by re-entering the same guard (ReadGuard.Enter),
// not by calling Domain.Enter again.
type ReadGuard struct {
	dom   *Domain
	gen   *generation
	shard int
	depth int
}

// Enter opens a reader critical section on d and returns a guard for it.
// Enter must be matched by exactly one call to the returned guard's Leave.
func (d *Domain) Enter() *ReadGuard {
	g := &ReadGuard{dom: d}
	g.enterOutermost()
	return g
}

// Enter re-enters an already-open guard, incrementing its reentrancy depth.
// It never re-selects a shard or generation; only the outermost entry does.
func (g *ReadGuard) Enter() {
	if g.depth == 0 {
		g.enterOutermost()
		return
	}
	g.depth++
}

func (g *ReadGuard) enterOutermost() {
	shard := int(g.dom.shardRR.Add(1) % shardCount)
	idx := g.dom.currentIdx.Load()
	gen := g.dom.gens[idx%ringSize]
	gen.arrive(shard)
	g.gen = gen
	g.shard = shard
	g.depth = 1
}

// Leave closes the most recently opened critical section on g. Calling
// Leave without a matching Enter is a programming error.
func (g *ReadGuard) Leave() {
	if g.depth == 0 {
		panic("rcu: Leave called without a matching Enter")
	}
	g.depth--
	if g.depth == 0 {
		g.gen.depart(g.shard)
		g.gen = nil
	}
}

// Depth reports the number of currently nested Enter calls still owed a
// Leave on this guard.
func (g *ReadGuard) Depth() int {
	return g.depth
}

// retire is the non-generic core of Retire: enqueue ptr and del for disposal
// once no reader can still observe ptr.
func (d *Domain) retire(ptr unsafe.Pointer, del deleter) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.currentIdx.Load()
	cur := d.gens[idx%ringSize]

	if cur.isFull() {
		next := d.gens[(idx+1)%ringSize]
		if !next.isDrained() && cur.isExhausted() {
			next.awaitDrained()
		}
		if next.isDrained() {
			idx++
			next.clear(d.logger)
			d.currentIdx.Store(idx)
			cur = next
		}
	}
	cur.push(ptr, del)
}

// Retire enqueues ptr, together with dispose, to be invoked exactly once
// after no reader can still observe ptr. Retire must not be called from
// inside a reader critical section opened on the same domain.
func Retire[T any](d *Domain, ptr *T, dispose func(*T)) {
	d.retire(unsafe.Pointer(ptr), newDeleter(dispose))
}

// Synchronize blocks until every generation in d's ring is drained, then
// clears each one, invoking every outstanding disposer. After Synchronize
// returns, every prior retirement has been disposed.
func Synchronize(d *Domain) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, g := range d.gens {
		g.awaitDrained()
		g.clear(d.logger)
	}
}

// Barrier is a synonym of Synchronize.
func Barrier(d *Domain) {
	Synchronize(d)
}
