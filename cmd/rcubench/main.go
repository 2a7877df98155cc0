// Command rcubench runs the reclamation engine's end-to-end scenarios
// against the rcu-backed deque and logs what each observed.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
	"unsafe"

	"github.com/lmittmann/tint"

	"github.com/herman08chen/rcu"
	"github.com/herman08chen/rcu/queue/mpmc/mpmcdvq"
	"github.com/herman08chen/rcu/rcudeque"
)

var (
	scenario = flag.String("scenario", "all", "scenario to run: all, read-mostly, concurrent-publish, rotation, shutdown, nested, empty, fan-in")
	readers  = flag.Int("readers", 4, "reader goroutine count for the read-mostly scenario")
	verbose  = flag.Bool("verbose", false, "emit debug-level scenario logging")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.Kitchen}))
	slog.SetDefault(logger)

	scenarios := map[string]func(*slog.Logger){
		"read-mostly":        readMostlyTraversal,
		"concurrent-publish": concurrentPublish,
		"rotation":           generationRotation,
		"shutdown":           shutdownSafety,
		"nested":             nestedCriticalSections,
		"empty":              emptyDequeInvariant,
		"fan-in":             func(l *slog.Logger) { fanInRetirements(rcu.NewDomain(rcu.WithLogger(l)), 8, 256, l) },
	}

	names := []string{"read-mostly", "concurrent-publish", "rotation", "shutdown", "nested", "empty", "fan-in"}
	if *scenario != "all" {
		fn, ok := scenarios[*scenario]
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown scenario %q\n", *scenario)
			os.Exit(2)
		}
		fn(logger)
		return
	}
	for _, name := range names {
		logger.Info("running scenario", "name", name)
		scenarios[name](logger)
	}
}

// readMostlyTraversal is scenario 1: *readers goroutines each search a static
// deque 10_000 times concurrently with no writer, and no disposer should ever
// run.
func readMostlyTraversal(logger *slog.Logger) {
	dom := rcu.NewDomain(rcu.WithLogger(logger))
	elems := make([]int, 10_000)
	for i := range elems {
		elems[i] = i
	}
	q := rcudeque.NewFromSlice(dom, elems)

	var wg sync.WaitGroup
	var misses int
	var missMu sync.Mutex
	for r := 0; r < *readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10_000; i++ {
				g := dom.Enter()
				v := q.View(g)
				found := false
				for it := v.Begin(); it.Less(v.End()); it.Inc() {
					if it.Get() == 5000 {
						found = true
						break
					}
				}
				g.Leave()
				if !found {
					missMu.Lock()
					misses++
					missMu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	logger.Info("read-mostly traversal complete", "misses", misses)
}

// concurrentPublish is scenario 2: one writer reverses the elements and
// republishes the layout while three readers snapshot it; the old layout must
// survive until synchronize runs its disposer.
func concurrentPublish(logger *slog.Logger) {
	dom := rcu.NewDomain(rcu.WithLogger(logger))
	elems := make([]int, 10_000)
	for i := range elems {
		elems[i] = i
	}
	q := rcudeque.NewFromSlice(dom, elems)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for r := 0; r < 3; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				g := dom.Enter()
				v := q.View(g)
				_ = v.Len()
				g.Leave()
			}
		}()
	}

	q.Lock()
	g := dom.Enter()
	v := q.View(g)
	shuffled := make([]int, v.Len())
	for it := v.Begin(); it.Less(v.End()); it.Inc() {
		shuffled[it.Index()] = v.At(it.Index())
	}
	g.Leave()
	for i, j := 0, len(shuffled)-1; i < j; i, j = i+1, j-1 {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	q.Replace(shuffled) // retires the old layout through dom
	q.Unlock()

	close(stop)
	wg.Wait()
	rcu.Synchronize(dom)
	logger.Info("concurrent publish complete")
}

// generationRotation is scenario 3: 600 retirements from one writer while
// two readers hold long-ish critical sections interleaved with retirement.
func generationRotation(logger *slog.Logger) {
	dom := rcu.NewDomain(rcu.WithLogger(logger))
	var disposed int32
	var mu sync.Mutex

	var wg sync.WaitGroup
	readerStop := make(chan struct{})
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-readerStop:
					return
				default:
				}
				g := dom.Enter()
				time.Sleep(time.Microsecond)
				g.Leave()
			}
		}()
	}

	vals := make([]int, 600)
	for i := range vals {
		rcu.Retire(dom, &vals[i], func(*int) {
			mu.Lock()
			disposed++
			mu.Unlock()
		})
	}
	close(readerStop)
	wg.Wait()
	rcu.Synchronize(dom)
	logger.Info("generation rotation complete", "disposed", disposed)
}

// shutdownSafety is scenario 4: after every reader has departed and
// synchronize has completed, the domain has nothing left to drain.
func shutdownSafety(logger *slog.Logger) {
	dom := rcu.NewDomain(rcu.WithLogger(logger))
	var v int
	rcu.Retire(dom, &v, func(*int) {})
	g := dom.Enter()
	g.Leave()
	rcu.Synchronize(dom)
	logger.Info("shutdown safety complete")
}

// nestedCriticalSections is scenario 5: enter, enter, leave, leave must be
// a no-op at the counter level for the inner pair.
func nestedCriticalSections(logger *slog.Logger) {
	dom := rcu.NewDomain(rcu.WithLogger(logger))
	g := dom.Enter()
	g.Enter()
	depth := g.Depth()
	g.Leave()
	g.Leave()
	logger.Info("nested critical sections complete", "peak_depth", depth)
}

// emptyDequeInvariant is scenario 6: a deque built from an empty range has
// begin == end and allocates no island.
func emptyDequeInvariant(logger *slog.Logger) {
	dom := rcu.NewDomain(rcu.WithLogger(logger))
	q := rcudeque.NewFromSlice[int](dom, nil)
	g := dom.Enter()
	v := q.View(g)
	empty := v.Begin().Equal(v.End())
	g.Leave()
	logger.Info("empty deque invariant complete", "empty", empty, "len", v.Len())
}

// fanInRetirements demonstrates the single-writer retirement discipline the
// domain assumes: many producer goroutines hand off disposal work through a
// bounded mpmc queue to one goroutine that is the only caller of Retire.
func fanInRetirements(dom *rcu.Domain, producers, perProducer int, logger *slog.Logger) {
	type job struct{ run func() }

	q := mpmcdvq.New(uint(producers * perProducer))
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v := p*perProducer + i
				j := &job{run: func() {
					val := v
					rcu.Retire(dom, &val, func(*int) {})
				}}
				for !q.TryEnqueue(unsafe.Pointer(j)) {
				}
			}
		}(p)
	}

	done := make(chan struct{})
	go func() {
		remaining := producers * perProducer
		for remaining > 0 {
			ptr, ok := q.TryDequeue()
			if !ok {
				continue
			}
			(*job)(ptr).run()
			remaining--
		}
		close(done)
	}()

	wg.Wait()
	<-done
	rcu.Synchronize(dom)
	logger.Info("fan-in retirement complete", "count", producers*perProducer)
}
