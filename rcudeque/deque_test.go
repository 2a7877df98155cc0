package rcudeque

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/herman08chen/rcu"
)

func TestNewFromSliceViewReflectsInitialElements(t *testing.T) {
	q := NewFromSlice(rcu.NewDomain(), []int{1, 2, 3})
	g := rcu.Default().Enter()
	defer g.Leave()
	// Default and the deque's own domain differ here on purpose: View only
	// checks that g has an open critical section, not which domain it is on.
	// Nothing is retired in this test, so that guard is enough here.
	v := q.View(g)
	require.Equal(t, 3, v.Len())
	require.Equal(t, []int{1, 2, 3}, collect(v))
}

func TestPushBackGrowsAcrossIslandBoundary(t *testing.T) {
	dom := rcu.NewDomain()
	q := NewFromSlice(dom, make([]int, 0))
	q.Lock()
	for i := 0; i < islandSize+1; i++ {
		q.PushBack(i)
	}
	q.Unlock()

	g := dom.Enter()
	v := q.View(g)
	require.Equal(t, islandSize+1, v.Len())
	require.Equal(t, islandSize, v.At(islandSize))
	g.Leave()
}

func TestViewPanicsWithoutOpenCriticalSection(t *testing.T) {
	q := NewFromSlice(rcu.NewDomain(), []int{1})
	defer func() {
		require.NotNil(t, recover(), "View without an open guard must panic")
	}()
	q.View(&rcu.ReadGuard{})
}

func TestRewirePublishesNewLayoutWithoutDisturbingOpenReaders(t *testing.T) {
	dom := rcu.NewDomain()
	q := NewFromSlice(dom, []int{1, 2, 3})

	g := dom.Enter()
	before := q.View(g)
	require.Equal(t, []int{1, 2, 3}, collect(before))

	q.Lock()
	q.Rewire(buildDescriptor([]int{9, 9, 9, 9}).islands, 4)
	q.Unlock()

	// The reader's snapshot, taken before Rewire, must still read the old
	// values -- the old descriptor is only retired, not mutated in place.
	require.Equal(t, []int{1, 2, 3}, collect(before))
	g.Leave()

	rcu.Synchronize(dom)
	g2 := dom.Enter()
	after := q.View(g2)
	require.Equal(t, []int{9, 9, 9, 9}, collect(after))
	g2.Leave()
}

func TestConcurrentReadersDuringSustainedRewire(t *testing.T) {
	dom := rcu.NewDomain()
	q := NewFromSlice(dom, []int{0})

	var wg sync.WaitGroup
	stop := make(chan struct{})
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
			require.NotZero(t, v.Len())
			g.Leave()
		}
	}()

	q.Lock()
	for i := 1; i < 500; i++ {
		q.PushBack(i)
	}
	q.Unlock()
	close(stop)
	wg.Wait()

	rcu.Synchronize(dom)
	g := dom.Enter()
	require.Equal(t, 500, q.View(g).Len())
	g.Leave()
}

func collect[T any](v View[T]) []T {
	out := make([]T, 0, v.Len())
	for it := v.Begin(); it.Less(v.End()); it.Inc() {
		out = append(out, it.Get())
	}
	return out
}
