package rcudeque

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSharedMutexDequeMatchesRewireAndPushBackSemantics(t *testing.T) {
	q := NewSharedMutexDequeFromSlice([]int{1, 2, 3})
	require.Equal(t, []int{1, 2, 3}, collect(q.View()))

	q.Lock()
	q.PushBack(4)
	q.Unlock()
	require.Equal(t, []int{1, 2, 3, 4}, collect(q.View()))

	q.Lock()
	q.Rewire(buildDescriptor([]int{7, 8}).islands, 2)
	q.Unlock()
	require.Equal(t, []int{7, 8}, collect(q.View()))
}

func TestSharedMutexDequeViewEndsAtExactCount(t *testing.T) {
	elems := make([]int, islandSize+1)
	q := NewSharedMutexDequeFromSlice(elems)
	v := q.View()
	require.Equal(t, islandSize+1, v.Len())
	require.Equal(t, islandSize+1, v.End().Index())
}
