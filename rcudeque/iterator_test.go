package rcudeque

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestViewEndsAtExactCountNotIslandCapacity(t *testing.T) {
	elems := make([]int, islandSize+10) // a partially filled trailing island
	v := View[int]{desc: buildDescriptor(elems)}

	require.Equal(t, islandSize+10, v.Len())
	require.Equal(t, islandSize+10, v.End().Index())
}

func TestIteratorWalksInOrder(t *testing.T) {
	v := View[int]{desc: buildDescriptor([]int{10, 20, 30})}
	var got []int
	for it := v.Begin(); it.Less(v.End()); it.Inc() {
		got = append(got, it.Get())
	}
	require.Equal(t, []int{10, 20, 30}, got)
}

func TestIteratorAdvanceAndDiff(t *testing.T) {
	v := View[int]{desc: buildDescriptor([]int{10, 20, 30, 40})}
	begin := v.Begin()
	mid := begin.Advance(2)
	require.Equal(t, 30, mid.Get())
	require.Equal(t, 2, Diff(mid, begin))
	require.True(t, begin.Less(mid))
	require.False(t, mid.Equal(begin))
}
