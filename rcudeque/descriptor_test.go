package rcudeque

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIslandsForCount(t *testing.T) {
	require.Equal(t, 0, islandsForCount(0))
	require.Equal(t, 1, islandsForCount(1))
	require.Equal(t, 1, islandsForCount(islandSize))
	require.Equal(t, 2, islandsForCount(islandSize+1))
}

func TestBuildDescriptorLaysOutElementsInOrder(t *testing.T) {
	elems := make([]int, islandSize+3)
	for i := range elems {
		elems[i] = i * 2
	}
	d := buildDescriptor(elems)
	require.Equal(t, len(elems), d.count)
	require.Len(t, d.islands, 2)
	for i := range elems {
		require.Equal(t, elems[i], d.at(i))
	}
}

func TestGrowDescriptorReusesExistingIslands(t *testing.T) {
	base := buildDescriptor([]int{1, 2, 3})
	grown := growDescriptor(base, []int{4, 5})

	require.Equal(t, 5, grown.count)
	require.Same(t, base.islands[0], grown.islands[0])
	for i := 0; i < 5; i++ {
		require.Equal(t, i+1, grown.at(i))
	}
	// base itself must be unaffected by the growth.
	require.Equal(t, 3, base.count)
}

func TestGrowDescriptorAllocatesNewIslandsWhenCrossingBoundary(t *testing.T) {
	full := make([]int, islandSize)
	base := buildDescriptor(full)
	grown := growDescriptor(base, []int{99})

	require.Len(t, grown.islands, 2)
	require.Equal(t, islandSize+1, grown.count)
	require.Equal(t, 99, grown.at(islandSize))
}
