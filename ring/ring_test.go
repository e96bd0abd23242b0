package ring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHash32IsCRC32(t *testing.T) {
	require.Equal(t, uint32(0xcbf43926), Hash32("123456789"))
}

func TestNextDeterministic(t *testing.T) {
	ids := make([]string, 16)
	for i := range ids {
		ids[i] = fmt.Sprintf("node-%d", i)
	}
	r1 := New(ids)
	r2 := New(ids)
	for _, key := range []string{"seed", "0_16", "10.0.0.1|0|0"} {
		require.Equal(t, r1.Next(key), r2.Next(key))
	}
}

func TestWalkVisitsEveryNodeExactlyOnceInsideOneLap(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	r := New(ids)
	walk := r.Walk("start")
	seen := map[string]int{}
	for i := 0; i < len(ids); i++ {
		seen[walk()]++
	}
	require.Len(t, seen, len(ids))
	for _, id := range ids {
		require.Equal(t, 1, seen[id])
	}
}

func TestWalkWrapsAround(t *testing.T) {
	ids := []string{"a", "b", "c"}
	r := New(ids)
	walk := r.Walk("start")
	first := make([]string, 3)
	for i := range first {
		first[i] = walk()
	}
	second := make([]string, 3)
	for i := range second {
		second[i] = walk()
	}
	require.Equal(t, first, second)
}

func TestSingleNodeRingAlwaysReturnsItself(t *testing.T) {
	r := New([]string{"only"})
	require.Equal(t, "only", r.Next("anything"))
	walk := r.Walk("anything")
	require.Equal(t, "only", walk())
	require.Equal(t, "only", walk())
}
