package actor

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTimeQueueOrdering(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(t, "n")

		type entry struct {
			time Time
			seq  int
		}
		pushed := make([]entry, 0, n)

		q := NewTimeQueue[int]()
		for i := 0; i < n; i++ {
			tm := Time(rapid.Uint64Range(0, 1000).Draw(t, "time"))
			q.Push(tm, i)
			pushed = append(pushed, entry{time: tm, seq: i})
		}

		sort.SliceStable(pushed, func(i, j int) bool {
			return pushed[i].time < pushed[j].time
		})

		for i := 0; i < n; i++ {
			tm, v, ok := q.Pop()
			require.True(t, ok)
			require.Equal(t, pushed[i].time, tm)
			require.Equal(t, pushed[i].seq, v)
		}

		_, _, ok := q.Pop()
		require.False(t, ok)
	})
}

func TestTimeQueuePeekDoesNotRemove(t *testing.T) {
	q := NewTimeQueue[string]()
	q.Push(Time(5), "a")

	tm, v, ok := q.Peek()
	require.True(t, ok)
	require.Equal(t, Time(5), tm)
	require.Equal(t, "a", v)
	require.Equal(t, 1, q.Len())

	tm, v, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, Time(5), tm)
	require.Equal(t, "a", v)
	require.Equal(t, 0, q.Len())
}

func TestTimeQueueEmpty(t *testing.T) {
	q := NewTimeQueue[int]()
	_, _, ok := q.Peek()
	require.False(t, ok)

	tm, _, ok := q.Pop()
	require.False(t, ok)
	require.Equal(t, Max, tm)
}
