package multimap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIteratorVisitsAllPairs(t *testing.T) {
	m := newTestMap[string, int](t)
	require.NoError(t, m.Add("x", 1))
	require.NoError(t, m.Add("y", 2))
	require.NoError(t, m.Add("y", 3))
	require.NoError(t, m.Add("z", 4))

	got := collect(t, m.Iterator())
	require.ElementsMatch(t, []EntryOf[string, int]{
		{Key: "x", Value: 1},
		{Key: "y", Value: 2},
		{Key: "y", Value: 3},
		{Key: "z", Value: 4},
	}, got)
	require.Equal(t, 3, m.Count())
}

func TestIteratorVisitsEachPairOnce(t *testing.T) {
	for _, fixed := range []bool{false, true} {
		name := "resizing"
		options := []func(*MapConfig){WithCapacity(2)}
		if fixed {
			// long chains exercise stepping between keys of one bucket
			name = "fixed"
			options = []func(*MapConfig){WithBucketCount(3)}
		}
		t.Run(name, func(t *testing.T) {
			rng := newTestRNG(t)
			m := newTestMap[int, int](t, options...)
			want := make(map[EntryOf[int, int]]int)
			total := 0
			for i := range 2000 {
				k := rng.IntN(300)
				require.NoError(t, m.Add(k, i%7))
				want[EntryOf[int, int]{Key: k, Value: i % 7}]++
				total++
			}

			got := make(map[EntryOf[int, int]]int)
			pairs := collect(t, m.Iterator())
			for _, p := range pairs {
				got[p]++
			}
			require.Len(t, pairs, total)
			require.Equal(t, want, got)
		})
	}
}

func TestIteratorEmptyMap(t *testing.T) {
	m := newTestMap[string, string](t)
	it := m.Iterator()

	ok, err := it.Next()
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = it.Current()
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestIteratorCurrentBeforeNext(t *testing.T) {
	m := newTestMap[string, string](t)
	require.NoError(t, m.Add("k1", "v1"))
	it := m.Iterator()

	_, _, err := it.Current()
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestIteratorCurrentAfterEnd(t *testing.T) {
	m := newTestMap[string, string](t)
	require.NoError(t, m.Add("k1", "v1"))
	it := m.Iterator()

	ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	k, v, err := it.Current()
	require.NoError(t, err)
	require.Equal(t, "k1", k)
	require.Equal(t, "v1", v)

	ok, err = it.Next()
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = it.Current()
	require.ErrorIs(t, err, ErrInvalidState)

	// exhaustion is terminal
	ok, err = it.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIteratorFailsAfterAdd(t *testing.T) {
	m := newTestMap[string, int](t)
	require.NoError(t, m.Add("test", 42))

	it := m.Iterator()
	ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, m.Add("another", 100))

	_, err = it.Next()
	require.ErrorIs(t, err, ErrConcurrentModification)
	_, _, err = it.Current()
	require.ErrorIs(t, err, ErrConcurrentModification)
	require.ErrorIs(t, it.Reset(), ErrConcurrentModification)
}

func TestIteratorFailsAfterEachMutation(t *testing.T) {
	mutations := map[string]func(m *MultiMap[string, int]) error{
		"add": func(m *MultiMap[string, int]) error { return m.Add("new", 1) },
		"add value to existing key": func(m *MultiMap[string, int]) error {
			return m.Add("a", 9)
		},
		"remove value": func(m *MultiMap[string, int]) error {
			_, err := m.RemoveValue("a", 1)
			return err
		},
		"remove key": func(m *MultiMap[string, int]) error {
			_, err := m.RemoveKey("b")
			return err
		},
		"clear": func(m *MultiMap[string, int]) error {
			m.Clear()
			return nil
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			m := newTestMap[string, int](t)
			require.NoError(t, m.AddAll("a", 1, 2))
			require.NoError(t, m.Add("b", 3))

			it := m.Iterator()
			require.NoError(t, mutate(m))

			_, err := it.Next()
			require.ErrorIs(t, err, ErrConcurrentModification)
		})
	}
}

func TestIteratorFailsAfterResize(t *testing.T) {
	m := newTestMap[int, int](t, WithCapacity(2))
	require.NoError(t, m.Add(1, 1))
	require.NoError(t, m.Add(2, 2))

	it := m.Iterator()
	require.NoError(t, m.Add(3, 3))
	require.Equal(t, 4, m.Capacity())

	_, err := it.Next()
	require.ErrorIs(t, err, ErrConcurrentModification)
}

func TestIteratorSurvivesNoOpMutations(t *testing.T) {
	m := newTestMap[string, int](t, WithValuePolicy(ValuesSet))
	require.NoError(t, m.AddAll("a", 1, 2))

	it := m.Iterator()
	ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	removed, err := m.RemoveValue("a", 42)
	require.NoError(t, err)
	require.False(t, removed)
	removed, err = m.RemoveKey("zzz")
	require.NoError(t, err)
	require.False(t, removed)
	require.NoError(t, m.Add("a", 1))
	_, _ = m.GetValues("a")

	ok, err = it.Next()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIteratorReset(t *testing.T) {
	m := newTestMap[int, int](t)
	require.NoError(t, m.Add(100, 200))
	require.NoError(t, m.Add(101, 201))

	it := m.Iterator()
	ok, err := it.Next()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, it.Reset())
	_, _, err = it.Current()
	require.ErrorIs(t, err, ErrInvalidState)

	require.Len(t, collect(t, it), 2)

	require.NoError(t, it.Reset())
	require.Len(t, collect(t, it), 2)
}

func TestIteratorSkipsEmptyEntries(t *testing.T) {
	m := newTestMap[int, int](t, WithBucketCount(1))
	require.NoError(t, m.Add(1, 10))
	require.NoError(t, m.Add(2, 20))

	// an entry without values must never exist, but iteration
	// must not yield one if it does
	b := &m.buckets[0]
	b.entries = []entry[int, int]{
		{key: 0},
		b.entries[0],
		{key: 7, values: []int{}},
		b.entries[1],
		{key: 8},
	}

	require.ElementsMatch(t, []EntryOf[int, int]{
		{Key: 1, Value: 10},
		{Key: 2, Value: 20},
	}, collect(t, m.Iterator()))
}

func TestIteratorsAreIndependent(t *testing.T) {
	m := newTestMap[int, int](t)
	for i := range 10 {
		require.NoError(t, m.Add(i, i))
	}

	a, b := m.Iterator(), m.Iterator()
	for range 5 {
		ok, err := a.Next()
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.Len(t, collect(t, b), 10)
	require.Len(t, collect(t, a), 5)
}

func TestRange(t *testing.T) {
	m := newTestMap[string, int](t)
	require.NoError(t, m.AddAll("a", 1, 2, 3))
	require.NoError(t, m.AddAll("b", 4, 5))

	sum := 0
	require.NoError(t, m.Range(func(_ string, v int) bool {
		sum += v
		return true
	}))
	require.Equal(t, 15, sum)

	calls := 0
	require.NoError(t, m.Range(func(string, int) bool {
		calls++
		return calls < 2
	}))
	require.Equal(t, 2, calls)
}

func TestRangeDetectsMutationFromYield(t *testing.T) {
	m := newTestMap[string, int](t)
	require.NoError(t, m.Add("alpha", 1))
	require.NoError(t, m.Add("beta", 2))

	err := m.Range(func(string, int) bool {
		require.NoError(t, m.Add("gamma", 3))
		return true
	})
	require.ErrorIs(t, err, ErrConcurrentModification)
}

func TestRangeAllowsReadsFromYield(t *testing.T) {
	m := newTestMap[string, int](t)
	require.NoError(t, m.AddAll("a", 1, 2))

	err := m.Range(func(k string, _ int) bool {
		values, err := m.GetValues(k)
		require.NoError(t, err)
		require.Len(t, values, 2)
		return true
	})
	require.NoError(t, err)
}
