// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orderedhash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerInitialRepresentation(t *testing.T) {
	testCases := []struct {
		capacity         int
		expectedSmall    bool
		expectedCapacity int
	}{
		{0, true, 4},
		{100, true, 128},
		{253, true, 254},
		{254, false, 256},
		{1000, false, 1024},
	}
	for _, c := range testCases {
		t.Run("", func(t *testing.T) {
			h, err := NewSetHandler(c.capacity)
			require.NoError(t, err)
			require.Equal(t, c.expectedSmall, h.IsSmall())
			require.Equal(t, c.expectedCapacity, h.Capacity())
		})
	}

	_, err := NewMapHandler(0, WithAllocator(&failingAllocator{}))
	require.ErrorIs(t, err, ErrOutOfMemory)
	_, err = NewDictionaryHandler(1<<20, WithMaxCapacity(1<<10))
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestDictionaryHandlerPromotion(t *testing.T) {
	nt := NewNameTable()
	names := internNames(nt, 300)

	h, err := NewDictionaryHandler(0)
	require.NoError(t, err)
	require.Equal(t, NoHashSentinel, h.Hash())
	h.SetHash(9)

	for i, n := range names {
		require.NoError(t, h.Add(n, i, Details(i%7)))
		require.Equal(t, i < smallMaxCapacity, h.IsSmall(), "after %d adds", i+1)
	}
	require.Equal(t, promotedCapacity, h.Capacity())
	require.Equal(t, 300, h.Len())
	require.Equal(t, 9, h.Hash())

	for i, n := range names {
		e := h.FindEntry(n)
		require.EqualValues(t, i, e)
		require.Same(t, n, h.KeyAt(e))
		require.Equal(t, i, h.ValueAt(e))
		require.Equal(t, Details(i%7), h.DetailsAt(e))
	}
	require.False(t, h.HasKey(nt.Intern("absent")))
	require.Equal(t, NotFound, h.FindEntry(NewNameTable().Intern("name0")))

	var got []*Name
	h.All(func(key *Name, value Object) bool {
		got = append(got, key)
		return true
	})
	require.Equal(t, names, got)
}

func TestDictionaryHandler(t *testing.T) {
	names := internNames(NewNameTable(), 10)
	h, err := NewDictionaryHandler(0)
	require.NoError(t, err)
	for i, n := range names {
		require.NoError(t, h.Add(n, i, EmptyDetails))
	}

	e := h.FindEntry(names[2])
	h.ValueAtPut(e, "two")
	h.DetailsAtPut(e, Details(2))
	require.Equal(t, "two", h.ValueAt(e))
	require.Equal(t, Details(2), h.DetailsAt(e))
	h.SetEntry(e, names[2], 2, Details(22))
	require.Equal(t, 2, h.ValueAt(e))
	require.Equal(t, Details(22), h.DetailsAt(e))

	require.NoError(t, h.DeleteEntry(e))
	require.False(t, h.HasKey(names[2]))
	require.Panics(t, func() { h.ValueAtPut(e, "x") })

	for _, n := range names[3:9] {
		ok, err := h.Delete(n)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := h.Delete(names[3])
	require.NoError(t, err)
	require.False(t, ok)

	// Deletion shrinks: 3 live entries in 16 slots.
	require.Equal(t, 3, h.Len())
	require.Equal(t, 8, h.Capacity())

	h.SetHash(3)
	require.NoError(t, h.Shrink())
	require.NoError(t, h.Clear())
	require.Equal(t, 0, h.Len())
	require.Equal(t, 3, h.Hash())
}

func TestMapHandlerMatchesLargeMap(t *testing.T) {
	h, err := NewMapHandler(0)
	require.NoError(t, err)
	m, err := NewOrderedHashMap(0)
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		require.NoError(t, h.Add(i, i*i))
		m, err = m.Add(i, i*i)
		require.NoError(t, err)
		if i%5 == 0 {
			require.Equal(t, m.Delete(i/2), h.Delete(i/2))
		}
	}
	require.False(t, h.IsSmall())
	require.Equal(t, m.Len(), h.Len())
	require.Equal(t, m.Capacity(), h.Capacity())

	type kv struct{ k, v Object }
	var expected, actual []kv
	m.All(func(k, v Object) bool {
		expected = append(expected, kv{k, v})
		return true
	})
	h.All(func(k, v Object) bool {
		actual = append(actual, kv{k, v})
		return true
	})
	require.Equal(t, expected, actual)

	for i := 0; i < 1000; i++ {
		ev, eok := m.Get(i)
		v, ok := h.Get(i)
		require.Equal(t, eok, ok)
		require.Equal(t, ev, v)
		if e := h.FindEntry(i); e.IsFound() {
			require.Equal(t, i, h.KeyAt(e))
		}
	}

	e := h.FindEntry(999)
	h.ValueAtPut(e, "last")
	require.Equal(t, "last", h.ValueAt(e))
	require.Equal(t, 999, h.KeyAt(e))
}

func TestPromotionIsOneWay(t *testing.T) {
	h, err := NewMapHandler(0)
	require.NoError(t, err)
	for i := 0; i < 300; i++ {
		require.NoError(t, h.Add(i, i))
	}
	require.False(t, h.IsSmall())
	for i := 0; i < 298; i++ {
		require.True(t, h.Delete(i))
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, h.Shrink())
	}
	// Two live entries are not fewer than a quarter of 8 slots.
	require.Equal(t, 8, h.Capacity())
	require.False(t, h.IsSmall())

	require.True(t, h.Delete(298))
	require.NoError(t, h.Shrink())
	require.NoError(t, h.Shrink())
	require.Equal(t, initialCapacity, h.Capacity())
	require.False(t, h.IsSmall())

	require.NoError(t, h.Clear())
	require.False(t, h.IsSmall())
	require.Equal(t, 0, h.Len())
	require.NoError(t, h.Add("a", "b"))
	v, ok := h.Get("a")
	require.True(t, ok)
	require.Equal(t, "b", v)
}

func TestSetHandler(t *testing.T) {
	h, err := NewSetHandler(0)
	require.NoError(t, err)
	for _, k := range []Object{"a", "b", "c"} {
		require.NoError(t, h.Add(k))
	}
	require.NoError(t, h.Add("a"))
	require.True(t, h.Delete("b"))
	require.False(t, h.Delete("b"))
	require.NoError(t, h.Add("d"))
	require.Equal(t, []Object{"a", "c", "d"}, h.Keys())
	require.True(t, IsTheHole(h.KeyAt(1)))
	require.EqualValues(t, 3, h.FindEntry("d"))
	require.True(t, h.HasKey("a"))
	require.Equal(t, 3, h.Len())

	require.NoError(t, h.Clear())
	require.True(t, h.IsSmall())
	require.Equal(t, smallMinCapacity, h.Capacity())
	require.Empty(t, h.Keys())
}

func TestIteratorAcrossPromotion(t *testing.T) {
	h, err := NewSetHandler(0)
	require.NoError(t, err)
	for _, k := range intKeys(0, smallMaxCapacity) {
		require.NoError(t, h.Add(k))
	}

	it := h.NewIterator()
	var seen []Object
	for i := 0; i < 100; i++ {
		require.True(t, it.HasMore())
		seen = append(seen, it.CurrentKey())
		it.MoveNext()
	}

	// Tombstones on both sides of the cursor are dropped by the promotion.
	for _, k := range []Object{10, 20, 150, 200} {
		require.True(t, h.Delete(k))
	}
	require.True(t, h.IsSmall())
	require.NoError(t, h.Add(1000))
	require.False(t, h.IsSmall())

	for ; it.HasMore(); it.MoveNext() {
		seen = append(seen, it.CurrentKey())
	}
	var expected []Object
	expected = append(expected, intKeys(0, 100)...)
	for _, k := range intKeys(100, smallMaxCapacity) {
		if k != 150 && k != 200 {
			expected = append(expected, k)
		}
	}
	expected = append(expected, 1000)
	require.Equal(t, expected, seen)
}

func TestPromotionOutOfMemory(t *testing.T) {
	// Enough for the small tables of 4 through 254 slots, but not for the
	// promoted table.
	a := &failingAllocator{budget: 14}
	h, err := NewSetHandler(0, WithAllocator(a))
	require.NoError(t, err)
	for _, k := range intKeys(0, smallMaxCapacity) {
		require.NoError(t, h.Add(k))
	}
	require.Equal(t, 0, a.budget)

	err = h.Add(smallMaxCapacity)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.NotErrorIs(t, err, ErrCannotGrow)
	require.True(t, h.IsSmall())
	require.False(t, h.small.isObsolete())
	require.Equal(t, intKeys(0, smallMaxCapacity), h.Keys())

	a.budget = 2
	require.NoError(t, h.Add(smallMaxCapacity))
	require.False(t, h.IsSmall())
	require.Equal(t, intKeys(0, smallMaxCapacity+1), h.Keys())
}

func TestPromotionRespectsMaxCapacity(t *testing.T) {
	h, err := NewSetHandler(0, WithMaxCapacity(smallGrowthHack))
	require.NoError(t, err)
	for _, k := range intKeys(0, smallMaxCapacity+2) {
		require.NoError(t, h.Add(k))
	}
	require.False(t, h.IsSmall())
	require.Equal(t, smallGrowthHack, h.Capacity())
	require.Equal(t, intKeys(0, smallMaxCapacity+2), h.Keys())

	// Too small a ceiling to hold the small table's entries.
	h, err = NewSetHandler(0, WithMaxCapacity(128))
	require.NoError(t, err)
	for _, k := range intKeys(0, smallMaxCapacity) {
		require.NoError(t, h.Add(k))
	}
	require.ErrorIs(t, h.Add(smallMaxCapacity), ErrCapacityExceeded)
	require.True(t, h.IsSmall())
	require.Equal(t, intKeys(0, smallMaxCapacity), h.Keys())
}

func TestHandlerReadsAcrossRelocation(t *testing.T) {
	a := &movingAllocator{}
	h, err := NewMapHandler(0, WithAllocator(a))
	require.NoError(t, err)
	for i := 0; i <= smallMaxCapacity; i++ {
		require.NoError(t, h.Add(i, -i))
	}
	require.False(t, h.IsSmall())
	require.Equal(t, 0, a.depth)

	for i := 0; i <= smallMaxCapacity; i++ {
		v, ok := h.Get(i)
		require.True(t, ok)
		require.Equal(t, -i, v)
	}

	m, err := NewOrderedHashMap(0, WithAllocator(a))
	require.NoError(t, err)
	sm, err := NewSmallOrderedHashMap(0, WithAllocator(a))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		m, err = m.Add(i, -i)
		require.NoError(t, err)
		sm, err = sm.Add(i, -i)
		require.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.Equal(t, -i, v)
		v, ok = sm.Get(i)
		require.True(t, ok)
		require.Equal(t, -i, v)
	}
}
