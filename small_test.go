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

func TestSmallInitialCapacity(t *testing.T) {
	testCases := []struct {
		initialCapacity  int
		expectedCapacity int
	}{
		{0, 4},
		{3, 4},
		{5, 8},
		{100, 128},
		{128, 128},
		{129, 254},
		{254, 254},
	}
	for _, c := range testCases {
		t.Run("", func(t *testing.T) {
			s, err := NewSmallOrderedHashSet(c.initialCapacity)
			require.NoError(t, err)
			require.Equal(t, c.expectedCapacity, s.Capacity())
			require.Len(t, s.links, c.expectedCapacity/loadFactor+c.expectedCapacity)
			for _, l := range s.links {
				require.EqualValues(t, 0xFF, l)
			}
		})
	}

	_, err := NewSmallOrderedHashSet(255)
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestSmallGrowth(t *testing.T) {
	a := &countingAllocator{}
	s, err := NewSmallOrderedHashSet(0, WithAllocator(a))
	require.NoError(t, err)

	var capacities []int
	for i := 0; i < smallMaxCapacity; i++ {
		s, err = s.Add(i)
		require.NoError(t, err)
		if n := len(capacities); n == 0 || capacities[n-1] != s.Capacity() {
			capacities = append(capacities, s.Capacity())
		}
	}
	require.Equal(t, []int{4, 8, 16, 32, 64, 128, 254}, capacities)
	require.Equal(t, smallMaxCapacity, s.Len())
	require.Equal(t, len(capacities), a.bytes)
	require.Equal(t, 0, a.links)

	// Every entry is reachable in a full table.
	for i := 0; i < smallMaxCapacity; i++ {
		require.EqualValues(t, i, s.FindEntry(i))
	}

	// The 255th key does not fit.
	ns, err := s.Add(smallMaxCapacity)
	require.ErrorIs(t, err, ErrCannotGrow)
	require.Same(t, s, ns)
	require.False(t, s.IsObsolete())
	require.Equal(t, intKeys(0, smallMaxCapacity), s.Keys())

	// An existing key is still a no-op.
	ns, err = s.Add(0)
	require.NoError(t, err)
	require.Same(t, s, ns)

	_, err = s.Grow()
	require.ErrorIs(t, err, ErrCannotGrow)

	_, err = s.Rehash(smallMaxCapacity + 1)
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestSmallCompaction(t *testing.T) {
	s, err := NewSmallOrderedHashSet(4)
	require.NoError(t, err)
	for _, k := range intKeys(1, 5) {
		s, err = s.Add(k)
		require.NoError(t, err)
	}
	require.True(t, s.Delete(1))
	require.True(t, s.Delete(2))

	// Half the slots are tombstones, so the table is compacted in place.
	old := s
	s, err = s.Add(5)
	require.NoError(t, err)
	require.True(t, old.IsObsolete())
	require.Equal(t, 4, s.Capacity())
	require.Equal(t, 0, s.NumberOfDeleted())
	require.Equal(t, []Object{3, 4, 5}, s.Keys())

	// A full table of 254 with enough tombstones compacts instead of failing.
	s, err = NewSmallOrderedHashSet(smallMaxCapacity)
	require.NoError(t, err)
	for _, k := range intKeys(0, smallMaxCapacity) {
		s, err = s.Add(k)
		require.NoError(t, err)
	}
	for _, k := range intKeys(0, smallMaxCapacity/2) {
		require.True(t, s.Delete(k))
	}
	s, err = s.Add(1000)
	require.NoError(t, err)
	require.Equal(t, smallMaxCapacity, s.Capacity())
	require.Equal(t, append(intKeys(smallMaxCapacity/2, smallMaxCapacity), 1000), s.Keys())
}

func TestSmallOrder(t *testing.T) {
	m, err := NewSmallOrderedHashMap(0)
	require.NoError(t, err)
	for _, k := range []Object{"a", "b", "c"} {
		m, err = m.Add(k, k.(string)+k.(string))
		require.NoError(t, err)
	}
	require.True(t, m.Delete("b"))
	require.False(t, m.Delete("b"))
	m, err = m.Add("d", "dd")
	require.NoError(t, err)

	var keys, values []Object
	m.All(func(k, v Object) bool {
		keys = append(keys, k)
		values = append(values, v)
		return true
	})
	require.Equal(t, []Object{"a", "c", "d"}, keys)
	require.Equal(t, []Object{"aa", "cc", "dd"}, values)

	e := m.FindEntry("c")
	require.EqualValues(t, 2, e)
	require.Equal(t, "c", m.KeyAt(e))
	m.ValueAtPut(e, "CC")
	v, ok := m.Get("c")
	require.True(t, ok)
	require.Equal(t, "CC", v)
	require.True(t, IsTheHole(m.KeyAt(1)))
	require.True(t, IsTheHole(m.ValueAt(1)))
	require.Panics(t, func() { m.ValueAtPut(1, "x") })
	require.Panics(t, func() { m.KeyAt(4) })
}

func TestSmallShrink(t *testing.T) {
	m, err := NewSmallOrderedHashMap(smallMaxCapacity)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		m, err = m.Add(i, -i)
		require.NoError(t, err)
	}
	for i := 0; i < 90; i++ {
		require.True(t, m.Delete(i))
	}
	m, err = m.Shrink()
	require.NoError(t, err)
	require.Equal(t, 128, m.Capacity())
	m, err = m.Shrink()
	require.NoError(t, err)
	require.Equal(t, 64, m.Capacity())
	m, err = m.Shrink()
	require.NoError(t, err)
	require.Equal(t, 32, m.Capacity())
	m, err = m.Shrink()
	require.NoError(t, err)
	require.Equal(t, 32, m.Capacity())

	for i := 90; i < 100; i++ {
		v, ok := m.Get(i)
		require.True(t, ok)
		require.EqualValues(t, -i, v)
	}

	m, err = m.Clear()
	require.NoError(t, err)
	require.Equal(t, 0, m.Len())
	require.Equal(t, smallMinCapacity, m.Capacity())
}

func TestSmallEmpty(t *testing.T) {
	s := NewEmptySmallOrderedHashSet()
	require.Equal(t, 0, s.Capacity())
	require.False(t, s.HasKey(1))
	require.Empty(t, s.Keys())
	s, err := s.Add(1)
	require.NoError(t, err)
	require.Equal(t, smallMinCapacity, s.Capacity())
	require.True(t, s.HasKey(1))

	m := NewEmptySmallOrderedHashMap()
	m, err = m.Add(1, 2)
	require.NoError(t, err)
	v, ok := m.Get(1)
	require.True(t, ok)
	require.Equal(t, 2, v)
}

func TestSmallOutOfMemory(t *testing.T) {
	a := &failingAllocator{budget: 2}
	s, err := NewSmallOrderedHashSet(0, WithAllocator(a))
	require.NoError(t, err)
	for _, k := range intKeys(0, 4) {
		s, err = s.Add(k)
		require.NoError(t, err)
	}
	ns, err := s.Add(4)
	require.ErrorIs(t, err, ErrOutOfMemory)
	require.NotErrorIs(t, err, ErrCannotGrow)
	require.Same(t, s, ns)
	require.False(t, s.IsObsolete())
	require.Equal(t, intKeys(0, 4), s.Keys())
}
