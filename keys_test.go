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
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyModelEqual(t *testing.T) {
	testCases := []struct {
		a, b     Object
		expected bool
	}{
		{1, 1, true},
		{1, 1.0, true},
		{int8(1), uint64(1), true},
		{float32(2.5), 2.5, true},
		{0, math.Copysign(0, -1), true},
		{math.NaN(), math.NaN(), true},
		{math.Inf(1), math.Inf(1), true},
		{math.Inf(1), math.Inf(-1), false},
		{uint64(math.MaxUint64), float64(1 << 64), true},
		{1, 2, false},
		{1, "1", false},
		{"a", "a", true},
		{"a", "b", false},
		{nil, nil, true},
		{nil, false, false},
		{true, true, true},
		{true, 1, false},
	}
	km := NewKeyModel(1)
	for _, c := range testCases {
		t.Run("", func(t *testing.T) {
			require.Equal(t, c.expected, km.Equal(c.a, c.b), "%v == %v", c.a, c.b)
			require.Equal(t, c.expected, km.Equal(c.b, c.a), "%v == %v", c.b, c.a)
			if c.expected {
				ha, ok := km.Hash(c.a)
				require.True(t, ok)
				hb, ok := km.Hash(c.b)
				require.True(t, ok)
				require.Equal(t, ha, hb)
			}
		})
	}
}

func TestKeyModelHashRange(t *testing.T) {
	km := NewKeyModel(1)
	for _, k := range []Object{0, -1, math.MaxInt64, 0.5, math.NaN(), "", "abc", nil, true, false} {
		h, ok := km.Hash(k)
		require.True(t, ok)
		require.LessOrEqual(t, h, uint32(hashMask))
		require.Equal(t, h, km.GetOrCreateHash(k))
	}
}

func TestIdentityHash(t *testing.T) {
	km := NewKeyModel(1)

	// Keys carrying their own hash slot.
	o := &HeapObject{Label: "o"}
	_, ok := km.Hash(o)
	require.False(t, ok)
	h := km.GetOrCreateHash(o)
	require.NotZero(t, h)
	got, ok := km.Hash(o)
	require.True(t, ok)
	require.Equal(t, h, got)
	require.Equal(t, h, km.GetOrCreateHash(o))
	require.Equal(t, "o", o.String())

	// Other keys get a side table entry.
	type opaque struct{ x int }
	p := &opaque{1}
	_, ok = km.Hash(p)
	require.False(t, ok)
	h = km.GetOrCreateHash(p)
	got, ok = km.Hash(p)
	require.True(t, ok)
	require.Equal(t, h, got)

	// Identity, not contents.
	q := &opaque{1}
	require.False(t, km.Equal(p, q))
	_, ok = km.Hash(q)
	require.False(t, ok)
	require.False(t, km.Equal(o, &HeapObject{Label: "o"}))
}

func TestHoleIsNotAKey(t *testing.T) {
	km := NewKeyModel(1)
	_, ok := km.Hash(TheHole)
	require.False(t, ok)
	require.Panics(t, func() { km.GetOrCreateHash(TheHole) })
	require.True(t, IsTheHole(TheHole))
	require.False(t, IsTheHole(nil))
	require.Equal(t, "<the_hole>", theHole.String())

	s, err := NewOrderedHashSet(0)
	require.NoError(t, err)
	s, err = s.Add(1)
	require.NoError(t, err)
	require.False(t, s.HasKey(TheHole))

	// Rejected before a full table is rehashed.
	for _, k := range intKeys(2, initialCapacity+1) {
		s, err = s.Add(k)
		require.NoError(t, err)
	}
	require.Equal(t, initialCapacity, s.Len())
	require.Panics(t, func() { _, _ = s.Add(TheHole) })
	require.False(t, s.isObsolete())
	require.Equal(t, initialCapacity, s.Capacity())
}

func TestNameTable(t *testing.T) {
	nt := NewNameTable()
	a := nt.Intern("a")
	require.Same(t, a, nt.Intern("a"))
	require.NotSame(t, a, nt.Intern("b"))
	require.Equal(t, 2, nt.Len())
	require.Equal(t, "a", a.String())
	require.Equal(t, stringHash("a"), a.Hash())

	// Names from different tables are different keys, even though they hash
	// the same.
	other := NewNameTable().Intern("a")
	require.NotSame(t, a, other)
	require.Equal(t, a.Hash(), other.Hash())
}

func TestEntry(t *testing.T) {
	require.False(t, NotFound.IsFound())
	require.True(t, Entry(0).IsFound())
	require.Equal(t, "not-found", NotFound.String())
	require.Equal(t, "entry(3)", Entry(3).String())
	require.Equal(t, "young", Young.String())
	require.Equal(t, "old", Old.String())
	require.Equal(t, "generation(7)", Generation(7).String())
}
