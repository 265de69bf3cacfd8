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

// OrderedHashSet is an insertion-ordered set in the large representation.
//
// Operations that may allocate return the table to use from then on. The
// receiver may have become obsolete, and using an obsolete table for
// anything but iteration panics. On error the receiver is returned unchanged.
type OrderedHashSet largeTable

var emptyOrderedHashSet = (*OrderedHashSet)(newEmptyLargeTable(nil, setEntrySize))

// EmptyOrderedHashSet returns the canonical empty set. It has no capacity,
// is never marked obsolete, and adding to it returns a new table.
func EmptyOrderedHashSet() *OrderedHashSet {
	return emptyOrderedHashSet
}

// NewOrderedHashSet allocates a set with room for capacity entries, rounded
// up to a power of two.
func NewOrderedHashSet(capacity int, options ...option) (*OrderedHashSet, error) {
	t, err := newLargeTable(newConfig(options), setEntrySize, capacity)
	if err != nil {
		return nil, err
	}
	return (*OrderedHashSet)(t), nil
}

// NewEmptyOrderedHashSet returns a zero-capacity set that allocates on first
// add using the given options. Like the canonical empty set it is never
// superseded, so iterators created on it do not see later additions.
func NewEmptyOrderedHashSet(options ...option) *OrderedHashSet {
	return (*OrderedHashSet)(newEmptyLargeTable(newConfig(options), setEntrySize))
}

func (s *OrderedHashSet) table() *largeTable {
	return (*largeTable)(s)
}

// Add inserts key. Adding a key that is already present is a no-op.
func (s *OrderedHashSet) Add(key Object) (*OrderedHashSet, error) {
	t, err := s.table().add(key, nil, EmptyDetails)
	return (*OrderedHashSet)(t), err
}

// FindEntry returns the entry holding key, or NotFound.
func (s *OrderedHashSet) FindEntry(key Object) Entry {
	return Entry(s.table().find(key))
}

// HasKey returns true if key is present.
func (s *OrderedHashSet) HasKey(key Object) bool {
	return s.table().find(key) != notFound
}

// Delete removes key, returning false if it was not present. Delete never
// shrinks the table; see Shrink.
func (s *OrderedHashSet) Delete(key Object) bool {
	return s.table().remove(key)
}

// EnsureCapacityForAdding returns a table with room for one more entry.
func (s *OrderedHashSet) EnsureCapacityForAdding() (*OrderedHashSet, error) {
	t, err := s.table().ensureCapacityForAdding()
	return (*OrderedHashSet)(t), err
}

// Shrink halves the capacity if fewer than a quarter of it is in use.
func (s *OrderedHashSet) Shrink() (*OrderedHashSet, error) {
	t, err := s.table().shrink()
	return (*OrderedHashSet)(t), err
}

// Clear returns a new empty set. Live iterators restart from its beginning.
func (s *OrderedHashSet) Clear() (*OrderedHashSet, error) {
	t, err := s.table().clear()
	return (*OrderedHashSet)(t), err
}

// Rehash moves the entries into a new table with room for at least capacity
// entries, dropping tombstones.
func (s *OrderedHashSet) Rehash(capacity int) (*OrderedHashSet, error) {
	t, err := s.table().rehash(max(capacity, s.Len()))
	return (*OrderedHashSet)(t), err
}

// Compact drops tombstones by rehashing at the current capacity.
func (s *OrderedHashSet) Compact() (*OrderedHashSet, error) {
	return s.Rehash(s.Capacity())
}

// KeyAt returns the key at entry, or TheHole if the entry was deleted.
func (s *OrderedHashSet) KeyAt(entry Entry) Object {
	return s.keyAt(s.checkEntry(entry))
}

// Keys returns the live keys in insertion order.
func (s *OrderedHashSet) Keys() []Object {
	return s.liveKeys()
}

// Len returns the number of live entries.
func (s *OrderedHashSet) Len() int {
	return s.numElements
}

// NumberOfDeleted returns the number of tombstones.
func (s *OrderedHashSet) NumberOfDeleted() int {
	return max(s.numDeleted, 0)
}

// NumberOfBuckets returns the number of hash chains.
func (s *OrderedHashSet) NumberOfBuckets() int {
	return s.numBuckets
}

// Capacity returns the number of entry slots.
func (s *OrderedHashSet) Capacity() int {
	return s.capacity()
}

// IsObsolete returns true once the table has been replaced by a rehash or
// clear.
func (s *OrderedHashSet) IsObsolete() bool {
	return s.isObsolete()
}

// NewIterator returns an iterator positioned before the first entry.
func (s *OrderedHashSet) NewIterator() *Iterator {
	return newIterator(&s.store, setEntrySize)
}

// All calls yield sequentially for each key in insertion order. If yield
// returns false, iteration stops. The set may be modified by yield through
// the tables returned from its operations.
func (s *OrderedHashSet) All(yield func(key Object) bool) {
	for it := s.NewIterator(); it.HasMore(); it.MoveNext() {
		if !yield(it.CurrentKey()) {
			return
		}
	}
}

// SmallOrderedHashSet is an insertion-ordered set in the small
// representation. It holds at most 254 entries; Add fails with ErrCannotGrow
// beyond that. See SetHandler for a set that promotes itself.
type SmallOrderedHashSet smallTable

// NewSmallOrderedHashSet allocates a small set with room for capacity
// entries. The capacity must not exceed 254.
func NewSmallOrderedHashSet(capacity int, options ...option) (*SmallOrderedHashSet, error) {
	t, err := newSmallTable(newConfig(options), setEntrySize, capacity)
	if err != nil {
		return nil, err
	}
	return (*SmallOrderedHashSet)(t), nil
}

// NewEmptySmallOrderedHashSet returns a zero-capacity small set.
func NewEmptySmallOrderedHashSet(options ...option) *SmallOrderedHashSet {
	return (*SmallOrderedHashSet)(newEmptySmallTable(newConfig(options), setEntrySize))
}

func (s *SmallOrderedHashSet) table() *smallTable {
	return (*smallTable)(s)
}

// Add inserts key. If the table is full and cannot grow, the receiver is
// returned unchanged along with ErrCannotGrow.
func (s *SmallOrderedHashSet) Add(key Object) (*SmallOrderedHashSet, error) {
	t, err := s.table().add(key, nil, EmptyDetails)
	return (*SmallOrderedHashSet)(t), err
}

// FindEntry returns the entry holding key, or NotFound.
func (s *SmallOrderedHashSet) FindEntry(key Object) Entry {
	return Entry(s.table().find(key))
}

// HasKey returns true if key is present.
func (s *SmallOrderedHashSet) HasKey(key Object) bool {
	return s.table().find(key) != notFound
}

// Delete removes key, returning false if it was not present.
func (s *SmallOrderedHashSet) Delete(key Object) bool {
	return s.table().remove(key)
}

// Grow returns a table with room for one more entry, or ErrCannotGrow.
func (s *SmallOrderedHashSet) Grow() (*SmallOrderedHashSet, error) {
	t, err := s.table().grow()
	return (*SmallOrderedHashSet)(t), err
}

// Shrink halves the capacity if fewer than a quarter of it is in use.
func (s *SmallOrderedHashSet) Shrink() (*SmallOrderedHashSet, error) {
	t, err := s.table().shrink()
	return (*SmallOrderedHashSet)(t), err
}

// Clear returns a new empty small set.
func (s *SmallOrderedHashSet) Clear() (*SmallOrderedHashSet, error) {
	t, err := s.table().clear()
	return (*SmallOrderedHashSet)(t), err
}

// Rehash moves the entries into a new table with room for at least capacity
// entries, dropping tombstones.
func (s *SmallOrderedHashSet) Rehash(capacity int) (*SmallOrderedHashSet, error) {
	t, err := s.table().rehash(max(capacity, s.Len()))
	return (*SmallOrderedHashSet)(t), err
}

// KeyAt returns the key at entry, or TheHole if the entry was deleted.
func (s *SmallOrderedHashSet) KeyAt(entry Entry) Object {
	return s.keyAt(s.checkEntry(entry))
}

// Keys returns the live keys in insertion order.
func (s *SmallOrderedHashSet) Keys() []Object {
	return s.liveKeys()
}

// Len returns the number of live entries.
func (s *SmallOrderedHashSet) Len() int {
	return s.numElements
}

// NumberOfDeleted returns the number of tombstones.
func (s *SmallOrderedHashSet) NumberOfDeleted() int {
	return max(s.numDeleted, 0)
}

// Capacity returns the number of entry slots.
func (s *SmallOrderedHashSet) Capacity() int {
	return s.capacity()
}

// IsObsolete returns true once the table has been replaced.
func (s *SmallOrderedHashSet) IsObsolete() bool {
	return s.isObsolete()
}

// NewIterator returns an iterator positioned before the first entry.
func (s *SmallOrderedHashSet) NewIterator() *Iterator {
	return newIterator(&s.store, setEntrySize)
}

// All calls yield sequentially for each key in insertion order.
func (s *SmallOrderedHashSet) All(yield func(key Object) bool) {
	for it := s.NewIterator(); it.HasMore(); it.MoveNext() {
		if !yield(it.CurrentKey()) {
			return
		}
	}
}
