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

// OrderedHashMap is an insertion-ordered map in the large representation.
// See OrderedHashSet for the conventions shared by all tables.
type OrderedHashMap largeTable

var emptyOrderedHashMap = (*OrderedHashMap)(newEmptyLargeTable(nil, mapEntrySize))

// EmptyOrderedHashMap returns the canonical empty map.
func EmptyOrderedHashMap() *OrderedHashMap {
	return emptyOrderedHashMap
}

// NewOrderedHashMap allocates a map with room for capacity entries, rounded
// up to a power of two.
func NewOrderedHashMap(capacity int, options ...option) (*OrderedHashMap, error) {
	t, err := newLargeTable(newConfig(options), mapEntrySize, capacity)
	if err != nil {
		return nil, err
	}
	return (*OrderedHashMap)(t), nil
}

// NewEmptyOrderedHashMap returns a zero-capacity map that allocates on first
// add using the given options.
func NewEmptyOrderedHashMap(options ...option) *OrderedHashMap {
	return (*OrderedHashMap)(newEmptyLargeTable(newConfig(options), mapEntrySize))
}

func (m *OrderedHashMap) table() *largeTable {
	return (*largeTable)(m)
}

// Add inserts key with value. If key is already present the map is returned
// unchanged and the existing value is retained.
func (m *OrderedHashMap) Add(key, value Object) (*OrderedHashMap, error) {
	t, err := m.table().add(key, value, EmptyDetails)
	return (*OrderedHashMap)(t), err
}

// Get returns the value stored for key.
func (m *OrderedHashMap) Get(key Object) (value Object, ok bool) {
	return m.table().lookup(key)
}

// FindEntry returns the entry holding key, or NotFound.
func (m *OrderedHashMap) FindEntry(key Object) Entry {
	return Entry(m.table().find(key))
}

// HasKey returns true if key is present.
func (m *OrderedHashMap) HasKey(key Object) bool {
	return m.table().find(key) != notFound
}

// GetHash returns the hash of key, or -1 if key has never been hashed and so
// cannot be present in any table.
func (m *OrderedHashMap) GetHash(key Object) int {
	if m.cfg == nil {
		return -1
	}
	h, ok := m.cfg.keys.Hash(key)
	if !ok {
		return -1
	}
	return int(h)
}

// Delete removes key, returning false if it was not present.
func (m *OrderedHashMap) Delete(key Object) bool {
	return m.table().remove(key)
}

// EnsureCapacityForAdding returns a table with room for one more entry.
func (m *OrderedHashMap) EnsureCapacityForAdding() (*OrderedHashMap, error) {
	t, err := m.table().ensureCapacityForAdding()
	return (*OrderedHashMap)(t), err
}

// Shrink halves the capacity if fewer than a quarter of it is in use.
func (m *OrderedHashMap) Shrink() (*OrderedHashMap, error) {
	t, err := m.table().shrink()
	return (*OrderedHashMap)(t), err
}

// Clear returns a new empty map. Live iterators restart from its beginning.
func (m *OrderedHashMap) Clear() (*OrderedHashMap, error) {
	t, err := m.table().clear()
	return (*OrderedHashMap)(t), err
}

// Rehash moves the entries into a new table with room for at least capacity
// entries, dropping tombstones.
func (m *OrderedHashMap) Rehash(capacity int) (*OrderedHashMap, error) {
	t, err := m.table().rehash(max(capacity, m.Len()))
	return (*OrderedHashMap)(t), err
}

// Compact drops tombstones by rehashing at the current capacity.
func (m *OrderedHashMap) Compact() (*OrderedHashMap, error) {
	return m.Rehash(m.Capacity())
}

// KeyAt returns the key at entry, or TheHole if the entry was deleted.
func (m *OrderedHashMap) KeyAt(entry Entry) Object {
	return m.keyAt(m.checkEntry(entry))
}

// ValueAt returns the value at entry, or TheHole if the entry was deleted.
func (m *OrderedHashMap) ValueAt(entry Entry) Object {
	return m.valueAt(m.checkEntry(entry))
}

// ValueAtPut overwrites the value at a live entry.
func (m *OrderedHashMap) ValueAtPut(entry Entry, value Object) {
	m.putValue(entry, value)
}

// Len returns the number of live entries.
func (m *OrderedHashMap) Len() int {
	return m.numElements
}

// NumberOfDeleted returns the number of tombstones.
func (m *OrderedHashMap) NumberOfDeleted() int {
	return max(m.numDeleted, 0)
}

// NumberOfBuckets returns the number of hash chains.
func (m *OrderedHashMap) NumberOfBuckets() int {
	return m.numBuckets
}

// Capacity returns the number of entry slots.
func (m *OrderedHashMap) Capacity() int {
	return m.capacity()
}

// IsObsolete returns true once the table has been replaced.
func (m *OrderedHashMap) IsObsolete() bool {
	return m.isObsolete()
}

// NewIterator returns an iterator positioned before the first entry.
func (m *OrderedHashMap) NewIterator() *Iterator {
	return newIterator(&m.store, mapEntrySize)
}

// All calls yield sequentially for each entry in insertion order. If yield
// returns false, iteration stops.
func (m *OrderedHashMap) All(yield func(key, value Object) bool) {
	for it := m.NewIterator(); it.HasMore(); it.MoveNext() {
		if !yield(it.CurrentKey(), it.CurrentValue()) {
			return
		}
	}
}

// SmallOrderedHashMap is an insertion-ordered map in the small
// representation. See MapHandler for a map that promotes itself.
type SmallOrderedHashMap smallTable

// NewSmallOrderedHashMap allocates a small map with room for capacity
// entries. The capacity must not exceed 254.
func NewSmallOrderedHashMap(capacity int, options ...option) (*SmallOrderedHashMap, error) {
	t, err := newSmallTable(newConfig(options), mapEntrySize, capacity)
	if err != nil {
		return nil, err
	}
	return (*SmallOrderedHashMap)(t), nil
}

// NewEmptySmallOrderedHashMap returns a zero-capacity small map.
func NewEmptySmallOrderedHashMap(options ...option) *SmallOrderedHashMap {
	return (*SmallOrderedHashMap)(newEmptySmallTable(newConfig(options), mapEntrySize))
}

func (m *SmallOrderedHashMap) table() *smallTable {
	return (*smallTable)(m)
}

// Add inserts key with value, retaining the existing value if key is
// present. A full table that cannot grow returns ErrCannotGrow.
func (m *SmallOrderedHashMap) Add(key, value Object) (*SmallOrderedHashMap, error) {
	t, err := m.table().add(key, value, EmptyDetails)
	return (*SmallOrderedHashMap)(t), err
}

// Get returns the value stored for key.
func (m *SmallOrderedHashMap) Get(key Object) (value Object, ok bool) {
	return m.table().lookup(key)
}

// FindEntry returns the entry holding key, or NotFound.
func (m *SmallOrderedHashMap) FindEntry(key Object) Entry {
	return Entry(m.table().find(key))
}

// HasKey returns true if key is present.
func (m *SmallOrderedHashMap) HasKey(key Object) bool {
	return m.table().find(key) != notFound
}

// Delete removes key, returning false if it was not present.
func (m *SmallOrderedHashMap) Delete(key Object) bool {
	return m.table().remove(key)
}

// Grow returns a table with room for one more entry, or ErrCannotGrow.
func (m *SmallOrderedHashMap) Grow() (*SmallOrderedHashMap, error) {
	t, err := m.table().grow()
	return (*SmallOrderedHashMap)(t), err
}

// Shrink halves the capacity if fewer than a quarter of it is in use.
func (m *SmallOrderedHashMap) Shrink() (*SmallOrderedHashMap, error) {
	t, err := m.table().shrink()
	return (*SmallOrderedHashMap)(t), err
}

// Clear returns a new empty small map.
func (m *SmallOrderedHashMap) Clear() (*SmallOrderedHashMap, error) {
	t, err := m.table().clear()
	return (*SmallOrderedHashMap)(t), err
}

// Rehash moves the entries into a new table with room for at least capacity
// entries, dropping tombstones.
func (m *SmallOrderedHashMap) Rehash(capacity int) (*SmallOrderedHashMap, error) {
	t, err := m.table().rehash(max(capacity, m.Len()))
	return (*SmallOrderedHashMap)(t), err
}

// KeyAt returns the key at entry, or TheHole if the entry was deleted.
func (m *SmallOrderedHashMap) KeyAt(entry Entry) Object {
	return m.keyAt(m.checkEntry(entry))
}

// ValueAt returns the value at entry, or TheHole if the entry was deleted.
func (m *SmallOrderedHashMap) ValueAt(entry Entry) Object {
	return m.valueAt(m.checkEntry(entry))
}

// ValueAtPut overwrites the value at a live entry.
func (m *SmallOrderedHashMap) ValueAtPut(entry Entry, value Object) {
	m.putValue(entry, value)
}

// Len returns the number of live entries.
func (m *SmallOrderedHashMap) Len() int {
	return m.numElements
}

// NumberOfDeleted returns the number of tombstones.
func (m *SmallOrderedHashMap) NumberOfDeleted() int {
	return max(m.numDeleted, 0)
}

// Capacity returns the number of entry slots.
func (m *SmallOrderedHashMap) Capacity() int {
	return m.capacity()
}

// IsObsolete returns true once the table has been replaced.
func (m *SmallOrderedHashMap) IsObsolete() bool {
	return m.isObsolete()
}

// NewIterator returns an iterator positioned before the first entry.
func (m *SmallOrderedHashMap) NewIterator() *Iterator {
	return newIterator(&m.store, mapEntrySize)
}

// All calls yield sequentially for each entry in insertion order.
func (m *SmallOrderedHashMap) All(yield func(key, value Object) bool) {
	for it := m.NewIterator(); it.HasMore(); it.MoveNext() {
		if !yield(it.CurrentKey(), it.CurrentValue()) {
			return
		}
	}
}
