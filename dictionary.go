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

// OrderedNameDictionary is an insertion-ordered dictionary from interned
// Names to a value and a Details word, in the large representation. Keys are
// compared by identity. The dictionary also carries a whole-table hash which
// survives every rehash.
type OrderedNameDictionary largeTable

var emptyOrderedNameDictionary = (*OrderedNameDictionary)(newEmptyLargeTable(nil, dictionaryEntrySize))

// EmptyOrderedNameDictionary returns the canonical empty dictionary.
func EmptyOrderedNameDictionary() *OrderedNameDictionary {
	return emptyOrderedNameDictionary
}

// NewOrderedNameDictionary allocates a dictionary with room for capacity
// entries, rounded up to a power of two. Its hash is NoHashSentinel.
func NewOrderedNameDictionary(capacity int, options ...option) (*OrderedNameDictionary, error) {
	t, err := newLargeTable(newConfig(options), dictionaryEntrySize, capacity)
	if err != nil {
		return nil, err
	}
	return (*OrderedNameDictionary)(t), nil
}

// NewEmptyOrderedNameDictionary returns a zero-capacity dictionary.
func NewEmptyOrderedNameDictionary(options ...option) *OrderedNameDictionary {
	return (*OrderedNameDictionary)(newEmptyLargeTable(newConfig(options), dictionaryEntrySize))
}

func (d *OrderedNameDictionary) table() *largeTable {
	return (*largeTable)(d)
}

// Add inserts key with value and details. If key is already present the
// dictionary is returned unchanged.
func (d *OrderedNameDictionary) Add(key *Name, value Object, details Details) (*OrderedNameDictionary, error) {
	t, err := d.table().add(key, value, details)
	return (*OrderedNameDictionary)(t), err
}

// FindEntry returns the entry holding key, or NotFound.
func (d *OrderedNameDictionary) FindEntry(key *Name) Entry {
	return Entry(d.table().find(key))
}

// HasKey returns true if key is present.
func (d *OrderedNameDictionary) HasKey(key *Name) bool {
	return d.table().find(key) != notFound
}

// SetEntry overwrites all three words of entry. The key must be the key
// already stored at entry; use DeleteEntry to remove it.
func (d *OrderedNameDictionary) SetEntry(entry Entry, key Object, value Object, details Details) {
	d.checkLive()
	d.setEntry(entry, key, value, details)
}

// DeleteEntry tombstones entry and then shrinks the dictionary. If the
// shrink fails the tombstoned dictionary is returned along with the error.
func (d *OrderedNameDictionary) DeleteEntry(entry Entry) (*OrderedNameDictionary, error) {
	d.checkLive()
	d.deleteEntry(entry)
	d.checkInvariants()
	t, err := d.table().shrink()
	return (*OrderedNameDictionary)(t), err
}

// Delete removes key and shrinks the dictionary, reporting whether key was
// present.
func (d *OrderedNameDictionary) Delete(key *Name) (*OrderedNameDictionary, bool, error) {
	e := d.FindEntry(key)
	if !e.IsFound() {
		return d, false, nil
	}
	nd, err := d.DeleteEntry(e)
	return nd, true, err
}

// Shrink halves the capacity if fewer than a quarter of it is in use.
func (d *OrderedNameDictionary) Shrink() (*OrderedNameDictionary, error) {
	t, err := d.table().shrink()
	return (*OrderedNameDictionary)(t), err
}

// EnsureCapacityForAdding returns a table with room for one more entry.
func (d *OrderedNameDictionary) EnsureCapacityForAdding() (*OrderedNameDictionary, error) {
	t, err := d.table().ensureCapacityForAdding()
	return (*OrderedNameDictionary)(t), err
}

// Clear returns a new empty dictionary with the same hash.
func (d *OrderedNameDictionary) Clear() (*OrderedNameDictionary, error) {
	t, err := d.table().clear()
	return (*OrderedNameDictionary)(t), err
}

// Rehash moves the entries into a new table with room for at least capacity
// entries, dropping tombstones.
func (d *OrderedNameDictionary) Rehash(capacity int) (*OrderedNameDictionary, error) {
	t, err := d.table().rehash(max(capacity, d.Len()))
	return (*OrderedNameDictionary)(t), err
}

// KeyAt returns the key at entry: a *Name, or TheHole if the entry was
// deleted.
func (d *OrderedNameDictionary) KeyAt(entry Entry) Object {
	return d.keyAt(d.checkEntry(entry))
}

// ValueAt returns the value at entry.
func (d *OrderedNameDictionary) ValueAt(entry Entry) Object {
	return d.valueAt(d.checkEntry(entry))
}

// ValueAtPut overwrites the value at entry.
func (d *OrderedNameDictionary) ValueAtPut(entry Entry, value Object) {
	d.putWord(entry, valueIndex, value)
}

// DetailsAt returns the details at entry.
func (d *OrderedNameDictionary) DetailsAt(entry Entry) Details {
	return d.detailsAt(d.checkEntry(entry))
}

// DetailsAtPut overwrites the details at entry.
func (d *OrderedNameDictionary) DetailsAtPut(entry Entry, details Details) {
	d.putWord(entry, detailsIndex, details)
}

// Hash returns the whole-table hash.
func (d *OrderedNameDictionary) Hash() int {
	return d.hash
}

// SetHash sets the whole-table hash.
func (d *OrderedNameDictionary) SetHash(hash int) {
	d.checkLive()
	d.hash = hash
}

// Len returns the number of live entries.
func (d *OrderedNameDictionary) Len() int {
	return d.numElements
}

// NumberOfDeleted returns the number of tombstones.
func (d *OrderedNameDictionary) NumberOfDeleted() int {
	return max(d.numDeleted, 0)
}

// Capacity returns the number of entry slots.
func (d *OrderedNameDictionary) Capacity() int {
	return d.capacity()
}

// IsObsolete returns true once the table has been replaced.
func (d *OrderedNameDictionary) IsObsolete() bool {
	return d.isObsolete()
}

// NewIterator returns an iterator positioned before the first entry.
func (d *OrderedNameDictionary) NewIterator() *Iterator {
	return newIterator(&d.store, dictionaryEntrySize)
}

// All calls yield sequentially for each entry in insertion order.
func (d *OrderedNameDictionary) All(yield func(key *Name, value Object) bool) {
	for it := d.NewIterator(); it.HasMore(); it.MoveNext() {
		if !yield(it.CurrentKey().(*Name), it.CurrentValue()) {
			return
		}
	}
}

// SmallOrderedNameDictionary is a name dictionary in the small
// representation. See DictionaryHandler for a dictionary that promotes
// itself.
type SmallOrderedNameDictionary smallTable

// NewSmallOrderedNameDictionary allocates a small dictionary with room for
// capacity entries. The capacity must not exceed 254.
func NewSmallOrderedNameDictionary(capacity int, options ...option) (*SmallOrderedNameDictionary, error) {
	t, err := newSmallTable(newConfig(options), dictionaryEntrySize, capacity)
	if err != nil {
		return nil, err
	}
	return (*SmallOrderedNameDictionary)(t), nil
}

func (d *SmallOrderedNameDictionary) table() *smallTable {
	return (*smallTable)(d)
}

// Add inserts key with value and details. A full table that cannot grow
// returns ErrCannotGrow.
func (d *SmallOrderedNameDictionary) Add(key *Name, value Object, details Details) (*SmallOrderedNameDictionary, error) {
	t, err := d.table().add(key, value, details)
	return (*SmallOrderedNameDictionary)(t), err
}

// FindEntry returns the entry holding key, or NotFound.
func (d *SmallOrderedNameDictionary) FindEntry(key *Name) Entry {
	return Entry(d.table().find(key))
}

// HasKey returns true if key is present.
func (d *SmallOrderedNameDictionary) HasKey(key *Name) bool {
	return d.table().find(key) != notFound
}

// SetEntry overwrites all three words of entry.
func (d *SmallOrderedNameDictionary) SetEntry(entry Entry, key Object, value Object, details Details) {
	d.checkLive()
	d.setEntry(entry, key, value, details)
}

// DeleteEntry tombstones entry and then shrinks the dictionary.
func (d *SmallOrderedNameDictionary) DeleteEntry(entry Entry) (*SmallOrderedNameDictionary, error) {
	d.checkLive()
	d.deleteEntry(entry)
	d.checkInvariants()
	t, err := d.table().shrink()
	return (*SmallOrderedNameDictionary)(t), err
}

// Delete removes key and shrinks the dictionary, reporting whether key was
// present.
func (d *SmallOrderedNameDictionary) Delete(key *Name) (*SmallOrderedNameDictionary, bool, error) {
	e := d.FindEntry(key)
	if !e.IsFound() {
		return d, false, nil
	}
	nd, err := d.DeleteEntry(e)
	return nd, true, err
}

// Grow returns a table with room for one more entry, or ErrCannotGrow.
func (d *SmallOrderedNameDictionary) Grow() (*SmallOrderedNameDictionary, error) {
	t, err := d.table().grow()
	return (*SmallOrderedNameDictionary)(t), err
}

// Shrink halves the capacity if fewer than a quarter of it is in use.
func (d *SmallOrderedNameDictionary) Shrink() (*SmallOrderedNameDictionary, error) {
	t, err := d.table().shrink()
	return (*SmallOrderedNameDictionary)(t), err
}

// Clear returns a new empty small dictionary with the same hash.
func (d *SmallOrderedNameDictionary) Clear() (*SmallOrderedNameDictionary, error) {
	t, err := d.table().clear()
	return (*SmallOrderedNameDictionary)(t), err
}

// Rehash moves the entries into a new table with room for at least capacity
// entries, dropping tombstones.
func (d *SmallOrderedNameDictionary) Rehash(capacity int) (*SmallOrderedNameDictionary, error) {
	t, err := d.table().rehash(max(capacity, d.Len()))
	return (*SmallOrderedNameDictionary)(t), err
}

// KeyAt returns the key at entry: a *Name, or TheHole.
func (d *SmallOrderedNameDictionary) KeyAt(entry Entry) Object {
	return d.keyAt(d.checkEntry(entry))
}

// ValueAt returns the value at entry.
func (d *SmallOrderedNameDictionary) ValueAt(entry Entry) Object {
	return d.valueAt(d.checkEntry(entry))
}

// ValueAtPut overwrites the value at entry.
func (d *SmallOrderedNameDictionary) ValueAtPut(entry Entry, value Object) {
	d.putWord(entry, valueIndex, value)
}

// DetailsAt returns the details at entry.
func (d *SmallOrderedNameDictionary) DetailsAt(entry Entry) Details {
	return d.detailsAt(d.checkEntry(entry))
}

// DetailsAtPut overwrites the details at entry.
func (d *SmallOrderedNameDictionary) DetailsAtPut(entry Entry, details Details) {
	d.putWord(entry, detailsIndex, details)
}

// Hash returns the whole-table hash.
func (d *SmallOrderedNameDictionary) Hash() int {
	return d.hash
}

// SetHash sets the whole-table hash.
func (d *SmallOrderedNameDictionary) SetHash(hash int) {
	d.checkLive()
	d.hash = hash
}

// Len returns the number of live entries.
func (d *SmallOrderedNameDictionary) Len() int {
	return d.numElements
}

// NumberOfDeleted returns the number of tombstones.
func (d *SmallOrderedNameDictionary) NumberOfDeleted() int {
	return max(d.numDeleted, 0)
}

// Capacity returns the number of entry slots.
func (d *SmallOrderedNameDictionary) Capacity() int {
	return d.capacity()
}

// IsObsolete returns true once the table has been replaced.
func (d *SmallOrderedNameDictionary) IsObsolete() bool {
	return d.isObsolete()
}

// NewIterator returns an iterator positioned before the first entry.
func (d *SmallOrderedNameDictionary) NewIterator() *Iterator {
	return newIterator(&d.store, dictionaryEntrySize)
}

// All calls yield sequentially for each entry in insertion order.
func (d *SmallOrderedNameDictionary) All(yield func(key *Name, value Object) bool) {
	for it := d.NewIterator(); it.HasMore(); it.MoveNext() {
		if !yield(it.CurrentKey().(*Name), it.CurrentValue()) {
			return
		}
	}
}
