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
	"errors"
	"fmt"
)

// tableStore is the representation-independent view of a live store used by
// handlers.
type tableStore interface {
	cursorTable
	find(key Object) int
	lookup(key Object) (Object, bool)
	checkLive()
	checkEntry(entry Entry) int
	detailsAt(i int) Details
	putWord(entry Entry, word int, o Object)
	putValue(entry Entry, value Object)
	setEntry(entry Entry, key, value Object, details Details)
	deleteEntry(entry Entry)
	liveKeys() []Object
	capacity() int
	elements() int
	tableHash() int
	setTableHash(h int)
	checkInvariants()
}

func (s *store[L]) elements() int {
	return s.numElements
}

func (s *store[L]) tableHash() int {
	return s.hash
}

func (s *store[L]) setTableHash(h int) {
	s.hash = h
}

// representation holds exactly one of a small or a large table. Once large,
// it never goes back to small, however few entries remain.
type representation struct {
	small *smallTable
	large *largeTable
}

func newRepresentation(entrySize, capacity int, options []option) (representation, error) {
	cfg := newConfig(options)
	if capacity < smallMaxCapacity {
		t, err := newSmallTable(cfg, entrySize, capacity)
		if err != nil {
			return representation{}, err
		}
		return representation{small: t}, nil
	}
	t, err := newLargeTable(cfg, entrySize, capacity)
	if err != nil {
		return representation{}, err
	}
	return representation{large: t}, nil
}

func (r *representation) current() tableStore {
	if r.small != nil {
		return &r.small.store
	}
	return &r.large.store
}

func (r *representation) isSmall() bool {
	return r.small != nil
}

// add inserts key, promoting a full small table to the large representation.
// On error the representation is unchanged.
func (r *representation) add(key, value Object, details Details) error {
	if r.small != nil {
		t, err := r.small.add(key, value, details)
		if err == nil {
			r.small = t
			return nil
		}
		if !errors.Is(err, ErrCannotGrow) {
			return err
		}
		if err := r.adjustRepresentation(); err != nil {
			return err
		}
	}
	t, err := r.large.add(key, value, details)
	if err != nil {
		return err
	}
	r.large = t
	return nil
}

// adjustRepresentation replaces the small table with a large table holding
// the same entries in the same order.
func (r *representation) adjustRepresentation() error {
	lt, err := r.small.promote()
	if err != nil {
		return err
	}
	if debug {
		fmt.Printf("adjust-representation: elements=%d capacity=%d\n", lt.numElements, lt.capacity())
	}
	r.small, r.large = nil, lt
	return nil
}

func (r *representation) remove(key Object) bool {
	if r.small != nil {
		return r.small.remove(key)
	}
	return r.large.remove(key)
}

func (r *representation) shrink() error {
	if r.small != nil {
		t, err := r.small.shrink()
		r.small = t
		return err
	}
	t, err := r.large.shrink()
	r.large = t
	return err
}

func (r *representation) clear() error {
	if r.small != nil {
		t, err := r.small.clear()
		r.small = t
		return err
	}
	t, err := r.large.clear()
	r.large = t
	return err
}

func (r *representation) deleteEntry(entry Entry) error {
	s := r.current()
	s.checkLive()
	s.deleteEntry(entry)
	s.checkInvariants()
	return r.shrink()
}

func (r *representation) valueAtPut(entry Entry, value Object) {
	r.current().putValue(entry, value)
}

// SetHandler is an insertion-ordered set that starts in the small
// representation and promotes itself to the large representation when it
// outgrows 254 entries. A SetHandler is a stable handle: its methods replace
// the underlying table as needed.
type SetHandler struct {
	representation
}

// NewSetHandler returns a set with room for capacity entries. Capacities
// below 254 start in the small representation.
func NewSetHandler(capacity int, options ...option) (*SetHandler, error) {
	r, err := newRepresentation(setEntrySize, capacity, options)
	if err != nil {
		return nil, err
	}
	return &SetHandler{r}, nil
}

// Add inserts key. Adding a key that is already present is a no-op.
func (h *SetHandler) Add(key Object) error {
	return h.add(key, nil, EmptyDetails)
}

// FindEntry returns the entry holding key, or NotFound.
func (h *SetHandler) FindEntry(key Object) Entry {
	return Entry(h.current().find(key))
}

// HasKey returns true if key is present.
func (h *SetHandler) HasKey(key Object) bool {
	return h.current().find(key) != notFound
}

// Delete removes key, returning false if it was not present.
func (h *SetHandler) Delete(key Object) bool {
	return h.remove(key)
}

// Shrink halves the capacity if fewer than a quarter of it is in use. A
// large set stays large.
func (h *SetHandler) Shrink() error {
	return h.shrink()
}

// Clear removes every key. Live iterators restart from the beginning.
func (h *SetHandler) Clear() error {
	return h.clear()
}

// KeyAt returns the key at entry, or TheHole if the entry was deleted.
func (h *SetHandler) KeyAt(entry Entry) Object {
	s := h.current()
	return s.keyAt(s.checkEntry(entry))
}

// Keys returns the live keys in insertion order.
func (h *SetHandler) Keys() []Object {
	return h.current().liveKeys()
}

// Len returns the number of live entries.
func (h *SetHandler) Len() int {
	return h.current().elements()
}

// Capacity returns the number of entry slots of the current table.
func (h *SetHandler) Capacity() int {
	return h.current().capacity()
}

// IsSmall returns true while the set is in the small representation.
func (h *SetHandler) IsSmall() bool {
	return h.isSmall()
}

// NewIterator returns an iterator positioned before the first entry. The
// iterator follows the set across promotion.
func (h *SetHandler) NewIterator() *Iterator {
	return newIterator(h.current(), setEntrySize)
}

// All calls yield sequentially for each key in insertion order.
func (h *SetHandler) All(yield func(key Object) bool) {
	for it := h.NewIterator(); it.HasMore(); it.MoveNext() {
		if !yield(it.CurrentKey()) {
			return
		}
	}
}

// MapHandler is an insertion-ordered map that promotes itself from the small
// to the large representation. See SetHandler.
type MapHandler struct {
	representation
}

// NewMapHandler returns a map with room for capacity entries.
func NewMapHandler(capacity int, options ...option) (*MapHandler, error) {
	r, err := newRepresentation(mapEntrySize, capacity, options)
	if err != nil {
		return nil, err
	}
	return &MapHandler{r}, nil
}

// Add inserts key with value. If key is already present the existing value
// is retained.
func (h *MapHandler) Add(key, value Object) error {
	return h.add(key, value, EmptyDetails)
}

// Get returns the value stored for key.
func (h *MapHandler) Get(key Object) (value Object, ok bool) {
	return h.current().lookup(key)
}

// FindEntry returns the entry holding key, or NotFound.
func (h *MapHandler) FindEntry(key Object) Entry {
	return Entry(h.current().find(key))
}

// HasKey returns true if key is present.
func (h *MapHandler) HasKey(key Object) bool {
	return h.current().find(key) != notFound
}

// Delete removes key, returning false if it was not present.
func (h *MapHandler) Delete(key Object) bool {
	return h.remove(key)
}

// Shrink halves the capacity if fewer than a quarter of it is in use.
func (h *MapHandler) Shrink() error {
	return h.shrink()
}

// Clear removes every entry.
func (h *MapHandler) Clear() error {
	return h.clear()
}

// KeyAt returns the key at entry.
func (h *MapHandler) KeyAt(entry Entry) Object {
	s := h.current()
	return s.keyAt(s.checkEntry(entry))
}

// ValueAt returns the value at entry.
func (h *MapHandler) ValueAt(entry Entry) Object {
	s := h.current()
	return s.valueAt(s.checkEntry(entry))
}

// ValueAtPut overwrites the value at a live entry.
func (h *MapHandler) ValueAtPut(entry Entry, value Object) {
	h.valueAtPut(entry, value)
}

// Len returns the number of live entries.
func (h *MapHandler) Len() int {
	return h.current().elements()
}

// Capacity returns the number of entry slots of the current table.
func (h *MapHandler) Capacity() int {
	return h.current().capacity()
}

// IsSmall returns true while the map is in the small representation.
func (h *MapHandler) IsSmall() bool {
	return h.isSmall()
}

// NewIterator returns an iterator positioned before the first entry.
func (h *MapHandler) NewIterator() *Iterator {
	return newIterator(h.current(), mapEntrySize)
}

// All calls yield sequentially for each entry in insertion order.
func (h *MapHandler) All(yield func(key, value Object) bool) {
	for it := h.NewIterator(); it.HasMore(); it.MoveNext() {
		if !yield(it.CurrentKey(), it.CurrentValue()) {
			return
		}
	}
}

// DictionaryHandler is a name dictionary that promotes itself from the small
// to the large representation. The whole-table hash is carried across
// promotion.
type DictionaryHandler struct {
	representation
}

// NewDictionaryHandler returns a dictionary with room for capacity entries.
func NewDictionaryHandler(capacity int, options ...option) (*DictionaryHandler, error) {
	r, err := newRepresentation(dictionaryEntrySize, capacity, options)
	if err != nil {
		return nil, err
	}
	return &DictionaryHandler{r}, nil
}

// Add inserts key with value and details. If key is already present the
// dictionary is unchanged.
func (h *DictionaryHandler) Add(key *Name, value Object, details Details) error {
	return h.add(key, value, details)
}

// FindEntry returns the entry holding key, or NotFound.
func (h *DictionaryHandler) FindEntry(key *Name) Entry {
	return Entry(h.current().find(key))
}

// HasKey returns true if key is present.
func (h *DictionaryHandler) HasKey(key *Name) bool {
	return h.current().find(key) != notFound
}

// SetEntry overwrites all three words of entry. The key must be the key
// already stored at entry.
func (h *DictionaryHandler) SetEntry(entry Entry, key Object, value Object, details Details) {
	s := h.current()
	s.checkLive()
	s.setEntry(entry, key, value, details)
}

// DeleteEntry tombstones entry and then shrinks the dictionary.
func (h *DictionaryHandler) DeleteEntry(entry Entry) error {
	return h.deleteEntry(entry)
}

// Delete removes key and shrinks the dictionary, reporting whether key was
// present.
func (h *DictionaryHandler) Delete(key *Name) (bool, error) {
	e := h.FindEntry(key)
	if !e.IsFound() {
		return false, nil
	}
	return true, h.deleteEntry(e)
}

// Shrink halves the capacity if fewer than a quarter of it is in use.
func (h *DictionaryHandler) Shrink() error {
	return h.shrink()
}

// Clear removes every entry. The hash is retained.
func (h *DictionaryHandler) Clear() error {
	return h.clear()
}

// KeyAt returns the key at entry: a *Name, or TheHole.
func (h *DictionaryHandler) KeyAt(entry Entry) Object {
	s := h.current()
	return s.keyAt(s.checkEntry(entry))
}

// ValueAt returns the value at entry.
func (h *DictionaryHandler) ValueAt(entry Entry) Object {
	s := h.current()
	return s.valueAt(s.checkEntry(entry))
}

// ValueAtPut overwrites the value at entry.
func (h *DictionaryHandler) ValueAtPut(entry Entry, value Object) {
	h.valueAtPut(entry, value)
}

// DetailsAt returns the details at entry.
func (h *DictionaryHandler) DetailsAt(entry Entry) Details {
	s := h.current()
	return s.detailsAt(s.checkEntry(entry))
}

// DetailsAtPut overwrites the details at entry.
func (h *DictionaryHandler) DetailsAtPut(entry Entry, details Details) {
	h.current().putWord(entry, detailsIndex, details)
}

// Hash returns the whole-table hash.
func (h *DictionaryHandler) Hash() int {
	return h.current().tableHash()
}

// SetHash sets the whole-table hash.
func (h *DictionaryHandler) SetHash(hash int) {
	h.current().setTableHash(hash)
}

// Len returns the number of live entries.
func (h *DictionaryHandler) Len() int {
	return h.current().elements()
}

// Capacity returns the number of entry slots of the current table.
func (h *DictionaryHandler) Capacity() int {
	return h.current().capacity()
}

// IsSmall returns true while the dictionary is in the small representation.
func (h *DictionaryHandler) IsSmall() bool {
	return h.isSmall()
}

// NewIterator returns an iterator positioned before the first entry.
func (h *DictionaryHandler) NewIterator() *Iterator {
	return newIterator(h.current(), dictionaryEntrySize)
}

// All calls yield sequentially for each entry in insertion order.
func (h *DictionaryHandler) All(yield func(key *Name, value Object) bool) {
	for it := h.NewIterator(); it.HasMore(); it.MoveNext() {
		if !yield(it.CurrentKey().(*Name), it.CurrentValue()) {
			return
		}
	}
}
