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

import "fmt"

// largeTable is the unbounded representation. Its capacity is a power of two
// in [initialCapacity, cfg.maxCapacity], or zero for empty tables created by
// newEmptyLargeTable.
type largeTable struct {
	store[int32]
}

func newLargeTable(cfg *config, entrySize, capacity int) (*largeTable, error) {
	capacity = roundUpToPowerOfTwo(max(initialCapacity, capacity))
	if capacity > cfg.maxCapacity {
		return nil, capacityExceeded(capacity, cfg.maxCapacity)
	}
	numLinks := capacity/loadFactor + capacity
	links, err := cfg.allocator.AllocLinks(numLinks, cfg.generation)
	if err != nil {
		return nil, outOfMemory("links", numLinks, err)
	}
	numWords := capacity * entrySize
	data, err := cfg.allocator.AllocObjects(numWords, cfg.generation)
	if err != nil {
		return nil, outOfMemory("payload words", numWords, err)
	}
	t := &largeTable{}
	t.initialize(cfg, entrySize, capacity, links, data)
	t.checkInvariants()
	return t, nil
}

// newEmptyLargeTable returns a zero-capacity table. It has no buckets, so
// finds return early, the first add rehashes it to initialCapacity, and it
// is never marked obsolete.
func newEmptyLargeTable(cfg *config, entrySize int) *largeTable {
	t := &largeTable{}
	t.cfg = cfg
	t.entrySize = entrySize
	return t
}

// ensureCapacityForAdding returns a table with room for at least one more
// entry. Tombstone-heavy tables are compacted at the same capacity rather
// than grown.
func (t *largeTable) ensureCapacityForAdding() (*largeTable, error) {
	t.checkLive()
	capacity := t.capacity()
	if t.usedCapacity() < capacity {
		return t, nil
	}

	var newCapacity int
	switch {
	case capacity == 0:
		newCapacity = initialCapacity
	case t.numDeleted >= capacity>>1:
		newCapacity = capacity
	default:
		newCapacity = capacity << 1
	}
	return t.rehash(newCapacity)
}

// rehash moves the live entries into a new table of the given capacity and
// marks t obsolete. On failure t is returned unchanged along with the error.
func (t *largeTable) rehash(capacity int) (*largeTable, error) {
	t.checkLive()
	nt, err := newLargeTable(t.config(), t.entrySize, capacity)
	if err != nil {
		return t, err
	}
	if debug {
		fmt.Printf("rehash: capacity=%d->%d elements=%d deleted=%d\n",
			t.capacity(), nt.capacity(), t.numElements, t.numDeleted)
	}
	t.rehashInto(&nt.store)
	nt.checkInvariants()
	return nt, nil
}

// add inserts key unless it is already present. The value and details are
// only stored when the entry has room for them.
func (t *largeTable) add(key, value Object, details Details) (*largeTable, error) {
	t.checkNewKey(key)
	if t.find(key) != notFound {
		return t, nil
	}
	nt, err := t.ensureCapacityForAdding()
	if err != nil {
		return t, err
	}
	h := nt.getOrCreateHash(key)
	nt.appendEntry(h, key, value, details)
	nt.checkInvariants()
	return nt, nil
}

func (t *largeTable) remove(key Object) bool {
	ok := t.delete(key)
	t.checkInvariants()
	return ok
}

// shrink halves the capacity when fewer than a quarter of the slots are
// live. The result is never smaller than initialCapacity.
func (t *largeTable) shrink() (*largeTable, error) {
	t.checkLive()
	capacity := t.capacity()
	if t.numElements >= capacity>>2 {
		return t, nil
	}
	return t.rehash(capacity / 2)
}

// clear returns a new empty table of initialCapacity. Iterators over t
// restart from the beginning of the new table.
func (t *largeTable) clear() (*largeTable, error) {
	t.checkLive()
	nt, err := newLargeTable(t.config(), t.entrySize, initialCapacity)
	if err != nil {
		return t, err
	}
	if debug {
		fmt.Printf("clear: capacity=%d elements=%d\n", t.capacity(), t.numElements)
	}
	nt.hash = t.hash
	t.markCleared(&nt.store)
	return nt, nil
}
