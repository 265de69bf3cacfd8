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

// Iterator is a cursor over the entries of a table in insertion order. The
// table may be mutated, rehashed, cleared or promoted between steps: before
// each step the iterator follows the chain of replacement tables and
// translates its position, so that it neither skips nor repeats a live
// entry.
//
// Typical use:
//
//	for it := s.NewIterator(); it.HasMore(); it.MoveNext() {
//		key := it.CurrentKey()
//		...
//	}
type Iterator struct {
	table     cursorTable
	index     int
	entrySize int
}

func newIterator(t cursorTable, entrySize int) *Iterator {
	return &Iterator{table: t, entrySize: entrySize}
}

// transition moves the iterator to the live table at the end of the chain of
// replacements, correcting the index for every entry dropped below it.
func (it *Iterator) transition() {
	t := it.table
	if !t.isObsolete() {
		return
	}

	index := it.index
	for t.isObsolete() {
		next := t.nextTable()
		if index > 0 {
			if nod := t.deletedCount(); nod == clearedTableSentinel {
				index = 0
			} else {
				old := index
				for i := 0; i < nod; i++ {
					if t.removedIndexAt(i) >= old {
						break
					}
					index--
				}
			}
		}
		if debug {
			fmt.Printf("iterator(transition): index=%d->%d\n", it.index, index)
		}
		t = next
	}
	it.table = t
	it.index = index
}

// HasMore returns true if there is an entry at or after the cursor, parking
// the cursor on it. Once it returns false the iterator is exhausted and
// releases the table.
func (it *Iterator) HasMore() bool {
	it.transition()

	t := it.table
	release := t.noRelocation()
	defer release()

	used := t.usedCapacity()
	for it.index < used && IsTheHole(t.keyAt(it.index)) {
		it.index++
	}
	if it.index < used {
		return true
	}
	it.table = canonicalEmpty(it.entrySize)
	return false
}

// CurrentKey returns the key under the cursor. It must only be called after
// HasMore returned true, with no mutation of the table in between.
func (it *Iterator) CurrentKey() Object {
	it.checkCurrent()
	return it.table.keyAt(it.index)
}

// CurrentValue returns the value under the cursor of a map or dictionary
// iterator.
func (it *Iterator) CurrentValue() Object {
	if it.entrySize <= valueIndex {
		panic("orderedhash: CurrentValue on set iterator")
	}
	it.checkCurrent()
	return it.table.valueAt(it.index)
}

// MoveNext advances the cursor by one slot. Deleted slots are skipped by the
// next call to HasMore.
func (it *Iterator) MoveNext() {
	it.index++
}

func (it *Iterator) checkCurrent() {
	if it.table.isObsolete() || it.index >= it.table.usedCapacity() {
		panic("orderedhash: iterator is not positioned on an entry; call HasMore first")
	}
}

// canonicalEmpty returns the empty table an exhausted iterator is pinned to.
func canonicalEmpty(entrySize int) cursorTable {
	switch entrySize {
	case setEntrySize:
		return &emptyOrderedHashSet.store
	case mapEntrySize:
		return &emptyOrderedHashMap.store
	default:
		return &emptyOrderedNameDictionary.store
	}
}
