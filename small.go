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

// smallTable is the dense representation: single byte links and at most
// smallMaxCapacity slots. When it cannot grow any further the add fails with
// ErrCannotGrow and the handler promotes the entries to a largeTable.
type smallTable struct {
	store[uint8]
}

func newSmallTable(cfg *config, entrySize, capacity int) (*smallTable, error) {
	if capacity > smallMaxCapacity {
		return nil, capacityExceeded(capacity, smallMaxCapacity)
	}
	capacity = min(roundUpToPowerOfTwo(max(smallMinCapacity, capacity)), smallMaxCapacity)
	numLinks := capacity/loadFactor + capacity
	links, err := cfg.allocator.AllocBytes(numLinks, cfg.generation)
	if err != nil {
		return nil, outOfMemory("link bytes", numLinks, err)
	}
	numWords := capacity * entrySize
	data, err := cfg.allocator.AllocObjects(numWords, cfg.generation)
	if err != nil {
		return nil, outOfMemory("payload words", numWords, err)
	}
	t := &smallTable{}
	t.initialize(cfg, entrySize, capacity, links, data)
	t.checkInvariants()
	return t, nil
}

func newEmptySmallTable(cfg *config, entrySize int) *smallTable {
	t := &smallTable{}
	t.cfg = cfg
	t.entrySize = entrySize
	return t
}

// grow returns a table with room for at least one more entry, or
// ErrCannotGrow if that would take more than smallMaxCapacity slots.
func (t *smallTable) grow() (*smallTable, error) {
	t.checkLive()
	capacity := t.capacity()
	newCapacity := capacity

	// Compact at the same capacity if that frees enough slots.
	if t.numDeleted < capacity>>1 {
		newCapacity = capacity << 1
		if newCapacity == smallGrowthHack {
			newCapacity = smallMaxCapacity
		}
		if newCapacity > smallMaxCapacity {
			if debug {
				fmt.Printf("grow: capacity=%d cannot grow\n", capacity)
			}
			return t, ErrCannotGrow
		}
	}
	return t.rehash(newCapacity)
}

// rehash moves the live entries into a new table of the given capacity and
// marks t obsolete.
func (t *smallTable) rehash(capacity int) (*smallTable, error) {
	t.checkLive()
	nt, err := newSmallTable(t.config(), t.entrySize, capacity)
	if err != nil {
		return t, err
	}
	if debug {
		fmt.Printf("rehash(small): capacity=%d->%d elements=%d deleted=%d\n",
			t.capacity(), nt.capacity(), t.numElements, t.numDeleted)
	}
	t.rehashInto(&nt.store)
	nt.checkInvariants()
	return nt, nil
}

func (t *smallTable) add(key, value Object, details Details) (*smallTable, error) {
	t.checkNewKey(key)
	if t.find(key) != notFound {
		return t, nil
	}
	nt := t
	if t.usedCapacity() >= t.capacity() {
		var err error
		if nt, err = t.grow(); err != nil {
			return t, err
		}
	}
	h := nt.getOrCreateHash(key)
	nt.appendEntry(h, key, value, details)
	nt.checkInvariants()
	return nt, nil
}

func (t *smallTable) remove(key Object) bool {
	ok := t.delete(key)
	t.checkInvariants()
	return ok
}

func (t *smallTable) shrink() (*smallTable, error) {
	t.checkLive()
	capacity := t.capacity()
	if t.numElements >= capacity>>2 {
		return t, nil
	}
	return t.rehash(capacity / 2)
}

func (t *smallTable) clear() (*smallTable, error) {
	t.checkLive()
	nt, err := newSmallTable(t.config(), t.entrySize, smallMinCapacity)
	if err != nil {
		return t, err
	}
	nt.hash = t.hash
	t.markCleared(&nt.store)
	return nt, nil
}

// promote replays the live entries of t, in order, into a new large table of
// promotedCapacity, or the configured maximum if that is smaller, and marks t
// obsolete so that iterators follow the entries into the large table.
func (t *smallTable) promote() (*largeTable, error) {
	t.checkLive()
	cfg := t.config()
	lt, err := newLargeTable(cfg, t.entrySize, min(promotedCapacity, cfg.maxCapacity))
	if err != nil {
		return nil, err
	}
	if debug {
		fmt.Printf("promote: capacity=%d->%d elements=%d\n", t.capacity(), lt.capacity(), t.numElements)
	}
	for i, used := 0, t.usedCapacity(); i < used; i++ {
		key, value, details := t.entryAt(i)
		if IsTheHole(key) {
			continue
		}
		if lt, err = lt.add(key, value, details); err != nil {
			return nil, err
		}
	}
	lt.hash = t.hash
	t.supersede(&lt.store)
	return lt, nil
}
