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

// Package orderedhash implements insertion-ordered hash tables: sets, maps
// and name dictionaries that iterate in insertion order, survive deletion
// without reordering, and allow iteration to continue while the table is
// grown, shrunk, compacted or cleared.
//
// # Layout
//
// Every table is a single backing store made of a link array and a payload
// array. The link array holds numBuckets bucket heads followed by one chain
// link per entry slot. The payload array holds entrySize words per slot: the
// key, then the value for maps and dictionaries, then the Details word for
// dictionaries.
//
//	links:   [bucket 0 .. bucket B-1][chain 0 .. chain C-1]
//	payload: [key value details][key value details] ...
//
// The capacity C is always numBuckets*loadFactor. A bucket head holds the
// slot index of the most recently inserted entry hashing to that bucket, and
// each chain link holds the index of the previous entry in the same bucket,
// so chains are walked newest-first.
//
// Entries are only ever appended, at slot numElements+numDeleted. Deletion
// overwrites every payload word of the slot with TheHole and leaves the chain
// link in place. A find that walks through a tombstone compares against
// TheHole, which never equals a key. Iterating slots [0, usedCapacity) in
// order and skipping tombstones therefore yields keys in insertion order.
//
// # Rehashing and obsolete tables
//
// When a table runs out of slots it is rehashed into a freshly allocated
// backing store. Live entries are copied in slot order, which compacts away
// tombstones while preserving order. The old store is then marked obsolete:
// its next pointer is set to the new store and the slot indices of the
// tombstones that were dropped are logged into its (now dead) link array.
// Clearing a table marks the old store obsolete with the cleared sentinel
// instead of a log.
//
// An Iterator holds a store and a slot index. Before every step it follows
// next pointers until it reaches a live store, decrementing its index once
// for every logged removal below it, or resetting it to zero on a cleared
// store. The cost of the correction is proportional to the number of
// tombstones dropped since the last step, not to the size of the table.
//
// # Representations
//
// The large representation uses int32 links and power-of-two capacities
// bounded by the configured maximum. The small representation uses uint8
// links, with 0xFF meaning empty, and is bounded to 254 slots. The
// SetHandler, MapHandler and DictionaryHandler types start in the small
// representation and promote to the large one, one-way, when the small table
// cannot grow any further.
package orderedhash

import (
	"fmt"
	"math/bits"
	"strings"
)

const (
	debug = false

	// loadFactor is the number of entry slots per bucket.
	loadFactor = 2

	notFound = -1

	// clearedTableSentinel is stored in numDeleted of a store that was
	// superseded by Clear.
	clearedTableSentinel = -1

	// initialCapacity is the minimum capacity of a large table.
	initialCapacity = 4
	// defaultMaxCapacity bounds the capacity of a large table unless
	// WithMaxCapacity lowers it.
	defaultMaxCapacity = 1 << 26

	smallMinCapacity = 4
	// smallMaxCapacity keeps every slot index below the 0xFF empty link.
	smallMaxCapacity = 254
	// smallGrowthHack is bumped down to smallMaxCapacity when doubling so that
	// a small table fills up to 254 entries rather than 128.
	smallGrowthHack = 256

	// promotedCapacity is the capacity of the large table that replaces a
	// small table which could not grow.
	promotedCapacity = 512
)

const (
	setEntrySize        = 1
	mapEntrySize        = 2
	dictionaryEntrySize = 3

	keyIndex     = 0
	valueIndex   = 1
	detailsIndex = 2
)

// NoHashSentinel is the whole-table hash of a newly allocated dictionary.
const NoHashSentinel = 0

// cursorTable is the view of a store used by iterators. Both representations
// implement it so that an iterator can follow a small table into the large
// table that replaced it.
type cursorTable interface {
	isObsolete() bool
	nextTable() cursorTable
	deletedCount() int
	removedIndexAt(i int) int
	usedCapacity() int
	keyAt(i int) Object
	valueAt(i int) Object
	noRelocation() (release func())
}

// linkWord is the width of bucket heads and chain links.
type linkWord interface {
	~int32 | ~uint8
}

// emptyLink returns the link value meaning "no entry": -1 for int32 links and
// 0xFF for uint8 links.
func emptyLink[L linkWord]() L {
	return ^L(0)
}

// store is a backing store shared by both representations. The engines in
// large.go and small.go own the capacity policy; store owns the layout.
type store[L linkWord] struct {
	cfg         *config
	entrySize   int
	numBuckets  int
	numElements int
	// numDeleted is the tombstone count, or clearedTableSentinel once the
	// store is superseded by Clear.
	numDeleted int
	// next is set only once the store is superseded.
	next cursorTable
	// hash is the whole-table hash of name dictionaries.
	hash  int
	links []L
	data  []Object
}

var _ cursorTable = (*store[int32])(nil)
var _ cursorTable = (*store[uint8])(nil)

func (s *store[L]) initialize(cfg *config, entrySize, capacity int, links []L, data []Object) {
	s.cfg = cfg
	s.entrySize = entrySize
	s.numBuckets = capacity / loadFactor
	s.links = links
	s.data = data

	release := s.noRelocation()
	defer release()
	empty := emptyLink[L]()
	for i := range s.links {
		s.links[i] = empty
	}
	for i := range s.data {
		s.data[i] = TheHole
	}
}

// config returns the configuration to hand to a successor store. Canonical
// empty tables carry no configuration, so their successors get a fresh one.
func (s *store[L]) config() *config {
	if s.cfg == nil {
		return newConfig(nil)
	}
	return s.cfg
}

func (s *store[L]) noRelocation() func() {
	if s.cfg == nil {
		return noopRelease
	}
	return s.cfg.allocator.DisallowRelocation()
}

func (s *store[L]) capacity() int {
	return s.numBuckets * loadFactor
}

func (s *store[L]) usedCapacity() int {
	return s.numElements + s.numDeleted
}

// isReadOnly returns true for zero-capacity stores. They are shared and are
// never marked obsolete.
func (s *store[L]) isReadOnly() bool {
	return s.numBuckets == 0
}

func (s *store[L]) isObsolete() bool {
	return s.next != nil
}

func (s *store[L]) nextTable() cursorTable {
	return s.next
}

func (s *store[L]) deletedCount() int {
	return s.numDeleted
}

func (s *store[L]) removedIndexAt(i int) int {
	return int(s.links[i])
}

func (s *store[L]) checkLive() {
	if s.next != nil {
		panic("orderedhash: operation on obsolete table")
	}
}

func (s *store[L]) checkEntry(entry Entry) int {
	if entry < 0 || int(entry) >= s.usedCapacity() {
		panic(fmt.Sprintf("orderedhash: entry %d out of range [0,%d)", int(entry), s.usedCapacity()))
	}
	return int(entry)
}

func (s *store[L]) keyAt(i int) Object {
	return s.data[i*s.entrySize+keyIndex]
}

func (s *store[L]) valueAt(i int) Object {
	return s.data[i*s.entrySize+valueIndex]
}

func (s *store[L]) detailsAt(i int) Details {
	d, _ := s.data[i*s.entrySize+detailsIndex].(Details)
	return d
}

func (s *store[L]) setDataEntry(i, word int, o Object) {
	s.data[i*s.entrySize+word] = o
}

func (s *store[L]) isDictionary() bool {
	return s.entrySize == dictionaryEntrySize
}

// hashOf returns the hash of key without assigning one. Dictionary keys are
// interned Names which carry their hash.
func (s *store[L]) hashOf(key Object) (uint32, bool) {
	if s.isDictionary() {
		n, ok := key.(*Name)
		if !ok || n == nil {
			return 0, false
		}
		return n.hash, true
	}
	return s.cfg.keys.Hash(key)
}

// getOrCreateHash returns the hash of key, assigning an identity hash if
// needed. Only called on stores that have a configuration.
func (s *store[L]) getOrCreateHash(key Object) uint32 {
	if s.isDictionary() {
		return key.(*Name).hash
	}
	return s.cfg.keys.GetOrCreateHash(key)
}

func (s *store[L]) keysEqual(candidate, key Object) bool {
	if s.isDictionary() {
		return candidate == key
	}
	return s.cfg.keys.Equal(candidate, key)
}

func (s *store[L]) bucketFor(h uint32) int {
	return int(h) & (s.numBuckets - 1)
}

// checkNewKey panics if key can never be stored. It runs before anything
// that could rehash the table.
func (s *store[L]) checkNewKey(key Object) {
	if IsTheHole(key) {
		panic("orderedhash: the hole cannot be used as a key")
	}
	if !s.isDictionary() {
		return
	}
	if n, ok := key.(*Name); !ok || n == nil {
		panic(fmt.Sprintf("orderedhash: dictionary key %v is not a Name", key))
	}
}

// lookup returns the value stored for key. The find and the read share one
// no-relocation region.
func (s *store[L]) lookup(key Object) (Object, bool) {
	release := s.noRelocation()
	defer release()
	if e := s.find(key); e != notFound {
		return s.valueAt(e), true
	}
	return nil, false
}

// entryAt copies out every word of slot i. Words the entry has no room for
// are left zero.
func (s *store[L]) entryAt(i int) (key, value Object, details Details) {
	release := s.noRelocation()
	defer release()
	key = s.keyAt(i)
	if s.entrySize > valueIndex {
		value = s.valueAt(i)
	}
	if s.entrySize > detailsIndex {
		details = s.detailsAt(i)
	}
	return key, value, details
}

// find returns the slot holding key, or notFound.
func (s *store[L]) find(key Object) int {
	s.checkLive()
	if s.numElements == 0 {
		return notFound
	}
	h, ok := s.hashOf(key)
	if !ok {
		return notFound
	}

	release := s.noRelocation()
	defer release()
	empty := emptyLink[L]()
	for e := s.links[s.bucketFor(h)]; e != empty; e = s.links[s.numBuckets+int(e)] {
		if debug {
			fmt.Printf("find(%v): checking entry=%d key=%v\n", key, e, s.keyAt(int(e)))
		}
		if s.keysEqual(s.keyAt(int(e)), key) {
			return int(e)
		}
	}
	return notFound
}

// appendEntry writes a new entry at the first unused slot and links it at the
// head of its bucket chain. The caller guarantees a free slot.
func (s *store[L]) appendEntry(h uint32, key, value Object, details Details) int {
	release := s.noRelocation()
	defer release()

	entry := s.usedCapacity()
	bucket := s.bucketFor(h)
	s.setDataEntry(entry, keyIndex, key)
	if s.entrySize > valueIndex {
		s.setDataEntry(entry, valueIndex, value)
	}
	if s.entrySize > detailsIndex {
		s.setDataEntry(entry, detailsIndex, details)
	}
	s.links[s.numBuckets+entry] = s.links[bucket]
	s.links[bucket] = L(entry)
	s.numElements++
	if debug {
		fmt.Printf("append(%v): entry=%d bucket=%d\n", key, entry, bucket)
	}
	return entry
}

// tombstone overwrites every payload word of entry with TheHole.
func (s *store[L]) tombstone(entry int) {
	release := s.noRelocation()
	defer release()
	for j := 0; j < s.entrySize; j++ {
		s.setDataEntry(entry, j, TheHole)
	}
	s.numElements--
	s.numDeleted++
}

// putWord overwrites one word of entry.
func (s *store[L]) putWord(entry Entry, word int, o Object) {
	s.checkLive()
	i := s.checkEntry(entry)
	release := s.noRelocation()
	defer release()
	s.setDataEntry(i, word, o)
}

// putValue overwrites the value of a live entry.
func (s *store[L]) putValue(entry Entry, value Object) {
	s.checkLive()
	i := s.checkEntry(entry)
	release := s.noRelocation()
	defer release()
	if IsTheHole(s.keyAt(i)) {
		panic("orderedhash: ValueAtPut on deleted entry")
	}
	s.setDataEntry(i, valueIndex, value)
}

// setEntry overwrites every word of a dictionary entry.
func (s *store[L]) setEntry(entry Entry, key, value Object, details Details) {
	if !IsTheHole(key) {
		s.checkNewKey(key)
	}
	i := s.checkEntry(entry)
	release := s.noRelocation()
	defer release()
	s.setDataEntry(i, valueIndex, value)
	s.setDataEntry(i, keyIndex, key)
	s.setDataEntry(i, detailsIndex, details)
}

// deleteEntry tombstones a dictionary entry. The details word is reset to
// EmptyDetails rather than TheHole.
func (s *store[L]) deleteEntry(entry Entry) {
	i := s.checkEntry(entry)
	if IsTheHole(s.keyAt(i)) {
		panic(fmt.Sprintf("orderedhash: entry %d is already deleted", i))
	}
	s.setEntry(entry, TheHole, TheHole, EmptyDetails)
	s.numElements--
	s.numDeleted++
}

func (s *store[L]) delete(key Object) bool {
	entry := s.find(key)
	if entry == notFound {
		return false
	}
	s.tombstone(entry)
	return true
}

// rehashInto copies the live entries of s into the empty store dst in slot
// order and marks s as superseded by dst.
func (s *store[L]) rehashInto(dst *store[L]) {
	release := s.noRelocation()
	defer release()

	es := s.entrySize
	newEntry := 0
	for old, used := 0, s.usedCapacity(); old < used; old++ {
		key := s.keyAt(old)
		if IsTheHole(key) {
			continue
		}
		h, ok := s.hashOf(key)
		if !ok {
			panic(fmt.Sprintf("orderedhash: key %v in table has no hash", key))
		}
		bucket := dst.bucketFor(h)
		dst.links[dst.numBuckets+newEntry] = dst.links[bucket]
		dst.links[bucket] = L(newEntry)
		copy(dst.data[newEntry*es:(newEntry+1)*es], s.data[old*es:(old+1)*es])
		newEntry++
	}
	dst.numElements = s.numElements
	dst.hash = s.hash
	s.supersede(dst)
}

// supersede marks s obsolete, forwarding to next. The slot indices of the
// tombstones in s are logged into the link array, which is dead from here
// on.
func (s *store[L]) supersede(next cursorTable) {
	if s.isReadOnly() {
		return
	}
	release := s.noRelocation()
	defer release()
	removed := 0
	for i, used := 0, s.usedCapacity(); i < used; i++ {
		if IsTheHole(s.keyAt(i)) {
			s.links[removed] = L(i)
			removed++
		}
	}
	if removed != s.numDeleted {
		panic(fmt.Sprintf("orderedhash: found %d tombstones, but deleted count is %d\n%s",
			removed, s.numDeleted, s.debugString()))
	}
	s.next = next
}

// markCleared marks s obsolete, forwarding to next, such that iterators
// restart from the beginning of next.
func (s *store[L]) markCleared(next cursorTable) {
	if s.isReadOnly() {
		return
	}
	s.next = next
	s.numDeleted = clearedTableSentinel
}

// liveKeys returns the live keys in insertion order.
func (s *store[L]) liveKeys() []Object {
	release := s.noRelocation()
	defer release()
	keys := make([]Object, 0, s.numElements)
	for i, used := 0, s.usedCapacity(); i < used; i++ {
		if key := s.keyAt(i); !IsTheHole(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

func (s *store[L]) checkInvariants() {
	if invariants {
		if s.isObsolete() {
			return
		}
		release := s.noRelocation()
		defer release()
		capacity := s.capacity()
		if n := s.numBuckets + capacity; len(s.links) != n {
			panic(fmt.Sprintf("invariant failed: %d links, expected %d\n%s", len(s.links), n, s.debugString()))
		}
		if n := capacity * s.entrySize; len(s.data) != n {
			panic(fmt.Sprintf("invariant failed: %d payload words, expected %d\n%s", len(s.data), n, s.debugString()))
		}
		used := s.usedCapacity()
		if used > capacity {
			panic(fmt.Sprintf("invariant failed: used capacity %d exceeds capacity %d\n%s", used, capacity, s.debugString()))
		}

		var live, deleted int
		for i := 0; i < used; i++ {
			key := s.keyAt(i)
			if IsTheHole(key) {
				for j := 1; j < s.entrySize; j++ {
					if w := s.data[i*s.entrySize+j]; !IsTheHole(w) && w != EmptyDetails {
						panic(fmt.Sprintf("invariant failed: tombstone(%d) word %d holds %v\n%s", i, j, w, s.debugString()))
					}
				}
				deleted++
				continue
			}
			if e := s.find(key); e != i {
				panic(fmt.Sprintf("invariant failed: slot(%d): %v found at %d\n%s", i, key, e, s.debugString()))
			}
			live++
		}
		if live != s.numElements {
			panic(fmt.Sprintf("invariant failed: found %d live slots, but element count is %d\n%s",
				live, s.numElements, s.debugString()))
		}
		if deleted != s.numDeleted {
			panic(fmt.Sprintf("invariant failed: found %d tombstones, but deleted count is %d\n%s",
				deleted, s.numDeleted, s.debugString()))
		}

		// Every chain must terminate and only reference used slots.
		empty := emptyLink[L]()
		for b := 0; b < s.numBuckets; b++ {
			steps := 0
			for e := s.links[b]; e != empty; e = s.links[s.numBuckets+int(e)] {
				if int(e) >= used {
					panic(fmt.Sprintf("invariant failed: bucket(%d) links unused slot %d\n%s", b, e, s.debugString()))
				}
				if steps++; steps > used {
					panic(fmt.Sprintf("invariant failed: bucket(%d) chain does not terminate\n%s", b, s.debugString()))
				}
			}
		}
	}
}

func (s *store[L]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  buckets=%d  elements=%d  deleted=%d  obsolete=%t\n",
		s.capacity(), s.numBuckets, s.numElements, s.numDeleted, s.isObsolete())
	if s.isObsolete() {
		return buf.String()
	}
	empty := emptyLink[L]()
	for b := 0; b < s.numBuckets; b++ {
		if s.links[b] == empty {
			fmt.Fprintf(&buf, "  bucket %4d: empty\n", b)
		} else {
			fmt.Fprintf(&buf, "  bucket %4d: %d\n", b, s.links[b])
		}
	}
	for i, used := 0, s.usedCapacity(); i < used; i++ {
		chain := s.links[s.numBuckets+i]
		key := s.keyAt(i)
		if IsTheHole(key) {
			fmt.Fprintf(&buf, "  %4d: deleted\n", i)
			continue
		}
		h, _ := s.hashOf(key)
		if chain == empty {
			fmt.Fprintf(&buf, "  %4d: %v [bucket=%d chain=empty]\n", i, key, s.bucketFor(h))
		} else {
			fmt.Fprintf(&buf, "  %4d: %v [bucket=%d chain=%d]\n", i, key, s.bucketFor(h), chain)
		}
	}
	return buf.String()
}

func roundUpToPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

func roundDownToPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << (bits.Len(uint(n)) - 1)
}
