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

// Object is a single payload word stored in a table: a key, a value or a
// Details word. Keys must be comparable with ==.
type Object = any

type hole struct {
	// Non-zero size so that the address of theHole is unique.
	_ byte
}

func (*hole) String() string { return "<the_hole>" }

var theHole = &hole{}

// TheHole is the sentinel stored in every payload word of a deleted entry. It
// is compared by identity and must never be used as a key.
var TheHole Object = theHole

// IsTheHole returns true if o is TheHole.
func IsTheHole(o Object) bool {
	return o == TheHole
}

// Details is the opaque per-entry metadata stored by name dictionaries.
type Details int32

// EmptyDetails is the Details value of a deleted dictionary entry.
const EmptyDetails Details = 0

// Entry is the slot index of an entry in a table's entry array. An Entry is
// only meaningful for the table that returned it and becomes invalid once
// that table is superseded.
type Entry int

// NotFound is returned by FindEntry when the key is absent.
const NotFound Entry = -1

// IsFound returns true if e refers to an entry.
func (e Entry) IsFound() bool {
	return e >= 0
}

func (e Entry) String() string {
	if e < 0 {
		return "not-found"
	}
	return fmt.Sprintf("entry(%d)", int(e))
}

// Generation is a hint passed to the Allocator describing where new backing
// stores should live. Tables created by rehashing inherit the generation of
// the table they replace.
type Generation uint8

const (
	// Young is the default generation for new tables.
	Young Generation = iota
	// Old is for long lived tables.
	Old
)

func (g Generation) String() string {
	switch g {
	case Young:
		return "young"
	case Old:
		return "old"
	default:
		return fmt.Sprintf("generation(%d)", uint8(g))
	}
}
