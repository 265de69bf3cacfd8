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

import "github.com/cespare/xxhash/v2"

// Name is an interned, pre-hashed string used as a name dictionary key. Two
// Names obtained from the same NameTable for equal strings are the same
// pointer, so dictionaries compare Names by identity.
type Name struct {
	value string
	hash  uint32
}

// Hash returns the hash computed when the name was interned.
func (n *Name) Hash() uint32 {
	return n.hash
}

func (n *Name) String() string {
	return n.value
}

// NameTable interns Names. A NameTable is NOT goroutine-safe.
type NameTable struct {
	names map[string]*Name
}

// NewNameTable returns an empty NameTable.
func NewNameTable() *NameTable {
	return &NameTable{names: make(map[string]*Name)}
}

// Intern returns the unique Name for s, creating it on first use.
func (t *NameTable) Intern(s string) *Name {
	if n, ok := t.names[s]; ok {
		return n
	}
	n := &Name{value: s, hash: stringHash(s)}
	t.names[s] = n
	return n
}

// Len returns the number of interned names.
func (t *NameTable) Len() int {
	return len(t.names)
}

func stringHash(s string) uint32 {
	return uint32(xxhash.Sum64String(s)) & hashMask
}
