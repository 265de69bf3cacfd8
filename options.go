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

// option provide an interface to do work on a table configuration while the
// table is being created.
type option interface {
	apply(c *config)
}

// config is shared by a table and every table that replaces it, so a
// rehashed, cleared or promoted table keeps its allocator and key model.
type config struct {
	allocator   Allocator
	keys        KeyModel
	generation  Generation
	maxCapacity int
}

func newConfig(options []option) *config {
	c := &config{
		allocator:   defaultAllocator{},
		generation:  Young,
		maxCapacity: defaultMaxCapacity,
	}
	for _, op := range options {
		op.apply(c)
	}
	if c.keys == nil {
		c.keys = NewKeyModel(0)
	}
	return c
}

// Allocator specifies an interface for allocating the backing stores used by
// tables. The default allocator utilizes Go's builtin make() and allows the
// GC to reclaim memory once no table or iterator references a store.
//
// An Allocator may relocate stores between operations. Tables bracket every
// sequence of raw accesses to a store with DisallowRelocation and never call
// the Alloc methods while such a region is open.
type Allocator interface {
	// AllocObjects should return a slice equivalent to make([]Object, n),
	// or an error if memory is exhausted.
	AllocObjects(n int, gen Generation) ([]Object, error)

	// AllocLinks should return a slice equivalent to make([]int32, n), or an
	// error if memory is exhausted.
	AllocLinks(n int, gen Generation) ([]int32, error)

	// AllocBytes should return a slice equivalent to make([]uint8, n), or an
	// error if memory is exhausted.
	AllocBytes(n int, gen Generation) ([]uint8, error)

	// DisallowRelocation opens a region in which stores must neither move
	// nor be reclaimed. The returned func closes the region.
	DisallowRelocation() (release func())
}

type defaultAllocator struct{}

func (defaultAllocator) AllocObjects(n int, _ Generation) ([]Object, error) {
	return make([]Object, n), nil
}

func (defaultAllocator) AllocLinks(n int, _ Generation) ([]int32, error) {
	return make([]int32, n), nil
}

func (defaultAllocator) AllocBytes(n int, _ Generation) ([]uint8, error) {
	return make([]uint8, n), nil
}

func (defaultAllocator) DisallowRelocation() func() {
	return noopRelease
}

func noopRelease() {}

type allocatorOption struct {
	allocator Allocator
}

func (op allocatorOption) apply(c *config) {
	c.allocator = op.allocator
}

// WithAllocator is an option for specifying the Allocator to use for a table.
func WithAllocator(allocator Allocator) option {
	return allocatorOption{allocator}
}

type keyModelOption struct {
	keys KeyModel
}

func (op keyModelOption) apply(c *config) {
	c.keys = op.keys
}

// WithKeyModel is an option for specifying the hashing and equality of keys.
// Tables that may hold the same identity keys should share a KeyModel.
func WithKeyModel(keys KeyModel) option {
	return keyModelOption{keys}
}

type generationOption struct {
	generation Generation
}

func (op generationOption) apply(c *config) {
	c.generation = op.generation
}

// WithGeneration is an option for specifying the Generation hint passed to
// the Allocator.
func WithGeneration(generation Generation) option {
	return generationOption{generation}
}

type maxCapacityOption struct {
	maxCapacity int
}

func (op maxCapacityOption) apply(c *config) {
	c.maxCapacity = op.maxCapacity
}

// WithMaxCapacity is an option for lowering the capacity ceiling of the large
// representation. Requests above the ceiling fail with ErrCapacityExceeded.
// The ceiling is rounded down to a power of two. Handlers promote into a large
// table of at most the ceiling, so a ceiling below 256 makes promotion fail.
func WithMaxCapacity(maxCapacity int) option {
	return maxCapacityOption{roundDownToPowerOfTwo(maxCapacity)}
}
