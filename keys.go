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
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/rand"
)

// hashMask keeps hashes non-negative as an int, leaving -1 free to mean "no
// hash" in GetHash.
const hashMask = 1<<30 - 1

// KeyModel supplies hashing and equality for table keys.
//
// The following requirements are the KeyModel's responsibility:
//   - Equal(a, b) => Hash(a) == Hash(b)
//   - Hash(key) returns ok=false only for keys that were never passed to
//     GetOrCreateHash. Such keys cannot be present in any table.
//   - GetOrCreateHash returns the same value for the lifetime of the key.
type KeyModel interface {
	// Hash returns the hash of key without assigning one.
	Hash(key Object) (h uint32, ok bool)
	// GetOrCreateHash returns the hash of key, assigning an identity hash
	// first if the key does not have one yet.
	GetOrCreateHash(key Object) uint32
	// Equal reports whether a and b are the same key.
	Equal(a, b Object) bool
}

// IdentityHashed is implemented by keys that carry their own identity hash
// slot, like an object header. The default KeyModel stores identity hashes of
// such keys in the key itself rather than in a side table.
type IdentityHashed interface {
	// IdentityHash returns the assigned hash, if any.
	IdentityHash() (uint32, bool)
	// SetIdentityHash assigns the identity hash. It is called at most once.
	SetIdentityHash(h uint32)
}

// HeapObject is a key with identity semantics. Its hash is assigned the first
// time it is added to a table.
type HeapObject struct {
	Label string
	hash  uint32
}

// IdentityHash implements IdentityHashed.
func (o *HeapObject) IdentityHash() (uint32, bool) {
	return o.hash, o.hash != 0
}

// SetIdentityHash implements IdentityHashed.
func (o *HeapObject) SetIdentityHash(h uint32) {
	o.hash = h
}

func (o *HeapObject) String() string {
	return o.Label
}

// defaultKeyModel implements SameValueZero equality: numbers compare by
// numeric value (NaN equals NaN, -0 equals 0, 1 equals 1.0), strings by
// contents and everything else by ==. Values hash by contents; other keys get
// a random identity hash on first insertion.
type defaultKeyModel struct {
	rng      *rand.Rand
	identity map[Object]uint32
}

var _ KeyModel = (*defaultKeyModel)(nil)

// NewKeyModel returns the default KeyModel. Identity hashes are drawn from a
// generator seeded with seed. The returned KeyModel is NOT goroutine-safe.
//
// Keys that do not implement IdentityHashed have their identity hash recorded
// in a side table owned by the model, which keeps every such key reachable
// for as long as the model is. Pointer keys that outlive their tables should
// implement IdentityHashed (see HeapObject) and carry the hash themselves.
func NewKeyModel(seed uint64) KeyModel {
	return &defaultKeyModel{
		rng:      rand.New(rand.NewSource(seed)),
		identity: make(map[Object]uint32),
	}
}

const (
	undefinedHash = 0x2d4f3e1
	falseHash     = 0x1b873593
	trueHash      = 0x0cc9e2d5
)

// Hash implements KeyModel.
func (km *defaultKeyModel) Hash(key Object) (uint32, bool) {
	switch k := key.(type) {
	case nil:
		return undefinedHash, true
	case bool:
		if k {
			return trueHash, true
		}
		return falseHash, true
	case string:
		return stringHash(k), true
	case *Name:
		return k.hash, true
	case *hole:
		return 0, false
	case IdentityHashed:
		return k.IdentityHash()
	}
	if n, ok := toNumber(key); ok {
		return n.hash(), true
	}
	h, ok := km.identity[key]
	return h, ok
}

// GetOrCreateHash implements KeyModel.
func (km *defaultKeyModel) GetOrCreateHash(key Object) uint32 {
	if IsTheHole(key) {
		panic("orderedhash: the hole cannot be used as a key")
	}
	if h, ok := km.Hash(key); ok {
		return h
	}
	h := km.nextIdentityHash()
	if k, ok := key.(IdentityHashed); ok {
		k.SetIdentityHash(h)
	} else {
		km.identity[key] = h
	}
	return h
}

// Equal implements KeyModel.
func (km *defaultKeyModel) Equal(a, b Object) bool {
	na, aok := toNumber(a)
	nb, bok := toNumber(b)
	if aok || bok {
		return aok && bok && na.equal(nb)
	}
	return a == b
}

func (km *defaultKeyModel) nextIdentityHash() uint32 {
	for {
		if h := km.rng.Uint32() & hashMask; h != 0 {
			return h
		}
	}
}

// number is the canonical form of a numeric key. Integral values that fit in
// an int64 are always stored in i so that 1, int8(1) and 1.0 are the same key.
type number struct {
	i     int64
	f     float64
	isInt bool
}

func intNumber(i int64) number {
	return number{i: i, isInt: true}
}

func uintNumber(u uint64) number {
	if u <= math.MaxInt64 {
		return intNumber(int64(u))
	}
	return number{f: float64(u)}
}

func floatNumber(f float64) number {
	// -0 truncates to 0. NaN and the infinities fail the checks.
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return intNumber(int64(f))
	}
	return number{f: f}
}

func toNumber(o Object) (number, bool) {
	switch v := o.(type) {
	case int:
		return intNumber(int64(v)), true
	case int8:
		return intNumber(int64(v)), true
	case int16:
		return intNumber(int64(v)), true
	case int32:
		return intNumber(int64(v)), true
	case int64:
		return intNumber(v), true
	case uint:
		return uintNumber(uint64(v)), true
	case uint8:
		return intNumber(int64(v)), true
	case uint16:
		return intNumber(int64(v)), true
	case uint32:
		return intNumber(int64(v)), true
	case uint64:
		return uintNumber(v), true
	case float32:
		return floatNumber(float64(v)), true
	case float64:
		return floatNumber(v), true
	}
	return number{}, false
}

func (n number) equal(m number) bool {
	if n.isInt || m.isInt {
		return n.isInt && m.isInt && n.i == m.i
	}
	return n.f == m.f || (math.IsNaN(n.f) && math.IsNaN(m.f))
}

func (n number) hash() uint32 {
	var buf [9]byte
	if n.isInt {
		binary.LittleEndian.PutUint64(buf[1:], uint64(n.i))
	} else {
		buf[0] = 1
		bits := math.Float64bits(n.f)
		if math.IsNaN(n.f) {
			bits = 0x7ff8000000000001
		}
		binary.LittleEndian.PutUint64(buf[1:], bits)
	}
	return uint32(xxhash.Sum64(buf[:])) & hashMask
}
