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

var (
	// ErrCapacityExceeded is returned when a table would need more capacity
	// than its representation allows. It is a range error and retrying the
	// same operation will fail again.
	ErrCapacityExceeded = errors.New("orderedhash: too many properties")

	// ErrOutOfMemory is returned when the Allocator cannot satisfy a request.
	// The table the operation was invoked on is left unchanged.
	ErrOutOfMemory = errors.New("orderedhash: out of memory")

	// ErrCannotGrow is returned by the small engine when growing would
	// exceed the small capacity limit. Handlers react to it by promoting the
	// table to the large representation and never return it.
	ErrCannotGrow = errors.New("orderedhash: small table cannot grow")
)

func capacityExceeded(requested, limit int) error {
	return fmt.Errorf("%w: capacity %d exceeds maximum %d", ErrCapacityExceeded, requested, limit)
}

func outOfMemory(what string, n int, err error) error {
	if errors.Is(err, ErrOutOfMemory) {
		return fmt.Errorf("allocating %d %s: %w", n, what, err)
	}
	return fmt.Errorf("allocating %d %s: %w: %v", n, what, ErrOutOfMemory, err)
}
