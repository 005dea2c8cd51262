// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import (
	"math/rand"
)

// RandomGenerator is the random generator for mtlprep.
type RandomGenerator struct {
	*rand.Rand
}

// NewRandomGenerator creates a RandomGenerator.
func NewRandomGenerator(seed int64) RandomGenerator {
	return RandomGenerator{rand.New(rand.NewSource(seed))}
}

// Permutation returns a random permutation of [0, n).
func (rng RandomGenerator) Permutation(n int) []int {
	return rng.Perm(n)
}

// ShuffleInts shuffles a slice of ints in place.
func (rng RandomGenerator) ShuffleInts(a []int) {
	rng.Shuffle(len(a), func(i, j int) {
		a[i], a[j] = a[j], a[i]
	})
}
