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
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestRandomGenerator_Sample(t *testing.T) {
	excludeSet := mapset.NewSet(0, 1, 2, 3, 4)
	rng := NewRandomGenerator(1)
	for i := 1; i <= 10; i++ {
		sampled := rng.Sample(0, 10, i, excludeSet)
		for j := range sampled {
			assert.False(t, excludeSet.Contains(sampled[j]))
		}
		assert.LessOrEqual(t, len(sampled), 5)
	}
}

func TestRandomGenerator_SampleIndices(t *testing.T) {
	rng := NewRandomGenerator(1)
	// fewer than size
	sampled := rng.SampleIndices(10, 4)
	assert.Len(t, sampled, 4)
	assert.Len(t, lo.Uniq(sampled), 4)
	for _, i := range sampled {
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 10)
	}
	// more than size
	assert.ElementsMatch(t, []int{0, 1, 2}, rng.SampleIndices(3, 100))
	// all
	assert.ElementsMatch(t, []int{0, 1, 2}, rng.SampleIndices(3, -1))
	// empty
	assert.Empty(t, rng.SampleIndices(0, 5))
}

func TestRandomGenerator_Deterministic(t *testing.T) {
	a := NewRandomGenerator(42)
	b := NewRandomGenerator(42)
	assert.Equal(t, a.SampleIndices(100, 10), b.SampleIndices(100, 10))
	assert.Equal(t, a.Choice(50), b.Choice(50))
}

func TestRandomGenerator_Choice(t *testing.T) {
	rng := NewRandomGenerator(0)
	assert.Equal(t, -1, rng.Choice(0))
	assert.Equal(t, 0, rng.Choice(1))
	for i := 0; i < 100; i++ {
		v := rng.Choice(3)
		assert.True(t, v >= 0 && v < 3)
	}
}
