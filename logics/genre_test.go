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

package logics

import (
	"testing"

	"github.com/gorse-io/cadenza/config"
	"github.com/stretchr/testify/assert"
)

func TestApplyFeedback_Positive(t *testing.T) {
	weights := ApplyFeedback(map[string]float64{}, "Rock", 4)
	assert.InDelta(t, 0.02, weights["Rock"], 1e-12)
	weights = ApplyFeedback(weights, "Rock", 4)
	assert.InDelta(t, 0.038, weights["Rock"], 1e-12)
	weights = ApplyFeedback(map[string]float64{}, "Rock", 5)
	assert.InDelta(t, 0.04, weights["Rock"], 1e-12)
	weights = ApplyFeedback(weights, "Rock", 5)
	assert.InDelta(t, 0.076, weights["Rock"], 1e-12)
	weights = ApplyFeedback(map[string]float64{"Rock": 0.5}, "Rock", 4)
	assert.InDelta(t, 0.47, weights["Rock"], 1e-12)
}

func TestApplyFeedback_Negative(t *testing.T) {
	weights := ApplyFeedback(map[string]float64{"Jazz": 0.9}, "Jazz", 1)
	assert.InDelta(t, 0.77, weights["Jazz"], 1e-12)
	weights = ApplyFeedback(map[string]float64{"Jazz": 0.9}, "Jazz", 2)
	assert.InDelta(t, 0.79, weights["Jazz"], 1e-12)
	// clamped at zero
	weights = ApplyFeedback(map[string]float64{}, "Jazz", 1)
	assert.Equal(t, 0.0, weights["Jazz"])
}

func TestApplyFeedback_Neutral(t *testing.T) {
	weights := ApplyFeedback(map[string]float64{"Pop": 0.3}, "Pop", 3)
	assert.Equal(t, map[string]float64{"Pop": 0.3}, weights)
	weights = ApplyFeedback(map[string]float64{"Pop": 0.3}, "Rock", 3)
	assert.Equal(t, map[string]float64{"Pop": 0.3}, weights)
}

func TestApplyFeedback_Copy(t *testing.T) {
	weights := map[string]float64{"Rock": 0.1, "Pop": 0.2}
	updated := ApplyFeedback(weights, "Rock", 5)
	assert.Equal(t, map[string]float64{"Rock": 0.1, "Pop": 0.2}, weights)
	assert.Equal(t, 0.2, updated["Pop"])
	assert.InDelta(t, 0.13, updated["Rock"], 1e-12)
}

func TestApplyFeedback_Bounds(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		for i := 0; i <= 100; i++ {
			weight := float64(i) / 100
			updated := ApplyFeedback(map[string]float64{"Rock": weight}, "Rock", rating)
			assert.GreaterOrEqual(t, updated["Rock"], 0.0)
			assert.LessOrEqual(t, updated["Rock"], 1.0)
		}
	}
	// a larger step still stays in range
	adapter := GenreAdapter{Decay: 1, Step: 0.5}
	assert.Equal(t, 1.0, adapter.Update(0.9, 5))
	assert.Equal(t, 0.0, adapter.Update(0.1, 1))
}

func TestNewGenreAdapter(t *testing.T) {
	adapter := NewGenreAdapter(config.GetDefaultConfig().Feedback)
	assert.Equal(t, DefaultGenreAdapter, adapter)
	adapter = NewGenreAdapter(config.FeedbackConfig{Decay: 0.5, Step: 0.1})
	assert.InDelta(t, 0.5, adapter.Update(0.6, 5), 1e-12)
	assert.InDelta(t, 0.1, adapter.Update(0.6, 1), 1e-12)
}
