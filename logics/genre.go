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
	"github.com/gorse-io/cadenza/config"
	"github.com/samber/lo"
)

// GenreAdapter learns genre weights from feedback with exponential decay.
type GenreAdapter struct {
	Decay float64
	Step  float64
}

var DefaultGenreAdapter = GenreAdapter{Decay: 0.9, Step: 0.02}

func NewGenreAdapter(cfg config.FeedbackConfig) GenreAdapter {
	return GenreAdapter{Decay: cfg.Decay, Step: cfg.Step}
}

// Update returns the weight after a rating. A rating of 3 leaves the weight
// unchanged, otherwise the result is clamped to [0, 1].
func (a GenreAdapter) Update(weight float64, rating int) float64 {
	switch {
	case rating >= 4:
		weight = weight*a.Decay + float64(rating-3)*a.Step
	case rating <= 2:
		weight = weight*a.Decay - float64(3-rating)*a.Step
	default:
		return weight
	}
	return lo.Clamp(weight, 0, 1)
}

// ApplyFeedback returns a copy of weights with the genre updated by a rating.
func (a GenreAdapter) ApplyFeedback(weights map[string]float64, genre string, rating int) map[string]float64 {
	updated := make(map[string]float64, len(weights)+1)
	for g, w := range weights {
		updated[g] = w
	}
	if rating == 3 {
		return updated
	}
	updated[genre] = a.Update(weights[genre], rating)
	return updated
}

// ApplyFeedback updates weights with the default decay and step.
func ApplyFeedback(weights map[string]float64, genre string, rating int) map[string]float64 {
	return DefaultGenreAdapter.ApplyFeedback(weights, genre, rating)
}
