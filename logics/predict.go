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

import "math"

// PredictRating predicts the rating of a user on an item from the mean-centred
// ratings of the other raters, weighted by similarity. The result is not clamped
// to the rating scale.
func (idx *Index) PredictRating(userId, itemId int, cache *SimilarityCache, metric Metric) float64 {
	userMean := idx.UserMean(userId)
	raters, ok := idx.ItemRaters[itemId]
	if !ok {
		return userMean
	}
	var num, den float64
	for _, rater := range raters {
		if rater.UserId == userId {
			continue
		}
		sim := Similarity(userId, rater.UserId, idx.UserRatings, cache, metric)
		if sim == 0 {
			continue
		}
		num += sim * (rater.Rating - idx.UserMean(rater.UserId))
		den += math.Abs(sim)
	}
	if den == 0 {
		return userMean
	}
	return userMean + num/den
}
