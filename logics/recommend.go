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
	"math"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/cadenza/base"
	"github.com/gorse-io/cadenza/base/log"
	"github.com/gorse-io/cadenza/config"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Recommendation is a ranked catalog item.
type Recommendation struct {
	ItemId         int     `json:"item_id"`
	Title          string  `json:"title"`
	Artist         string  `json:"artist"`
	Genre          string  `json:"genre"`
	Score          float64 `json:"score"`
	BasePrediction float64 `json:"base_pred"`
}

type Recommender struct {
	Metric         Metric
	BoostCap       float64
	SurpriseScore  float64
	LikedThreshold int
	ColdStartLiked int

	rng base.RandomGenerator
}

// NewRecommender creates a recommender. A zero seed makes sampling time-derived.
func NewRecommender(cfg config.RecommendConfig, metric Metric, seed int64) *Recommender {
	return &Recommender{
		Metric:         metric,
		BoostCap:       cfg.BoostCap,
		SurpriseScore:  cfg.SurpriseScore,
		LikedThreshold: cfg.LikedThreshold,
		ColdStartLiked: cfg.ColdStartLiked,
		rng:            base.NewRandomGenerator(seed),
	}
}

// WithMetric returns a copy of the recommender using another metric. The copy
// shares the random generator.
func (r *Recommender) WithMetric(metric Metric) *Recommender {
	clone := *r
	clone.Metric = metric
	return &clone
}

// Recommend ranks up to maxItemsToCheck sampled catalog items the user has not
// rated yet and returns the top n. A non-positive maxItemsToCheck samples the
// whole catalog.
func (r *Recommender) Recommend(userId, n int, ratings []Rating, items []Item, weights map[string]float64, maxItemsToCheck int) []Recommendation {
	start := time.Now()
	log.Logger().Debug("start recommending",
		zap.Int("user_id", userId),
		zap.Int("n", n),
		zap.String("metric", string(r.Metric)))

	idx := NewIndex(ratings)
	cache := NewSimilarityCache()

	// rated items are excluded from candidates
	rated := mapset.NewThreadUnsafeSet[int]()
	for itemId := range idx.UserRatings[userId] {
		rated.Add(itemId)
	}
	// liked genres drive diversity on cold start
	genres := make(map[int]string, len(items))
	for _, item := range items {
		genres[item.Id] = item.Genre
	}
	likedGenres := mapset.NewThreadUnsafeSet[string]()
	likedCount := 0
	for _, rating := range ratings {
		if rating.UserId == userId && rating.Rating >= r.LikedThreshold {
			likedCount++
			if genre, ok := genres[rating.ItemId]; ok {
				likedGenres.Add(genre)
			}
		}
	}

	// score sampled candidates
	if maxItemsToCheck <= 0 {
		maxItemsToCheck = -1
	}
	sampled := r.rng.SampleIndices(len(items), maxItemsToCheck)
	candidates := make([]Recommendation, 0, len(sampled))
	for _, i := range sampled {
		item := items[i]
		if rated.Contains(item.Id) {
			continue
		}
		basePrediction := idx.PredictRating(userId, item.Id, cache, r.Metric)
		boost := math.Min(weights[item.Genre], r.BoostCap)
		candidates = append(candidates, Recommendation{
			ItemId:         item.Id,
			Title:          item.Title,
			Artist:         item.Artist,
			Genre:          item.Genre,
			Score:          basePrediction * (1 + boost),
			BasePrediction: basePrediction,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	coldStart := !lo.SomeBy(lo.Values(weights), func(w float64) bool { return w > 0 }) ||
		likedCount <= r.ColdStartLiked
	if coldStart {
		top := candidates[:lo.Clamp(n-1, 0, len(candidates))]
		inTop := mapset.NewThreadUnsafeSet[int]()
		for _, c := range top {
			inTop.Add(c.ItemId)
		}
		pool := lo.Filter(items, func(item Item, _ int) bool {
			return !likedGenres.Contains(item.Genre) && !rated.Contains(item.Id) && !inTop.Contains(item.Id)
		})
		if len(pool) > 0 {
			surprise := pool[r.rng.Choice(len(pool))]
			result := append(append(make([]Recommendation, 0, len(top)+1), top...), Recommendation{
				ItemId:         surprise.Id,
				Title:          surprise.Title,
				Artist:         surprise.Artist,
				Genre:          surprise.Genre,
				Score:          r.SurpriseScore,
				BasePrediction: r.SurpriseScore,
			})
			log.Logger().Debug("complete recommending with surprise",
				zap.Int("user_id", userId),
				zap.Int("n_candidates", len(candidates)),
				zap.Int("n_similarities", cache.Len()),
				zap.Duration("elapsed", time.Since(start)))
			return result
		}
	}

	result := candidates[:lo.Clamp(n, 0, len(candidates))]
	log.Logger().Debug("complete recommending",
		zap.Int("user_id", userId),
		zap.Int("n_candidates", len(candidates)),
		zap.Int("n_similarities", cache.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return result
}
