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
	"strings"

	"github.com/juju/errors"
)

// Metric selects the user-user similarity function.
type Metric string

const (
	Pearson Metric = "pearson"
	Cosine  Metric = "cosine"
)

// ParseMetric converts a metric name. An empty name means cosine.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cosine", "cossin":
		return Cosine, nil
	case "pearson":
		return Pearson, nil
	}
	return "", errors.NotValidf("similarity metric %q", name)
}

// minCommon is the number of co-rated items below which a metric returns 0.
func (m Metric) minCommon() int {
	if m == Pearson {
		return 2
	}
	return 1
}

// UserPair is the canonical cache key of two users: Low <= High.
type UserPair struct {
	Low, High int
}

func NewUserPair(a, b int) UserPair {
	if a > b {
		a, b = b, a
	}
	return UserPair{Low: a, High: b}
}

// SimilarityCache memoizes similarities for one recommendation or evaluation.
// It is not safe for concurrent use and must not outlive the rating snapshot
// it was filled from.
type SimilarityCache struct {
	values map[UserPair]float64
}

func NewSimilarityCache() *SimilarityCache {
	return &SimilarityCache{values: make(map[UserPair]float64)}
}

func (c *SimilarityCache) Get(a, b int) (float64, bool) {
	v, ok := c.values[NewUserPair(a, b)]
	return v, ok
}

func (c *SimilarityCache) Put(a, b int, sim float64) {
	c.values[NewUserPair(a, b)] = sim
}

func (c *SimilarityCache) Len() int {
	return len(c.values)
}

// Similarity computes the similarity between two users over their co-rated items.
// Pearson needs at least two common items and cosine at least one, otherwise the
// similarity is 0. Every result is cached under the canonical pair.
func Similarity(u1, u2 int, ratingsByUser map[int]map[int]float64, cache *SimilarityCache, metric Metric) float64 {
	if cache != nil {
		if sim, ok := cache.Get(u1, u2); ok {
			return sim
		}
	}
	// iterate from the smaller id so that (a,b) and (b,a) sum in the same order
	pair := NewUserPair(u1, u2)
	a, b := commonRatings(ratingsByUser[pair.Low], ratingsByUser[pair.High])
	var sim float64
	if len(a) >= metric.minCommon() {
		switch metric {
		case Pearson:
			sim = pearson(a, b)
		default:
			sim = cosine(a, b)
		}
	}
	if cache != nil {
		cache.Put(u1, u2, sim)
	}
	return sim
}

// commonRatings returns the ratings of both users on co-rated items, in ascending item order.
func commonRatings(x, y map[int]float64) ([]float64, []float64) {
	if len(x) > len(y) {
		// probe the smaller map, but keep the argument order of the output
		b, a := commonRatings(y, x)
		return a, b
	}
	items := make([]int, 0, len(x))
	for itemId := range x {
		if _, ok := y[itemId]; ok {
			items = append(items, itemId)
		}
	}
	sort.Ints(items)
	a := make([]float64, len(items))
	b := make([]float64, len(items))
	for i, itemId := range items {
		a[i] = x[itemId]
		b[i] = y[itemId]
	}
	return a, b
}

func pearson(a, b []float64) float64 {
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(len(a))
	meanB /= float64(len(b))
	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	den := math.Sqrt(varA * varB)
	if den == 0 {
		return 0
	}
	return clamp(cov/den, -1, 1)
}

func cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return clamp(dot/(math.Sqrt(normA)*math.Sqrt(normB)), -1, 1)
}

// clamp removes rounding overshoot such as 1.0000000000000002.
func clamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}
