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
	"math/rand"
	"testing"

	"github.com/gorse-io/cadenza/config"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func newTestEvaluator() *Evaluator {
	cfg := config.GetDefaultConfig()
	return NewEvaluator(cfg.Evaluate, NewRecommender(cfg.Recommend, Cosine, 42), 42)
}

func TestEvaluator_SplitSingleLiked(t *testing.T) {
	ratings := []Rating{
		{UserId: 1, ItemId: 10, Rating: 5},
		{UserId: 1, ItemId: 11, Rating: 2},
		{UserId: 2, ItemId: 10, Rating: 4},
		{UserId: 2, ItemId: 12, Rating: 5},
	}
	train, test := newTestEvaluator().Split(1, 0.3, ratings)
	assert.Equal(t, []Rating{{UserId: 1, ItemId: 10, Rating: 5}}, test)
	assert.Equal(t, []Rating{
		{UserId: 1, ItemId: 11, Rating: 2},
		{UserId: 2, ItemId: 10, Rating: 4},
		{UserId: 2, ItemId: 12, Rating: 5},
	}, train)
}

func TestEvaluator_SplitSize(t *testing.T) {
	var ratings []Rating
	for i := 0; i < 10; i++ {
		ratings = append(ratings, Rating{UserId: 1, ItemId: i, Rating: 4 + i%2})
	}
	ratings = append(ratings, Rating{UserId: 1, ItemId: 100, Rating: 3})
	evaluator := newTestEvaluator()
	train, test := evaluator.Split(1, 0.3, ratings)
	assert.Len(t, test, 3)
	assert.Len(t, train, 8)
	for _, r := range test {
		assert.GreaterOrEqual(t, r.Rating, 4)
		assert.NotContains(t, train, r)
	}
	train, test = evaluator.Split(1, 1, ratings)
	assert.Len(t, test, 10)
	assert.Equal(t, []Rating{{UserId: 1, ItemId: 100, Rating: 3}}, train)
}

func TestEvaluator_SplitDuplicates(t *testing.T) {
	ratings := []Rating{
		{UserId: 1, ItemId: 10, Rating: 5},
		{UserId: 1, ItemId: 10, Rating: 5},
	}
	train, test := newTestEvaluator().Split(1, 0.5, ratings)
	assert.Len(t, test, 1)
	assert.Equal(t, []Rating{{UserId: 1, ItemId: 10, Rating: 5}}, train)
}

func TestEvaluator_SplitNoLiked(t *testing.T) {
	ratings := []Rating{{UserId: 1, ItemId: 10, Rating: 3}}
	train, test := newTestEvaluator().Split(1, 0.3, ratings)
	assert.Empty(t, test)
	assert.Equal(t, ratings, train)
}

func TestEvaluator_EvaluateUserNoLiked(t *testing.T) {
	ratings := []Rating{
		{UserId: 1, ItemId: 10, Rating: 3},
		{UserId: 2, ItemId: 10, Rating: 5},
	}
	items := []Item{{Id: 10, Genre: "Rock"}}
	accuracy := newTestEvaluator().EvaluateUser(1, 10, 0.3, ratings, items, nil)
	assert.Equal(t, 1, accuracy.UserId)
	assert.Nil(t, accuracy.Accuracy)
	assert.Equal(t, ReasonNotEnoughLiked, accuracy.Reason)
	// unknown user
	accuracy = newTestEvaluator().EvaluateUser(100, 10, 0.3, ratings, items, nil)
	assert.Nil(t, accuracy.Accuracy)
}

func TestEvaluator_EvaluateUserHit(t *testing.T) {
	ratings := []Rating{
		{UserId: 1, ItemId: 10, Rating: 5},
		{UserId: 1, ItemId: 11, Rating: 1},
		{UserId: 2, ItemId: 10, Rating: 5},
		{UserId: 2, ItemId: 11, Rating: 1},
	}
	items := []Item{{Id: 10, Genre: "Rock"}, {Id: 11, Genre: "Rock"}}
	accuracy := newTestEvaluator().EvaluateUser(1, 10, 0.3, ratings, items, nil)
	assert.Equal(t, 1, accuracy.Hits)
	assert.Equal(t, 1, accuracy.Recommended)
	if assert.NotNil(t, accuracy.Accuracy) {
		assert.Equal(t, 1.0, *accuracy.Accuracy)
	}
	assert.Empty(t, accuracy.Reason)
}

func TestEvaluator_EvaluateUserNothingRecommended(t *testing.T) {
	ratings := []Rating{
		{UserId: 1, ItemId: 10, Rating: 5},
		{UserId: 1, ItemId: 11, Rating: 1},
	}
	// the held-out item is not in the catalog and the rest is rated
	items := []Item{{Id: 11, Genre: "Rock"}}
	accuracy := newTestEvaluator().EvaluateUser(1, 10, 0.3, ratings, items, nil)
	assert.Equal(t, 0, accuracy.Hits)
	assert.Equal(t, 0, accuracy.Recommended)
	if assert.NotNil(t, accuracy.Accuracy) {
		assert.Equal(t, 0.0, *accuracy.Accuracy)
	}
}

func randomTables(seed int64) ([]Rating, []Item) {
	rng := rand.New(rand.NewSource(seed))
	genres := []string{"Rock", "Jazz", "Pop", "Samba"}
	items := make([]Item, 40)
	for i := range items {
		items[i] = Item{Id: i + 1, Genre: genres[i%len(genres)]}
	}
	ratings := make([]Rating, 300)
	for i := range ratings {
		ratings[i] = Rating{UserId: rng.Intn(25) + 1, ItemId: rng.Intn(40) + 1, Rating: rng.Intn(5) + 1}
	}
	return ratings, items
}

func TestEvaluator_EvaluateUserBounds(t *testing.T) {
	ratings, items := randomTables(42)
	evaluator := newTestEvaluator()
	weights := map[string]float64{"Rock": 0.3}
	for userId := 1; userId <= 25; userId++ {
		for _, n := range []int{1, 5, 10} {
			accuracy := evaluator.EvaluateUser(userId, n, 0.3, ratings, items, weights)
			if accuracy.Accuracy == nil {
				continue
			}
			assert.GreaterOrEqual(t, *accuracy.Accuracy, 0.0)
			assert.LessOrEqual(t, *accuracy.Accuracy, 1.0)
			assert.LessOrEqual(t, accuracy.Recommended, n)
			if accuracy.Recommended > 0 {
				assert.Equal(t, float64(accuracy.Hits)/float64(accuracy.Recommended), *accuracy.Accuracy)
			} else {
				assert.Equal(t, 0.0, *accuracy.Accuracy)
			}
		}
	}
}

func TestEvaluator_EvaluateAll(t *testing.T) {
	ratings, items := randomTables(7)
	evaluator := newTestEvaluator()
	var progress []int
	evaluator.Progress = func(done, total int) {
		assert.Equal(t, 5, total)
		progress = append(progress, done)
	}
	result := evaluator.EvaluateAll(10, 0.3, 5, ratings, items, nil)
	assert.Equal(t, 5, result.MaxUsers)
	assert.Len(t, result.Details, 5)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)
	assert.Len(t, lo.UniqBy(result.Details, func(a UserAccuracy) int { return a.UserId }), 5)
	evaluated := lo.Filter(result.Details, func(a UserAccuracy, _ int) bool { return a.Accuracy != nil })
	assert.Equal(t, len(evaluated), result.NUsersEvaluated)
	if result.NUsersEvaluated > 0 {
		mean := lo.SumBy(evaluated, func(a UserAccuracy) float64 { return *a.Accuracy }) / float64(len(evaluated))
		if assert.NotNil(t, result.MeanAccuracy) {
			assert.InDelta(t, mean, *result.MeanAccuracy, 1e-12)
		}
	}

	// fewer users than the limit
	evaluator.Progress = nil
	result = evaluator.EvaluateAll(10, 0.3, 100, ratings, items, nil)
	assert.Len(t, result.Details, len(lo.Uniq(lo.Map(ratings, func(r Rating, _ int) int { return r.UserId }))))
	assert.IsIncreasing(t, lo.Map(result.Details, func(a UserAccuracy, _ int) int { return a.UserId }))
}

func TestEvaluator_EvaluateAllNoLiked(t *testing.T) {
	ratings := []Rating{
		{UserId: 1, ItemId: 10, Rating: 1},
		{UserId: 2, ItemId: 10, Rating: 2},
	}
	result := newTestEvaluator().EvaluateAll(10, 0.3, 20, ratings, []Item{{Id: 10}}, nil)
	assert.Nil(t, result.MeanAccuracy)
	assert.Equal(t, 0, result.NUsersEvaluated)
	assert.Equal(t, 20, result.MaxUsers)
	assert.Len(t, result.Details, 2)
}
