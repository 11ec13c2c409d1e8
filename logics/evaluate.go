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

const ReasonNotEnoughLiked = "not enough liked items to hold out"

// UserAccuracy is the hit rate of one user. Accuracy is nil when the user
// cannot be evaluated, and Reason tells why.
type UserAccuracy struct {
	UserId      int      `json:"user_id"`
	Hits        int      `json:"hits"`
	Recommended int      `json:"recommended"`
	Accuracy    *float64 `json:"accuracy"`
	Reason      string   `json:"reason,omitempty"`
}

// AggregateAccuracy averages the hit rates of sampled users.
type AggregateAccuracy struct {
	MeanAccuracy    *float64       `json:"mean_accuracy"`
	NUsersEvaluated int            `json:"n_users_evaluated"`
	MaxUsers        int            `json:"max_users"`
	Details         []UserAccuracy `json:"details,omitempty"`
}

// Evaluator holds out liked ratings, recommends from the rest and counts how
// many held-out items come back.
type Evaluator struct {
	LikedThreshold  int
	MinCandidates   int
	MaxItemsToCheck int
	// Progress is called after each user of an aggregate evaluation.
	Progress func(done, total int)

	recommender *Recommender
	rng         base.RandomGenerator
}

func NewEvaluator(cfg config.EvaluateConfig, recommender *Recommender, seed int64) *Evaluator {
	return &Evaluator{
		LikedThreshold:  cfg.LikedThreshold,
		MinCandidates:   cfg.MinCandidates,
		MaxItemsToCheck: cfg.MaxItemsToCheck,
		recommender:     recommender,
		rng:             base.NewRandomGenerator(seed),
	}
}

// WithRecommender returns a copy of the evaluator ranking with another recommender.
func (e *Evaluator) WithRecommender(recommender *Recommender) *Evaluator {
	clone := *e
	clone.recommender = recommender
	return &clone
}

// Split holds out max(1, floor(|liked|*testFraction)) liked rows of a user.
// Rows are identified by position, so duplicated rows are told apart. It
// returns the training table and the held-out rows.
func (e *Evaluator) Split(userId int, testFraction float64, ratings []Rating) ([]Rating, []Rating) {
	var liked []int
	for i, rating := range ratings {
		if rating.UserId == userId && rating.Rating >= e.LikedThreshold {
			liked = append(liked, i)
		}
	}
	if len(liked) == 0 {
		return ratings, nil
	}
	testSize := max(1, int(math.Floor(float64(len(liked))*testFraction)))
	heldOut := mapset.NewThreadUnsafeSet[int]()
	for _, i := range e.rng.SampleIndices(len(liked), testSize) {
		heldOut.Add(liked[i])
	}
	train := make([]Rating, 0, len(ratings)-heldOut.Cardinality())
	test := make([]Rating, 0, heldOut.Cardinality())
	for i, rating := range ratings {
		if heldOut.Contains(i) {
			test = append(test, rating)
		} else {
			train = append(train, rating)
		}
	}
	return train, test
}

// EvaluateUser computes the hit rate of a user: held-out items found in the top
// nRecommend recommendations divided by the number of recommendations.
func (e *Evaluator) EvaluateUser(userId, nRecommend int, testFraction float64, ratings []Rating, items []Item, weights map[string]float64) UserAccuracy {
	train, test := e.Split(userId, testFraction, ratings)
	if len(test) == 0 {
		return UserAccuracy{UserId: userId, Reason: ReasonNotEnoughLiked}
	}
	recommendations := e.recommender.Recommend(userId, max(nRecommend, e.MinCandidates), train, items, weights, e.MaxItemsToCheck)
	recommendations = recommendations[:lo.Clamp(nRecommend, 0, len(recommendations))]

	recommended := mapset.NewThreadUnsafeSet[int]()
	for _, r := range recommendations {
		recommended.Add(r.ItemId)
	}
	testItems := mapset.NewThreadUnsafeSet[int]()
	for _, r := range test {
		testItems.Add(r.ItemId)
	}
	hits := recommended.Intersect(testItems).Cardinality()
	accuracy := 0.0
	if len(recommendations) > 0 {
		accuracy = float64(hits) / float64(len(recommendations))
	}
	return UserAccuracy{
		UserId:      userId,
		Hits:        hits,
		Recommended: len(recommendations),
		Accuracy:    &accuracy,
	}
}

// EvaluateAll evaluates up to maxUsers distinct users drawn at random and
// averages the accuracies of those that could be evaluated.
func (e *Evaluator) EvaluateAll(nRecommend int, testFraction float64, maxUsers int, ratings []Rating, items []Item, weights map[string]float64) AggregateAccuracy {
	start := time.Now()
	users := lo.Uniq(lo.Map(ratings, func(r Rating, _ int) int { return r.UserId }))
	sort.Ints(users)
	if len(users) > maxUsers {
		users = lo.Map(e.rng.SampleIndices(len(users), maxUsers), func(i int, _ int) int { return users[i] })
		sort.Ints(users)
	}

	result := AggregateAccuracy{MaxUsers: maxUsers}
	var sum float64
	for i, userId := range users {
		accuracy := e.EvaluateUser(userId, nRecommend, testFraction, ratings, items, weights)
		result.Details = append(result.Details, accuracy)
		if accuracy.Accuracy != nil {
			sum += *accuracy.Accuracy
			result.NUsersEvaluated++
		}
		if e.Progress != nil {
			e.Progress(i+1, len(users))
		}
	}
	if result.NUsersEvaluated > 0 {
		mean := sum / float64(result.NUsersEvaluated)
		result.MeanAccuracy = &mean
	}
	log.Logger().Info("complete evaluating accuracy",
		zap.Int("n_users", len(users)),
		zap.Int("n_users_evaluated", result.NUsersEvaluated),
		zap.Duration("elapsed", time.Since(start)))
	return result
}
