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


package datautil

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/cadenza/base"
	"github.com/gorse-io/cadenza/base/log"
	"github.com/gorse-io/cadenza/logics"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Densify keeps the rows of the targetUsers most active users. Ties are broken
// by smaller user id. Row order is preserved.
func Densify(ratings []logics.Rating, targetUsers int) []logics.Rating {
	counts := lo.CountValuesBy(ratings, func(r logics.Rating) int { return r.UserId })
	users := lo.Keys(counts)
	sort.Slice(users, func(i, j int) bool {
		if counts[users[i]] != counts[users[j]] {
			return counts[users[i]] > counts[users[j]]
		}
		return users[i] < users[j]
	})
	kept := mapset.NewThreadUnsafeSet(users[:lo.Clamp(targetUsers, 0, len(users))]...)
	densified := lo.Filter(ratings, func(r logics.Rating, _ int) bool { return kept.Contains(r.UserId) })
	log.Logger().Info("densify ratings",
		zap.Int("n_users_before", len(users)),
		zap.Int("n_users_after", kept.Cardinality()),
		zap.Int("n_ratings_before", len(ratings)),
		zap.Int("n_ratings_after", len(densified)))
	return densified
}

// Expand appends newUsers synthetic users after the largest user id. Each one
// rates between 1 and maxRatingsPerUser distinct catalog items at random.
func Expand(ratings []logics.Rating, items []logics.Item, newUsers, maxRatingsPerUser int, rng base.RandomGenerator) ([]logics.Rating, error) {
	if len(items) == 0 {
		return nil, errors.NotValidf("empty catalog")
	}
	if maxRatingsPerUser <= 0 {
		return nil, errors.NotValidf("max ratings per user %d", maxRatingsPerUser)
	}
	expanded := append([]logics.Rating(nil), ratings...)
	start := logics.NextUserId(ratings)
	for userId := start; userId < start+newUsers; userId++ {
		n := rng.Intn(maxRatingsPerUser) + 1
		for _, i := range rng.SampleIndices(len(items), n) {
			expanded = append(expanded, logics.Rating{
				UserId: userId,
				ItemId: items[i].Id,
				Rating: rng.Intn(5) + 1,
			})
		}
	}
	log.Logger().Info("expand ratings",
		zap.Int("first_user_id", start),
		zap.Int("n_new_users", newUsers),
		zap.Int("n_ratings_after", len(expanded)))
	return expanded, nil
}

// Fill spreads random ratings over existing users until the table holds
// targetRows rows. Users earlier in the table receive the remainder, and no
// user rates an item twice through Fill.
func Fill(ratings []logics.Rating, items []logics.Item, targetRows int, rng base.RandomGenerator) ([]logics.Rating, error) {
	rowsToAdd := targetRows - len(ratings)
	if rowsToAdd <= 0 {
		return ratings, nil
	}
	users := lo.Uniq(lo.Map(ratings, func(r logics.Rating, _ int) int { return r.UserId }))
	if len(users) == 0 {
		return nil, errors.NotValidf("empty rating table")
	}
	if len(items) == 0 {
		return nil, errors.NotValidf("empty catalog")
	}
	positions := make(map[int][]int, len(items))
	for i, item := range items {
		positions[item.Id] = append(positions[item.Id], i)
	}
	rated := make(map[int]mapset.Set[int], len(users))
	for _, r := range ratings {
		if _, ok := rated[r.UserId]; !ok {
			rated[r.UserId] = mapset.NewSet[int]()
		}
		rated[r.UserId].Append(positions[r.ItemId]...)
	}

	filled := append([]logics.Rating(nil), ratings...)
	quota, remaining := rowsToAdd/len(users), rowsToAdd%len(users)
	for _, userId := range users {
		n := quota
		if remaining > 0 {
			n++
			remaining--
		}
		for _, i := range rng.Sample(0, len(items), n, rated[userId]) {
			filled = append(filled, logics.Rating{
				UserId: userId,
				ItemId: items[i].Id,
				Rating: rng.Intn(5) + 1,
			})
		}
	}
	log.Logger().Info("fill ratings",
		zap.Int("n_users", len(users)),
		zap.Int("n_ratings_before", len(ratings)),
		zap.Int("n_ratings_after", len(filled)))
	return filled, nil
}
