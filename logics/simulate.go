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
	"sort"

	"github.com/gorse-io/cadenza/base"
	"github.com/gorse-io/cadenza/config"
	"github.com/samber/lo"
)

// Genres returns the distinct non-empty genres of the catalog in order.
func Genres(items []Item) []string {
	genres := lo.Uniq(lo.FilterMap(items, func(item Item, _ int) (string, bool) {
		return item.Genre, item.Genre != ""
	}))
	sort.Strings(genres)
	return genres
}

// UserIds returns the distinct users of the rating table in order.
func UserIds(ratings []Rating) []int {
	users := lo.Uniq(lo.Map(ratings, func(r Rating, _ int) int { return r.UserId }))
	sort.Ints(users)
	return users
}

// NextUserId returns max(user_id)+1, or 1 for an empty table.
func NextUserId(ratings []Rating) int {
	if len(ratings) == 0 {
		return 1
	}
	return lo.MaxBy(ratings, func(a, b Rating) bool { return a.UserId > b.UserId }).UserId + 1
}

// Simulation is a synthetic user seeded with favorite genres.
type Simulation struct {
	UserId  int
	Ratings []Rating
	Weights map[string]float64
}

// Simulator creates users who rate a few songs of each chosen genre with 5.
type Simulator struct {
	ItemsPerGenre int
	InitialWeight float64
	Seed          int64
}

func NewSimulator(cfg config.SimulateConfig) Simulator {
	return Simulator{
		ItemsPerGenre: cfg.ItemsPerGenre,
		InitialWeight: cfg.InitialWeight,
		Seed:          cfg.Seed,
	}
}

// Simulate picks up to ItemsPerGenre catalog items of every genre and rates
// them 5. A genre missing from the catalog adds no rating but still gets the
// initial weight. The generator is reseeded on every call so the same catalog
// and genres always give the same picks.
func (s Simulator) Simulate(genres []string, ratings []Rating, items []Item) Simulation {
	rng := base.NewRandomGenerator(s.Seed)
	userId := NextUserId(ratings)
	simulation := Simulation{
		UserId:  userId,
		Weights: make(map[string]float64, len(genres)),
	}
	for _, genre := range lo.Uniq(genres) {
		simulation.Weights[genre] = s.InitialWeight
		choices := lo.Filter(items, func(item Item, _ int) bool { return item.Genre == genre })
		for _, i := range rng.SampleIndices(len(choices), s.ItemsPerGenre) {
			simulation.Ratings = append(simulation.Ratings, Rating{
				UserId: userId,
				ItemId: choices[i].Id,
				Rating: 5,
			})
		}
	}
	return simulation
}
