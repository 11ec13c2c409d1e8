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
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

var simulateItems = []Item{
	{Id: 1, Genre: "Rock"},
	{Id: 2, Genre: "Rock"},
	{Id: 3, Genre: "Rock"},
	{Id: 4, Genre: "Jazz"},
	{Id: 5, Genre: "Pop"},
	{Id: 6, Genre: ""},
	{Id: 7, Genre: "Rock"},
	{Id: 8, Genre: "Rock"},
	{Id: 9, Genre: "Rock"},
}

func TestGenres(t *testing.T) {
	assert.Equal(t, []string{"Jazz", "Pop", "Rock"}, Genres(simulateItems))
	assert.Empty(t, Genres(nil))
}

func TestUserIds(t *testing.T) {
	ratings := []Rating{{UserId: 7}, {UserId: 2}, {UserId: 7}, {UserId: 3}}
	assert.Equal(t, []int{2, 3, 7}, UserIds(ratings))
	assert.Equal(t, 8, NextUserId(ratings))
	assert.Equal(t, 1, NextUserId(nil))
}

func TestSimulate(t *testing.T) {
	simulator := NewSimulator(config.GetDefaultConfig().Simulate)
	ratings := []Rating{{UserId: 10, ItemId: 1, Rating: 3}}
	simulation := simulator.Simulate([]string{"Rock", "Jazz", "Metal"}, ratings, simulateItems)
	assert.Equal(t, 11, simulation.UserId)
	assert.Equal(t, map[string]float64{"Rock": 0.05, "Jazz": 0.05, "Metal": 0.05}, simulation.Weights)

	// five of six rock songs plus the only jazz song
	assert.Len(t, simulation.Ratings, 6)
	genreOf := lo.SliceToMap(simulateItems, func(item Item) (int, string) { return item.Id, item.Genre })
	counts := lo.CountValuesBy(simulation.Ratings, func(r Rating) string { return genreOf[r.ItemId] })
	assert.Equal(t, map[string]int{"Rock": 5, "Jazz": 1}, counts)
	for _, r := range simulation.Ratings {
		assert.Equal(t, 11, r.UserId)
		assert.Equal(t, 5, r.Rating)
	}
	assert.Len(t, lo.UniqBy(simulation.Ratings, func(r Rating) int { return r.ItemId }), 6)

	// fixed seed
	again := simulator.Simulate([]string{"Rock", "Jazz", "Metal"}, ratings, simulateItems)
	assert.Equal(t, simulation, again)
}

func TestSimulateDuplicateGenres(t *testing.T) {
	simulator := Simulator{ItemsPerGenre: 2, InitialWeight: 0.1, Seed: 1}
	simulation := simulator.Simulate([]string{"Jazz", "Jazz"}, nil, simulateItems)
	assert.Equal(t, 1, simulation.UserId)
	assert.Equal(t, []Rating{{UserId: 1, ItemId: 4, Rating: 5}}, simulation.Ratings)
	assert.Equal(t, map[string]float64{"Jazz": 0.1}, simulation.Weights)
}

func TestSimulateNoGenres(t *testing.T) {
	simulation := NewSimulator(config.GetDefaultConfig().Simulate).Simulate(nil, nil, simulateItems)
	assert.Equal(t, 1, simulation.UserId)
	assert.Empty(t, simulation.Ratings)
	assert.Empty(t, simulation.Weights)
}
