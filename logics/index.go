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

// DefaultGlobalMean is used when there is no rating at all.
const DefaultGlobalMean = 3.0

// Rating is a row of the rating table. Rows are not unique per (user, item).
type Rating struct {
	UserId int `json:"user_id"`
	ItemId int `json:"item_id"`
	Rating int `json:"rating"`
}

// Item is an entry of the catalog.
type Item struct {
	Id     int    `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Genre  string `json:"genre"`
}

// Rater is a rating given to an item by a user.
type Rater struct {
	UserId int
	Rating float64
}

// Index holds the structures derived from a rating table. It is rebuilt for
// every recommendation or evaluation and shared by all predictions of the call.
type Index struct {
	// UserRatings maps a user to item ratings. For duplicated rows the later row wins.
	UserRatings map[int]map[int]float64
	// UserMeans is computed over every row of a user, duplicates included.
	UserMeans map[int]float64
	// ItemRaters lists every row of an item in table order.
	ItemRaters map[int][]Rater
	GlobalMean float64
}

// NewIndex builds per-user rating maps, user means and item raters in one pass.
func NewIndex(ratings []Rating) *Index {
	idx := &Index{
		UserRatings: make(map[int]map[int]float64),
		UserMeans:   make(map[int]float64),
		ItemRaters:  make(map[int][]Rater),
		GlobalMean:  DefaultGlobalMean,
	}
	sums := make(map[int]float64)
	counts := make(map[int]int)
	total := 0.0
	for _, r := range ratings {
		value := float64(r.Rating)
		if idx.UserRatings[r.UserId] == nil {
			idx.UserRatings[r.UserId] = make(map[int]float64)
		}
		idx.UserRatings[r.UserId][r.ItemId] = value
		idx.ItemRaters[r.ItemId] = append(idx.ItemRaters[r.ItemId], Rater{UserId: r.UserId, Rating: value})
		sums[r.UserId] += value
		counts[r.UserId]++
		total += value
	}
	for userId, sum := range sums {
		idx.UserMeans[userId] = sum / float64(counts[userId])
	}
	if len(ratings) > 0 {
		idx.GlobalMean = total / float64(len(ratings))
	}
	return idx
}

// UserMean returns the mean rating of a user, or the global mean for unknown users.
func (idx *Index) UserMean(userId int) float64 {
	if mean, ok := idx.UserMeans[userId]; ok {
		return mean
	}
	return idx.GlobalMean
}
