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

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gorse-io/cadenza/logics"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
)

const redisBatchSize = 1000

// Redis stores the rating table and the catalog as lists and genre weights
// as a hash. A rating is encoded as "user_id,item_id,rating".
type Redis struct {
	TablePrefix
	client *redis.Client
}

func (r *Redis) Init() error {
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Purge() error {
	return errors.Trace(r.client.Del(context.Background(), r.RatingsTable(), r.ItemsTable(), r.GenreWeightsTable()).Err())
}

func (r *Redis) LoadRatings(ctx context.Context) ([]logics.Rating, error) {
	values, err := r.client.LRange(ctx, r.RatingsTable(), 0, -1).Result()
	if err != nil {
		return nil, errors.Trace(err)
	}
	ratings := make([]logics.Rating, 0, len(values))
	for _, value := range values {
		var rating logics.Rating
		if _, err = fmt.Sscanf(value, "%d,%d,%d", &rating.UserId, &rating.ItemId, &rating.Rating); err != nil {
			return nil, errors.Annotatef(err, "failed to parse rating %q", value)
		}
		ratings = append(ratings, rating)
	}
	return ratings, nil
}

func (r *Redis) SaveRatings(ctx context.Context, ratings []logics.Rating) error {
	values := lo.Map(ratings, func(rating logics.Rating, _ int) any {
		return fmt.Sprintf("%d,%d,%d", rating.UserId, rating.ItemId, rating.Rating)
	})
	return r.replaceList(ctx, r.RatingsTable(), values)
}

func (r *Redis) LoadItems(ctx context.Context) ([]logics.Item, error) {
	values, err := r.client.LRange(ctx, r.ItemsTable(), 0, -1).Result()
	if err != nil {
		return nil, errors.Trace(err)
	}
	items := make([]logics.Item, 0, len(values))
	for _, value := range values {
		var item logics.Item
		if err = json.Unmarshal([]byte(value), &item); err != nil {
			return nil, errors.Trace(err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Redis) SaveItems(ctx context.Context, items []logics.Item) error {
	values := make([]any, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return errors.Trace(err)
		}
		values = append(values, string(data))
	}
	return r.replaceList(ctx, r.ItemsTable(), values)
}

func (r *Redis) LoadGenreWeights(ctx context.Context) (map[string]float64, error) {
	values, err := r.client.HGetAll(ctx, r.GenreWeightsTable()).Result()
	if err != nil {
		return nil, errors.Trace(err)
	}
	weights := make(map[string]float64, len(values))
	for genre, value := range values {
		if weights[genre], err = strconv.ParseFloat(value, 64); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return weights, nil
}

func (r *Redis) SaveGenreWeights(ctx context.Context, weights map[string]float64) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.GenreWeightsTable())
		if len(weights) > 0 {
			values := make(map[string]any, len(weights))
			for genre, weight := range weights {
				values[genre] = strconv.FormatFloat(weight, 'g', -1, 64)
			}
			pipe.HSet(ctx, r.GenreWeightsTable(), values)
		}
		return nil
	})
	return errors.Trace(err)
}

// replaceList replaces a list in one transaction.
func (r *Redis) replaceList(ctx context.Context, key string, values []any) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		for _, chunk := range lo.Chunk(values, redisBatchSize) {
			pipe.RPush(ctx, key, chunk...)
		}
		return nil
	})
	return errors.Trace(err)
}
