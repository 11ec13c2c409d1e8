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

	"github.com/gorse-io/cadenza/logics"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRating struct {
	Seq    int `bson:"_id"`
	UserId int `bson:"user_id"`
	ItemId int `bson:"item_id"`
	Rating int `bson:"rating"`
}

type mongoItem struct {
	Id     int    `bson:"_id"`
	Title  string `bson:"title"`
	Artist string `bson:"artist"`
	Genre  string `bson:"genre"`
}

type mongoGenreWeight struct {
	Genre  string  `bson:"_id"`
	Weight float64 `bson:"weight"`
}

// MongoDB is the data storage based on MongoDB. Ratings are keyed by their
// position in the table.
type MongoDB struct {
	TablePrefix
	client *mongo.Client
	dbName string
}

// Init collections and indices in MongoDB.
func (db *MongoDB) Init() error {
	ctx := context.Background()
	d := db.client.Database(db.dbName)
	// list collections
	collections, err := d.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return errors.Trace(err)
	}
	// create collections
	for _, name := range []string{db.RatingsTable(), db.ItemsTable(), db.GenreWeightsTable()} {
		if !lo.Contains(collections, name) {
			if err = d.CreateCollection(ctx, name); err != nil {
				return errors.Trace(err)
			}
		}
	}
	// create index
	_, err = d.Collection(db.RatingsTable()).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.M{"user_id": 1},
	})
	return errors.Trace(err)
}

// Close connection to MongoDB.
func (db *MongoDB) Close() error {
	return db.client.Disconnect(context.Background())
}

func (db *MongoDB) Purge() error {
	ctx := context.Background()
	d := db.client.Database(db.dbName)
	for _, name := range []string{db.RatingsTable(), db.ItemsTable(), db.GenreWeightsTable()} {
		if _, err := d.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (db *MongoDB) LoadRatings(ctx context.Context) ([]logics.Rating, error) {
	var rows []mongoRating
	if err := db.find(ctx, db.RatingsTable(), &rows); err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(rows, func(row mongoRating, _ int) logics.Rating {
		return logics.Rating{UserId: row.UserId, ItemId: row.ItemId, Rating: row.Rating}
	}), nil
}

func (db *MongoDB) SaveRatings(ctx context.Context, ratings []logics.Rating) error {
	docs := lo.Map(ratings, func(r logics.Rating, i int) any {
		return mongoRating{Seq: i, UserId: r.UserId, ItemId: r.ItemId, Rating: r.Rating}
	})
	return db.replace(ctx, db.RatingsTable(), docs)
}

func (db *MongoDB) LoadItems(ctx context.Context) ([]logics.Item, error) {
	var rows []mongoItem
	if err := db.find(ctx, db.ItemsTable(), &rows); err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(rows, func(row mongoItem, _ int) logics.Item {
		return logics.Item{Id: row.Id, Title: row.Title, Artist: row.Artist, Genre: row.Genre}
	}), nil
}

func (db *MongoDB) SaveItems(ctx context.Context, items []logics.Item) error {
	docs := lo.Map(items, func(item logics.Item, _ int) any {
		return mongoItem{Id: item.Id, Title: item.Title, Artist: item.Artist, Genre: item.Genre}
	})
	return db.replace(ctx, db.ItemsTable(), docs)
}

func (db *MongoDB) LoadGenreWeights(ctx context.Context) (map[string]float64, error) {
	var rows []mongoGenreWeight
	if err := db.find(ctx, db.GenreWeightsTable(), &rows); err != nil {
		return nil, errors.Trace(err)
	}
	weights := make(map[string]float64, len(rows))
	for _, row := range rows {
		weights[row.Genre] = row.Weight
	}
	return weights, nil
}

func (db *MongoDB) SaveGenreWeights(ctx context.Context, weights map[string]float64) error {
	docs := make([]any, 0, len(weights))
	for genre, weight := range weights {
		docs = append(docs, mongoGenreWeight{Genre: genre, Weight: weight})
	}
	return db.replace(ctx, db.GenreWeightsTable(), docs)
}

func (db *MongoDB) find(ctx context.Context, collection string, results any) error {
	c := db.client.Database(db.dbName).Collection(collection)
	cur, err := c.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(cur.All(ctx, results))
}

func (db *MongoDB) replace(ctx context.Context, collection string, docs []any) error {
	c := db.client.Database(db.dbName).Collection(collection)
	if _, err := c.DeleteMany(ctx, bson.M{}); err != nil {
		return errors.Trace(err)
	}
	for _, chunk := range lo.Chunk(docs, 1000) {
		if _, err := c.InsertMany(ctx, chunk); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
