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
	"database/sql"

	"github.com/gorse-io/cadenza/logics"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type SQLDriver int

const (
	MySQL SQLDriver = iota
	Postgres
	SQLite
)

// SQLRating is a row of the rating table. The auto-increment id keeps the
// table order.
type SQLRating struct {
	Id     int64 `gorm:"column:id;primaryKey;autoIncrement"`
	UserId int   `gorm:"column:user_id;not null;index"`
	ItemId int   `gorm:"column:item_id;not null;index"`
	Rating int   `gorm:"column:rating;not null"`
}

type SQLItem struct {
	Id     int    `gorm:"column:id;primaryKey;autoIncrement:false"`
	Title  string `gorm:"column:title;type:text;not null"`
	Artist string `gorm:"column:artist;type:text;not null"`
	Genre  string `gorm:"column:genre;type:varchar(256);not null;index"`
}

type SQLGenreWeight struct {
	Genre  string  `gorm:"column:genre;type:varchar(256);primaryKey"`
	Weight float64 `gorm:"column:weight;not null"`
}

// SQLDatabase stores tables in MySQL, Postgres or SQLite.
type SQLDatabase struct {
	TablePrefix
	gormDB *gorm.DB
	client *sql.DB
	driver SQLDriver
}

func (d *SQLDatabase) Init() error {
	db := d.gormDB
	if d.driver == MySQL {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB")
	}
	return errors.Trace(db.AutoMigrate(&SQLRating{}, &SQLItem{}, &SQLGenreWeight{}))
}

func (d *SQLDatabase) Close() error {
	return d.client.Close()
}

func (d *SQLDatabase) Purge() error {
	tables := []string{d.RatingsTable(), d.ItemsTable(), d.GenreWeightsTable()}
	for _, table := range tables {
		if err := d.gormDB.Exec("DELETE FROM " + table).Error; err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func (d *SQLDatabase) LoadRatings(ctx context.Context) ([]logics.Rating, error) {
	var rows []SQLRating
	if err := d.gormDB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(rows, func(row SQLRating, _ int) logics.Rating {
		return logics.Rating{UserId: row.UserId, ItemId: row.ItemId, Rating: row.Rating}
	}), nil
}

func (d *SQLDatabase) SaveRatings(ctx context.Context, ratings []logics.Rating) error {
	rows := lo.Map(ratings, func(r logics.Rating, _ int) SQLRating {
		return SQLRating{UserId: r.UserId, ItemId: r.ItemId, Rating: r.Rating}
	})
	return d.replace(ctx, d.RatingsTable(), &rows, len(rows))
}

func (d *SQLDatabase) LoadItems(ctx context.Context) ([]logics.Item, error) {
	var rows []SQLItem
	if err := d.gormDB.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	return lo.Map(rows, func(row SQLItem, _ int) logics.Item {
		return logics.Item{Id: row.Id, Title: row.Title, Artist: row.Artist, Genre: row.Genre}
	}), nil
}

func (d *SQLDatabase) SaveItems(ctx context.Context, items []logics.Item) error {
	rows := lo.Map(items, func(item logics.Item, _ int) SQLItem {
		return SQLItem{Id: item.Id, Title: item.Title, Artist: item.Artist, Genre: item.Genre}
	})
	return d.replace(ctx, d.ItemsTable(), &rows, len(rows))
}

func (d *SQLDatabase) LoadGenreWeights(ctx context.Context) (map[string]float64, error) {
	var rows []SQLGenreWeight
	if err := d.gormDB.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, errors.Trace(err)
	}
	weights := make(map[string]float64, len(rows))
	for _, row := range rows {
		weights[row.Genre] = row.Weight
	}
	return weights, nil
}

func (d *SQLDatabase) SaveGenreWeights(ctx context.Context, weights map[string]float64) error {
	rows := make([]SQLGenreWeight, 0, len(weights))
	for genre, weight := range weights {
		rows = append(rows, SQLGenreWeight{Genre: genre, Weight: weight})
	}
	return d.replace(ctx, d.GenreWeightsTable(), &rows, len(rows))
}

// replace deletes every row of a table and inserts rows in one transaction.
func (d *SQLDatabase) replace(ctx context.Context, table string, rows any, n int) error {
	err := d.gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 1000).Error
	})
	return errors.Trace(err)
}
