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
	"strings"
	"time"

	"github.com/gorse-io/cadenza/base/log"
	"github.com/gorse-io/cadenza/config"
	"github.com/gorse-io/cadenza/logics"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"moul.io/zapgorm2"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Database stores the rating table, the catalog and the genre weights. Every
// save replaces the whole table.
type Database interface {
	Init() error
	Close() error
	Purge() error
	LoadRatings(ctx context.Context) ([]logics.Rating, error)
	SaveRatings(ctx context.Context, ratings []logics.Rating) error
	LoadItems(ctx context.Context) ([]logics.Item, error)
	SaveItems(ctx context.Context, items []logics.Item) error
	// LoadGenreWeights returns an empty mapping if no weight has been saved.
	LoadGenreWeights(ctx context.Context) (map[string]float64, error)
	SaveGenreWeights(ctx context.Context, weights map[string]float64) error
}

// Open a connection to a database.
func Open(cfg config.DatabaseConfig) (Database, error) {
	var err error
	path, tablePrefix := cfg.DataStore, cfg.TablePrefix
	if strings.HasPrefix(path, FilePrefix) {
		return &File{
			dir:              path[len(FilePrefix):],
			ratingsFile:      cfg.RatingsFile,
			itemsFile:        cfg.ItemsFile,
			genreWeightsFile: cfg.GenreWeightsFile,
		}, nil
	} else if strings.HasPrefix(path, MySQLPrefix) {
		name := path[len(MySQLPrefix):]
		if name, err = AppendMySQLParams(name, map[string]string{
			"sql_mode": "'ONLY_FULL_GROUP_BY,STRICT_TRANS_TABLES,ERROR_FOR_DIVISION_BY_ZERO,NO_ENGINE_SUBSTITUTION'",
		}); err != nil {
			return nil, errors.Trace(err)
		}
		database := new(SQLDatabase)
		database.driver = MySQL
		database.TablePrefix = TablePrefix(tablePrefix)
		if database.client, err = sql.Open("mysql", name); err != nil {
			return nil, errors.Trace(err)
		}
		database.gormDB, err = gorm.Open(mysql.New(mysql.Config{Conn: database.client}), NewGORMConfig(tablePrefix))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, PostgresPrefix) || strings.HasPrefix(path, PostgreSQLPrefix) {
		database := new(SQLDatabase)
		database.driver = Postgres
		database.TablePrefix = TablePrefix(tablePrefix)
		if database.client, err = sql.Open("postgres", path); err != nil {
			return nil, errors.Trace(err)
		}
		database.gormDB, err = gorm.Open(postgres.New(postgres.Config{Conn: database.client}), NewGORMConfig(tablePrefix))
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, SQLitePrefix) {
		// append parameters
		if path, err = AppendURLParams(path, []lo.Tuple2[string, string]{
			{A: "_pragma", B: "busy_timeout(10000)"},
			{A: "_pragma", B: "journal_mode(wal)"},
		}); err != nil {
			return nil, errors.Trace(err)
		}
		// connect to database
		name := path[len(SQLitePrefix):]
		database := new(SQLDatabase)
		database.driver = SQLite
		database.TablePrefix = TablePrefix(tablePrefix)
		if database.client, err = sql.Open("sqlite", name); err != nil {
			return nil, errors.Trace(err)
		}
		gormConfig := NewGORMConfig(tablePrefix)
		gormConfig.Logger = &zapgorm2.Logger{
			ZapLogger:                 log.Logger(),
			LogLevel:                  logger.Warn,
			SlowThreshold:             10 * time.Second,
			SkipCallerLookup:          false,
			IgnoreRecordNotFoundError: false,
		}
		database.gormDB, err = gorm.Open(sqlite.Dialector{Conn: database.client}, gormConfig)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return database, nil
	} else if strings.HasPrefix(path, RedisPrefix) || strings.HasPrefix(path, RedissPrefix) {
		opt, err := redis.ParseURL(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		database := new(Redis)
		database.client = redis.NewClient(opt)
		database.TablePrefix = TablePrefix(tablePrefix)
		return database, nil
	} else if strings.HasPrefix(path, MongoPrefix) || strings.HasPrefix(path, MongoSrvPrefix) {
		// connect to database
		database := new(MongoDB)
		if database.client, err = mongo.Connect(context.Background(), options.Client().ApplyURI(path)); err != nil {
			return nil, errors.Trace(err)
		}
		// parse DSN and extract database name
		if cs, err := connstring.ParseAndValidate(path); err != nil {
			return nil, errors.Trace(err)
		} else {
			database.dbName = cs.Database
			database.TablePrefix = TablePrefix(tablePrefix)
		}
		return database, nil
	}
	return nil, errors.Errorf("Unknown database: %s", log.RedactDBURL(path))
}

// OpenAndInit opens a database and creates its tables.
func OpenAndInit(cfg config.DatabaseConfig) (Database, error) {
	database, err := Open(cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err = database.Init(); err != nil {
		_ = database.Close()
		return nil, errors.Trace(err)
	}
	log.Logger().Info("connect to database", zap.String("database", log.RedactDBURL(cfg.DataStore)))
	return database, nil
}
