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

package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

// Config is the configuration for cadenza.
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Recommend RecommendConfig `mapstructure:"recommend"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
	Evaluate  EvaluateConfig  `mapstructure:"evaluate"`
	Simulate  SimulateConfig  `mapstructure:"simulate"`
	Server    ServerConfig    `mapstructure:"server"`
}

// DatabaseConfig locates the rating table, the catalog and the genre weights.
// The file names are used by the file:// store only.
type DatabaseConfig struct {
	DataStore        string `mapstructure:"data_store" validate:"required"`
	TablePrefix      string `mapstructure:"table_prefix"`
	RatingsFile      string `mapstructure:"ratings_file" validate:"required"`
	ItemsFile        string `mapstructure:"items_file" validate:"required"`
	GenreWeightsFile string `mapstructure:"genre_weights_file" validate:"required"`
}

type RecommendConfig struct {
	DefaultN        int     `mapstructure:"default_n" validate:"gt=0"`
	Metric          string  `mapstructure:"metric" validate:"oneof=pearson cosine cossin"`
	MaxItemsToCheck int     `mapstructure:"max_items_to_check" validate:"gte=0"`
	BoostCap        float64 `mapstructure:"boost_cap" validate:"gte=0,lte=1"`
	SurpriseScore   float64 `mapstructure:"surprise_score"`
	LikedThreshold  int     `mapstructure:"liked_threshold" validate:"gte=1,lte=5"`
	// ColdStartLiked is the largest number of liked ratings that still counts as cold start.
	ColdStartLiked int   `mapstructure:"cold_start_liked" validate:"gte=0"`
	Seed           int64 `mapstructure:"seed"`
}

// FeedbackConfig controls the genre weight update: w = w*decay ± |rating-3|*step.
type FeedbackConfig struct {
	Decay float64 `mapstructure:"decay" validate:"gte=0,lte=1"`
	Step  float64 `mapstructure:"step" validate:"gte=0,lte=1"`
}

type EvaluateConfig struct {
	NRecommend      int     `mapstructure:"n_recommend" validate:"gt=0"`
	TestFraction    float64 `mapstructure:"test_fraction" validate:"gt=0,lte=1"`
	MaxUsers        int     `mapstructure:"max_users" validate:"gt=0"`
	MinCandidates   int     `mapstructure:"min_candidates" validate:"gte=0"`
	MaxItemsToCheck int     `mapstructure:"max_items_to_check" validate:"gte=0"`
	LikedThreshold  int     `mapstructure:"liked_threshold" validate:"gte=1,lte=5"`
	Seed            int64   `mapstructure:"seed"`
}

type SimulateConfig struct {
	ItemsPerGenre int     `mapstructure:"items_per_genre" validate:"gt=0"`
	InitialWeight float64 `mapstructure:"initial_weight" validate:"gte=0,lte=1"`
	Seed          int64   `mapstructure:"seed"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"gte=0,lte=65535"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DataStore:        "file://data",
			RatingsFile:      "ratings.csv",
			ItemsFile:        "items.csv",
			GenreWeightsFile: "genre_weights.json",
		},
		Recommend: RecommendConfig{
			DefaultN:        10,
			Metric:          "cosine",
			MaxItemsToCheck: 3000,
			BoostCap:        0.05,
			SurpriseScore:   0.5,
			LikedThreshold:  4,
			ColdStartLiked:  2,
		},
		Feedback: FeedbackConfig{
			Decay: 0.9,
			Step:  0.02,
		},
		Evaluate: EvaluateConfig{
			NRecommend:     10,
			TestFraction:   0.3,
			MaxUsers:       20,
			MinCandidates:  100,
			LikedThreshold: 4,
		},
		Simulate: SimulateConfig{
			ItemsPerGenre: 5,
			InitialWeight: 0.05,
			Seed:          42,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8087,
		},
	}
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [database]
	v.SetDefault("database.data_store", defaultConfig.Database.DataStore)
	v.SetDefault("database.ratings_file", defaultConfig.Database.RatingsFile)
	v.SetDefault("database.items_file", defaultConfig.Database.ItemsFile)
	v.SetDefault("database.genre_weights_file", defaultConfig.Database.GenreWeightsFile)
	// [recommend]
	v.SetDefault("recommend.default_n", defaultConfig.Recommend.DefaultN)
	v.SetDefault("recommend.metric", defaultConfig.Recommend.Metric)
	v.SetDefault("recommend.max_items_to_check", defaultConfig.Recommend.MaxItemsToCheck)
	v.SetDefault("recommend.boost_cap", defaultConfig.Recommend.BoostCap)
	v.SetDefault("recommend.surprise_score", defaultConfig.Recommend.SurpriseScore)
	v.SetDefault("recommend.liked_threshold", defaultConfig.Recommend.LikedThreshold)
	v.SetDefault("recommend.cold_start_liked", defaultConfig.Recommend.ColdStartLiked)
	// [feedback]
	v.SetDefault("feedback.decay", defaultConfig.Feedback.Decay)
	v.SetDefault("feedback.step", defaultConfig.Feedback.Step)
	// [evaluate]
	v.SetDefault("evaluate.n_recommend", defaultConfig.Evaluate.NRecommend)
	v.SetDefault("evaluate.test_fraction", defaultConfig.Evaluate.TestFraction)
	v.SetDefault("evaluate.max_users", defaultConfig.Evaluate.MaxUsers)
	v.SetDefault("evaluate.min_candidates", defaultConfig.Evaluate.MinCandidates)
	v.SetDefault("evaluate.liked_threshold", defaultConfig.Evaluate.LikedThreshold)
	// [simulate]
	v.SetDefault("simulate.items_per_genre", defaultConfig.Simulate.ItemsPerGenre)
	v.SetDefault("simulate.initial_weight", defaultConfig.Simulate.InitialWeight)
	v.SetDefault("simulate.seed", defaultConfig.Simulate.Seed)
	// [server]
	v.SetDefault("server.host", defaultConfig.Server.Host)
	v.SetDefault("server.port", defaultConfig.Server.Port)
}

type configBinding struct {
	key string
	env string
}

// LoadConfig loads configuration from toml file. Environment variables take
// precedence over the file. An empty path loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)

	bindings := []configBinding{
		{"database.data_store", "CADENZA_DATA_STORE"},
		{"database.table_prefix", "CADENZA_TABLE_PREFIX"},
		{"recommend.metric", "CADENZA_METRIC"},
		{"recommend.seed", "CADENZA_SEED"},
		{"server.host", "CADENZA_SERVER_HOST"},
		{"server.port", "CADENZA_SERVER_PORT"},
	}
	for _, binding := range bindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, errors.Trace(err)
		}
	}

	if path != "" {
		v.SetConfigType("toml")
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

func (config *Config) Validate() error {
	validate := validator.New()
	return validate.Struct(config)
}
