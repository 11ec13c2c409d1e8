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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestUnmarshal(t *testing.T) {
	data, err := os.ReadFile("config.toml.template")
	assert.NoError(t, err)
	text := string(data)
	text = strings.Replace(text, "data_store = \"file://data\"", "data_store = \"redis://localhost:6379/0\"", -1)
	text = strings.Replace(text, "metric = \"cosine\"", "metric = \"pearson\"", -1)
	v := viper.New()
	v.SetConfigType("toml")
	err = v.ReadConfig(strings.NewReader(text))
	assert.NoError(t, err)
	var config Config
	err = v.Unmarshal(&config)
	assert.NoError(t, err)

	// [database]
	assert.Equal(t, "redis://localhost:6379/0", config.Database.DataStore)
	assert.Equal(t, "", config.Database.TablePrefix)
	assert.Equal(t, "ratings.csv", config.Database.RatingsFile)
	assert.Equal(t, "items.csv", config.Database.ItemsFile)
	assert.Equal(t, "genre_weights.json", config.Database.GenreWeightsFile)
	// [recommend]
	assert.Equal(t, 10, config.Recommend.DefaultN)
	assert.Equal(t, "pearson", config.Recommend.Metric)
	assert.Equal(t, 3000, config.Recommend.MaxItemsToCheck)
	assert.Equal(t, 0.05, config.Recommend.BoostCap)
	assert.Equal(t, 0.5, config.Recommend.SurpriseScore)
	assert.Equal(t, 4, config.Recommend.LikedThreshold)
	assert.Equal(t, 2, config.Recommend.ColdStartLiked)
	assert.Equal(t, int64(0), config.Recommend.Seed)
	// [feedback]
	assert.Equal(t, 0.9, config.Feedback.Decay)
	assert.Equal(t, 0.02, config.Feedback.Step)
	// [evaluate]
	assert.Equal(t, 10, config.Evaluate.NRecommend)
	assert.Equal(t, 0.3, config.Evaluate.TestFraction)
	assert.Equal(t, 20, config.Evaluate.MaxUsers)
	assert.Equal(t, 100, config.Evaluate.MinCandidates)
	assert.Equal(t, 0, config.Evaluate.MaxItemsToCheck)
	assert.Equal(t, 4, config.Evaluate.LikedThreshold)
	// [simulate]
	assert.Equal(t, 5, config.Simulate.ItemsPerGenre)
	assert.Equal(t, 0.05, config.Simulate.InitialWeight)
	assert.Equal(t, int64(42), config.Simulate.Seed)
	// [server]
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 8087, config.Server.Port)
}

func TestSetDefault(t *testing.T) {
	v := viper.New()
	setDefault(v)
	v.SetConfigType("toml")
	err := v.ReadConfig(strings.NewReader(""))
	assert.NoError(t, err)
	var config Config
	err = v.Unmarshal(&config)
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), &config)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(path, []byte("[recommend]\ndefault_n = 20\n[feedback]\ndecay = 0.8\n"), 0644)
	assert.NoError(t, err)
	config, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, 20, config.Recommend.DefaultN)
	assert.Equal(t, 0.8, config.Feedback.Decay)
	// untouched keys keep defaults
	assert.Equal(t, 0.02, config.Feedback.Step)
	assert.Equal(t, "file://data", config.Database.DataStore)

	// missing file
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	// no file
	config, err = LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)
}

func TestBindEnv(t *testing.T) {
	variables := []struct {
		key   string
		value string
	}{
		{"CADENZA_DATA_STORE", "sqlite:///tmp/cadenza.db"},
		{"CADENZA_TABLE_PREFIX", "cadenza_"},
		{"CADENZA_METRIC", "pearson"},
		{"CADENZA_SEED", "7"},
		{"CADENZA_SERVER_HOST", "0.0.0.0"},
		{"CADENZA_SERVER_PORT", "9000"},
	}
	for _, variable := range variables {
		t.Setenv(variable.key, variable.value)
	}

	config, err := LoadConfig("config.toml.template")
	assert.NoError(t, err)
	assert.Equal(t, "sqlite:///tmp/cadenza.db", config.Database.DataStore)
	assert.Equal(t, "cadenza_", config.Database.TablePrefix)
	assert.Equal(t, "pearson", config.Recommend.Metric)
	assert.Equal(t, int64(7), config.Recommend.Seed)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 9000, config.Server.Port)
}

func TestValidate(t *testing.T) {
	config := GetDefaultConfig()
	assert.NoError(t, config.Validate())

	config = GetDefaultConfig()
	config.Recommend.Metric = "jaccard"
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Recommend.Metric = "cossin"
	assert.NoError(t, config.Validate())

	config = GetDefaultConfig()
	config.Evaluate.TestFraction = 0
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Evaluate.TestFraction = 1.5
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Feedback.Decay = 1.1
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Recommend.LikedThreshold = 6
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Database.DataStore = ""
	assert.Error(t, config.Validate())

	config = GetDefaultConfig()
	config.Server.Port = 70000
	assert.Error(t, config.Validate())
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	err := os.WriteFile(path, []byte("[recommend]\nmetric = \"jaccard\"\n"), 0644)
	assert.NoError(t, err)
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
