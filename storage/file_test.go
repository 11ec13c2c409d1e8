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
	"os"
	"path/filepath"
	"testing"

	"github.com/gorse-io/cadenza/config"
	"github.com/gorse-io/cadenza/logics"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type FileTestSuite struct {
	baseTestSuite
	dir string
}

func (suite *FileTestSuite) SetupSuite() {
	var err error
	suite.dir = filepath.Join(suite.T().TempDir(), "data")
	cfg := config.GetDefaultConfig().Database
	cfg.DataStore = FilePrefix + suite.dir
	suite.Database, err = Open(cfg)
	suite.NoError(err)
}

func (suite *FileTestSuite) TearDownSuite() {
	err := suite.Database.Close()
	suite.NoError(err)
}

func (suite *FileTestSuite) TestFormat() {
	ctx := context.Background()
	err := suite.Database.SaveRatings(ctx, []logics.Rating{{UserId: 1, ItemId: 2, Rating: 3}})
	suite.NoError(err)
	data, err := os.ReadFile(filepath.Join(suite.dir, "ratings.csv"))
	suite.NoError(err)
	suite.Equal("user_id,item_id,rating\n1,2,3\n", string(data))

	err = suite.Database.SaveItems(ctx, []logics.Item{{Id: 1, Title: "Hello, Goodbye", Artist: "Beatles", Genre: "Pop"}})
	suite.NoError(err)
	data, err = os.ReadFile(filepath.Join(suite.dir, "items.csv"))
	suite.NoError(err)
	suite.Equal("id,title,artist,genre\n1,\"Hello, Goodbye\",Beatles,Pop\n", string(data))
}

func (suite *FileTestSuite) TestExtraColumns() {
	ctx := context.Background()
	err := os.WriteFile(filepath.Join(suite.dir, "items.csv"),
		[]byte("\ufeffid,title,artist,genre,year\n1,Paranoid,Black Sabbath,Rock,1970\n\n2,So What,Miles Davis,Jazz,1959\n"), 0644)
	suite.NoError(err)
	items, err := suite.Database.LoadItems(ctx)
	suite.NoError(err)
	suite.Equal([]logics.Item{
		{Id: 1, Title: "Paranoid", Artist: "Black Sabbath", Genre: "Rock"},
		{Id: 2, Title: "So What", Artist: "Miles Davis", Genre: "Jazz"},
	}, items)

	err = os.WriteFile(filepath.Join(suite.dir, "ratings.csv"), []byte("rating,user_id,item_id\n4.0,1,2\n"), 0644)
	suite.NoError(err)
	ratings, err := suite.Database.LoadRatings(ctx)
	suite.NoError(err)
	suite.Equal([]logics.Rating{{UserId: 1, ItemId: 2, Rating: 4}}, ratings)
}

func (suite *FileTestSuite) TestCorrupted() {
	ctx := context.Background()
	// missing column
	err := os.WriteFile(filepath.Join(suite.dir, "ratings.csv"), []byte("user_id,item_id\n1,2\n"), 0644)
	suite.NoError(err)
	_, err = suite.Database.LoadRatings(ctx)
	suite.True(errors.IsNotValid(err))
	// bad value
	err = os.WriteFile(filepath.Join(suite.dir, "ratings.csv"), []byte("user_id,item_id,rating\n1,2,x\n"), 0644)
	suite.NoError(err)
	_, err = suite.Database.LoadRatings(ctx)
	suite.True(errors.IsNotValid(err))
	// bad json
	err = os.WriteFile(filepath.Join(suite.dir, "genre_weights.json"), []byte("{"), 0644)
	suite.NoError(err)
	_, err = suite.Database.LoadGenreWeights(ctx)
	suite.Error(err)
}

func (suite *FileTestSuite) TestMissing() {
	ctx := context.Background()
	_, err := suite.Database.LoadRatings(ctx)
	suite.Error(err)
	_, err = suite.Database.LoadItems(ctx)
	suite.Error(err)
}

func TestFile(t *testing.T) {
	suite.Run(t, new(FileTestSuite))
}

func TestParseRating(t *testing.T) {
	rating, err := parseRating("5")
	assert.NoError(t, err)
	assert.Equal(t, 5, rating)
	rating, err = parseRating("3.0")
	assert.NoError(t, err)
	assert.Equal(t, 3, rating)
	_, err = parseRating("3.5")
	assert.Error(t, err)
	_, err = parseRating("")
	assert.Error(t, err)
}
