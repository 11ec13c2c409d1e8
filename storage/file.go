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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorse-io/cadenza/base"
	"github.com/gorse-io/cadenza/logics"
	"github.com/juju/errors"
)

// File stores tables as csv files and genre weights as a json object in a
// directory. Files are replaced atomically on save.
type File struct {
	dir              string
	ratingsFile      string
	itemsFile        string
	genreWeightsFile string
}

func (f *File) Init() error {
	return errors.Trace(os.MkdirAll(f.dir, os.ModePerm))
}

func (f *File) Close() error {
	return nil
}

func (f *File) Purge() error {
	for _, name := range []string{f.ratingsFile, f.itemsFile, f.genreWeightsFile} {
		if err := os.Remove(filepath.Join(f.dir, name)); err != nil && !os.IsNotExist(err) {
			return errors.Trace(err)
		}
	}
	return nil
}

// LoadRatings reads columns user_id, item_id and rating. A missing file is an error.
func (f *File) LoadRatings(_ context.Context) ([]logics.Rating, error) {
	var ratings []logics.Rating
	err := f.readCSV(f.ratingsFile, []string{"user_id", "item_id", "rating"}, func(lineNumber int, values map[string]string) error {
		userId, err := strconv.Atoi(values["user_id"])
		if err != nil {
			return errors.NotValidf("user_id %q at line %d", values["user_id"], lineNumber)
		}
		itemId, err := strconv.Atoi(values["item_id"])
		if err != nil {
			return errors.NotValidf("item_id %q at line %d", values["item_id"], lineNumber)
		}
		rating, err := parseRating(values["rating"])
		if err != nil {
			return errors.NotValidf("rating %q at line %d", values["rating"], lineNumber)
		}
		ratings = append(ratings, logics.Rating{UserId: userId, ItemId: itemId, Rating: rating})
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return ratings, nil
}

func (f *File) SaveRatings(_ context.Context, ratings []logics.Rating) error {
	return f.writeFile(f.ratingsFile, func(w *bufio.Writer) error {
		if _, err := w.WriteString("user_id,item_id,rating\n"); err != nil {
			return err
		}
		for _, r := range ratings {
			if _, err := fmt.Fprintf(w, "%d,%d,%d\n", r.UserId, r.ItemId, r.Rating); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadItems reads columns id, title, artist and genre. Other columns are ignored.
func (f *File) LoadItems(_ context.Context) ([]logics.Item, error) {
	var items []logics.Item
	err := f.readCSV(f.itemsFile, []string{"id", "title", "artist", "genre"}, func(lineNumber int, values map[string]string) error {
		id, err := strconv.Atoi(values["id"])
		if err != nil {
			return errors.NotValidf("id %q at line %d", values["id"], lineNumber)
		}
		items = append(items, logics.Item{
			Id:     id,
			Title:  values["title"],
			Artist: values["artist"],
			Genre:  values["genre"],
		})
		return nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return items, nil
}

func (f *File) SaveItems(_ context.Context, items []logics.Item) error {
	return f.writeFile(f.itemsFile, func(w *bufio.Writer) error {
		if _, err := w.WriteString("id,title,artist,genre\n"); err != nil {
			return err
		}
		for _, item := range items {
			if _, err := fmt.Fprintf(w, "%d,%s,%s,%s\n", item.Id,
				base.Escape(item.Title), base.Escape(item.Artist), base.Escape(item.Genre)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (f *File) LoadGenreWeights(_ context.Context) (map[string]float64, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, f.genreWeightsFile))
	if os.IsNotExist(err) {
		return map[string]float64{}, nil
	} else if err != nil {
		return nil, errors.Trace(err)
	}
	weights := make(map[string]float64)
	if err = json.Unmarshal(data, &weights); err != nil {
		return nil, errors.Annotatef(err, "failed to parse %s", f.genreWeightsFile)
	}
	return weights, nil
}

func (f *File) SaveGenreWeights(_ context.Context, weights map[string]float64) error {
	return f.writeFile(f.genreWeightsFile, func(w *bufio.Writer) error {
		if weights == nil {
			weights = map[string]float64{}
		}
		return json.NewEncoder(w).Encode(weights)
	})
}

// readCSV reads a csv file with a header line and calls handler with the named
// columns of each row. Blank lines are skipped.
func (f *File) readCSV(name string, columns []string, handler func(lineNumber int, values map[string]string) error) error {
	file, err := os.Open(filepath.Join(f.dir, name))
	if err != nil {
		return errors.Trace(err)
	}
	defer file.Close()
	var (
		index      map[string]int
		handlerErr error
	)
	err = base.ReadLines(bufio.NewScanner(file), ",", func(lineNumber int, fields []string) bool {
		if lineNumber == 0 {
			index, handlerErr = base.ColumnIndex(fields, columns...)
			return handlerErr == nil
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return true
		}
		values := make(map[string]string, len(columns))
		for _, column := range columns {
			if index[column] >= len(fields) {
				handlerErr = errors.NotValidf("line %d in %s", lineNumber+1, name)
				return false
			}
			values[column] = strings.TrimSpace(fields[index[column]])
		}
		handlerErr = handler(lineNumber+1, values)
		return handlerErr == nil
	})
	if err != nil {
		return errors.Trace(err)
	}
	if handlerErr != nil {
		return errors.Trace(handlerErr)
	}
	if index == nil {
		return errors.NotValidf("%s without header", name)
	}
	return nil
}

// writeFile writes to a temporary file and renames it over the target.
func (f *File) writeFile(name string, write func(w *bufio.Writer) error) error {
	if err := os.MkdirAll(f.dir, os.ModePerm); err != nil {
		return errors.Trace(err)
	}
	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return errors.Trace(err)
	}
	defer os.Remove(tmp.Name())
	w := bufio.NewWriter(tmp)
	if err = write(w); err != nil {
		_ = tmp.Close()
		return errors.Trace(err)
	}
	if err = w.Flush(); err != nil {
		_ = tmp.Close()
		return errors.Trace(err)
	}
	if err = tmp.Close(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.Rename(tmp.Name(), filepath.Join(f.dir, name)))
}

// parseRating accepts integers and integral floats such as "4.0".
func parseRating(s string) (int, error) {
	if rating, err := strconv.Atoi(s); err == nil {
		return rating, nil
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if value != float64(int(value)) {
		return 0, errors.NotValidf("rating %v", value)
	}
	return int(value), nil
}
