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


package main

import (
	"fmt"

	"github.com/gorse-io/cadenza/base"
	"github.com/gorse-io/cadenza/common/datautil"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
)

func init() {
	densifyCommand.Flags().Int("users", 500, "number of most active users to keep")
	expandCommand.Flags().Int("users", 1000, "number of synthetic users to append")
	expandCommand.Flags().Int("max-ratings", 5, "maximum number of ratings per synthetic user")
	expandCommand.Flags().Int64("seed", 0, "random seed (0 means time-based)")
	fillCommand.Flags().Int("rows", 10000, "target number of rows of the rating table")
	fillCommand.Flags().Int64("seed", 0, "random seed (0 means time-based)")
	datasetCommand.AddCommand(densifyCommand, expandCommand, fillCommand)
	cliCommand.AddCommand(datasetCommand)
}

var datasetCommand = &cobra.Command{
	Use:   "dataset",
	Short: "Maintain the rating table",
}

var densifyCommand = &cobra.Command{
	Use:   "densify",
	Short: "Keep only the most active users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		users, _ := cmd.Flags().GetInt("users")
		ratings, err := database.LoadRatings(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		densified := datautil.Densify(ratings, users)
		if err = database.SaveRatings(cmd.Context(), densified); err != nil {
			return errors.Trace(err)
		}
		fmt.Printf("Rows: %d -> %d\n", len(ratings), len(densified))
		return nil
	},
}

var expandCommand = &cobra.Command{
	Use:   "expand",
	Short: "Append synthetic users with random ratings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		users, _ := cmd.Flags().GetInt("users")
		maxRatings, _ := cmd.Flags().GetInt("max-ratings")
		seed, _ := cmd.Flags().GetInt64("seed")
		ratings, err := database.LoadRatings(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		items, err := database.LoadItems(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		expanded, err := datautil.Expand(ratings, items, users, maxRatings, base.NewRandomGenerator(seed))
		if err != nil {
			return errors.Trace(err)
		}
		if err = database.SaveRatings(cmd.Context(), expanded); err != nil {
			return errors.Trace(err)
		}
		fmt.Printf("Rows: %d -> %d\n", len(ratings), len(expanded))
		return nil
	},
}

var fillCommand = &cobra.Command{
	Use:   "fill",
	Short: "Add random ratings to existing users until the table reaches a size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, _ := cmd.Flags().GetInt("rows")
		seed, _ := cmd.Flags().GetInt64("seed")
		ratings, err := database.LoadRatings(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		items, err := database.LoadItems(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		filled, err := datautil.Fill(ratings, items, rows, base.NewRandomGenerator(seed))
		if err != nil {
			return errors.Trace(err)
		}
		if err = database.SaveRatings(cmd.Context(), filled); err != nil {
			return errors.Trace(err)
		}
		fmt.Printf("Rows: %d -> %d\n", len(ratings), len(filled))
		return nil
	},
}
