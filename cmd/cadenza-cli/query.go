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
	"os"
	"strconv"

	"github.com/gorse-io/cadenza/logics"
	"github.com/gorse-io/cadenza/server"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	recommendCommand.Flags().Int("n", 0, "number of recommendations (default from config)")
	recommendCommand.Flags().StringP("metric", "m", "", "similarity metric: pearson or cosine")
	cliCommand.AddCommand(genresCommand, usersCommand, recommendCommand, feedbackCommand, simulateCommand)
}

var genresCommand = &cobra.Command{
	Use:   "genres",
	Short: "List genres in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		genres, err := cadenza.ListGenres(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"genre"})
		for _, genre := range genres {
			if err = table.Append([]string{genre}); err != nil {
				return errors.Trace(err)
			}
		}
		return errors.Trace(table.Render())
	},
}

var usersCommand = &cobra.Command{
	Use:   "users",
	Short: "List users who rated items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := cadenza.ListUserIds(cmd.Context())
		if err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"user_id"})
		for _, userId := range users {
			if err = table.Append([]string{strconv.Itoa(userId)}); err != nil {
				return errors.Trace(err)
			}
		}
		return errors.Trace(table.Render())
	},
}

var recommendCommand = &cobra.Command{
	Use:   "recommend <user-id>",
	Short: "Recommend items to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userId, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.NotValidf("user id %q", args[0])
		}
		n, _ := cmd.Flags().GetInt("n")
		if !cmd.Flags().Changed("n") {
			n = globalConfig.Recommend.DefaultN
		}
		metric, _ := cmd.Flags().GetString("metric")
		recommendations, err := cadenza.GetRecommendations(cmd.Context(), userId, n, metric)
		if err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"item_id", "title", "artist", "genre", "score", "base_pred"})
		err = table.Bulk(lo.Map(recommendations, func(r logics.Recommendation, _ int) []string {
			return []string{
				strconv.Itoa(r.ItemId),
				r.Title,
				r.Artist,
				r.Genre,
				strconv.FormatFloat(r.Score, 'f', 4, 64),
				strconv.FormatFloat(r.BasePrediction, 'f', 4, 64),
			}
		}))
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(table.Render())
	},
}

var feedbackCommand = &cobra.Command{
	Use:   "feedback <user-id> <item-id> <rating>",
	Short: "Rate an item and adapt genre weights",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		values := make([]int, len(args))
		for i, arg := range args {
			var err error
			if values[i], err = strconv.Atoi(arg); err != nil {
				return errors.NotValidf("argument %q", arg)
			}
		}
		return errors.Trace(cadenza.SubmitFeedback(cmd.Context(), server.Feedback{
			UserId: values[0],
			ItemId: values[1],
			Rating: values[2],
		}))
	},
}

var simulateCommand = &cobra.Command{
	Use:   "simulate <genre>...",
	Short: "Create a user who loves the given genres",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := cadenza.SimulateNewUser(cmd.Context(), args)
		if err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"user_id", "status"})
		if err = table.Append([]string{strconv.Itoa(result.UserId), result.Status}); err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(table.Render())
	},
}
