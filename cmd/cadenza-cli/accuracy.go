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

	"github.com/gorse-io/cadenza/server"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func init() {
	accuracyCommand.Flags().Int("user-id", 0, "evaluate a single user")
	accuracyCommand.Flags().Int("n-recommend", 0, "number of recommendations (default from config)")
	accuracyCommand.Flags().Float64("test-frac", 0, "fraction of liked items held out (default from config)")
	accuracyCommand.Flags().Int("max-users", 0, "maximum number of sampled users (default from config)")
	accuracyCommand.Flags().StringP("metric", "m", "", "similarity metric: pearson or cosine")
	cliCommand.AddCommand(accuracyCommand)
}

var accuracyCommand = &cobra.Command{
	Use:   "accuracy",
	Short: "Evaluate the hit rate of recommendations on held-out liked items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var request server.AccuracyRequest
		if cmd.Flags().Changed("user-id") {
			userId, _ := cmd.Flags().GetInt("user-id")
			request.UserId = &userId
		}
		request.NRecommend, _ = cmd.Flags().GetInt("n-recommend")
		request.TestFraction, _ = cmd.Flags().GetFloat64("test-frac")
		request.MaxUsers, _ = cmd.Flags().GetInt("max-users")
		request.Metric, _ = cmd.Flags().GetString("metric")
		var bar *progressbar.ProgressBar
		if request.UserId == nil {
			request.Progress = func(done, total int) {
				if bar == nil {
					bar = progressbar.Default(int64(total), "Evaluating users")
				}
				_ = bar.Set(done)
			}
		}

		result, err := cadenza.GetAccuracy(cmd.Context(), request)
		if err != nil {
			return errors.Trace(err)
		}
		table := tablewriter.NewWriter(os.Stdout)
		if result.User != nil {
			table.Header([]string{"user_id", "hits", "recommended", "accuracy", "reason"})
			err = table.Append([]string{
				strconv.Itoa(result.User.UserId),
				strconv.Itoa(result.User.Hits),
				strconv.Itoa(result.User.Recommended),
				formatAccuracy(result.User.Accuracy),
				result.User.Reason,
			})
		} else {
			table.Header([]string{"mean_accuracy", "n_users_evaluated", "max_users"})
			err = table.Append([]string{
				formatAccuracy(result.Aggregate.MeanAccuracy),
				strconv.Itoa(result.Aggregate.NUsersEvaluated),
				strconv.Itoa(result.Aggregate.MaxUsers),
			})
		}
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(table.Render())
	},
}

func formatAccuracy(accuracy *float64) string {
	if accuracy == nil {
		return "-"
	}
	return strconv.FormatFloat(lo.FromPtr(accuracy), 'f', 4, 64)
}
