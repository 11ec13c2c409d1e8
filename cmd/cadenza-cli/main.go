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
	"context"
	"fmt"

	"github.com/gorse-io/cadenza/base/log"
	"github.com/gorse-io/cadenza/client"
	"github.com/gorse-io/cadenza/cmd/version"
	"github.com/gorse-io/cadenza/config"
	"github.com/gorse-io/cadenza/logics"
	"github.com/gorse-io/cadenza/server"
	"github.com/gorse-io/cadenza/storage"
	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Recommender is served in process by server.Server or remotely by client.CadenzaClient.
type Recommender interface {
	ListGenres(ctx context.Context) ([]string, error)
	ListUserIds(ctx context.Context) ([]int, error)
	SimulateNewUser(ctx context.Context, genres []string) (server.SimulateResponse, error)
	SubmitFeedback(ctx context.Context, feedback server.Feedback) error
	GetRecommendations(ctx context.Context, userId, n int, metric string) ([]logics.Recommendation, error)
	GetAccuracy(ctx context.Context, request server.AccuracyRequest) (server.AccuracyResponse, error)
}

var (
	globalConfig *config.Config
	database     storage.Database
	cadenza      Recommender
)

var cliCommand = &cobra.Command{
	Use:   "cadenza-cli",
	Short: "CLI for cadenza music recommender.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == versionCommand.Name() {
			return nil
		}
		// setup logger, silent unless debugging
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			log.SetLogger(cmd.Flags(), debug)
		} else {
			log.CloseLogger()
		}
		// load config
		configPath, _ := cmd.Flags().GetString("config")
		var err error
		if globalConfig, err = config.LoadConfig(configPath); err != nil {
			return errors.Annotate(err, "failed to load config")
		}
		// connect to a remote server
		if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
			if cmd.Parent() == datasetCommand {
				return errors.NotSupportedf("dataset commands over %s", endpoint)
			}
			cadenza = client.NewCadenzaClient(endpoint)
			return nil
		}
		// connect to database
		if database, err = storage.OpenAndInit(globalConfig.Database); err != nil {
			return errors.Annotate(err, "failed to connect database")
		}
		cadenza, err = server.NewServer(globalConfig, database)
		return errors.Trace(err)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if database != nil {
			if err := database.Close(); err != nil {
				log.Logger().Error("failed to close database", zap.Error(err))
			}
		}
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Check the version of cadenza",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(cliCommand.PersistentFlags())
	cliCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	cliCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	cliCommand.PersistentFlags().StringP("endpoint", "e", "", "endpoint of a cadenza server (use the database if empty)")
	cliCommand.AddCommand(versionCommand)
}

func main() {
	if err := cliCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
