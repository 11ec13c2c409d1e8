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
	"os"
	"os/signal"

	"github.com/gorse-io/cadenza/base/log"
	"github.com/gorse-io/cadenza/cmd/version"
	"github.com/gorse-io/cadenza/config"
	"github.com/gorse-io/cadenza/server"
	"github.com/gorse-io/cadenza/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serverCommand = &cobra.Command{
	Use:   "cadenza-server",
	Short: "The REST server of cadenza music recommender.",
	Run: func(cmd *cobra.Command, args []string) {
		// show version
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)

		// load config
		configPath, _ := cmd.PersistentFlags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		if cmd.PersistentFlags().Changed("http-host") {
			conf.Server.Host, _ = cmd.PersistentFlags().GetString("http-host")
		}
		if cmd.PersistentFlags().Changed("http-port") {
			conf.Server.Port, _ = cmd.PersistentFlags().GetInt("http-port")
		}

		// connect to database
		database, err := storage.OpenAndInit(conf.Database)
		if err != nil {
			log.Logger().Fatal("failed to connect database", zap.Error(err))
		}
		s, err := server.NewServer(conf, database)
		if err != nil {
			log.Logger().Fatal("failed to create server", zap.Error(err))
		}

		// close database on interrupt
		go func() {
			sigint := make(chan os.Signal, 1)
			signal.Notify(sigint, os.Interrupt)
			<-sigint
			if err := database.Close(); err != nil {
				log.Logger().Error("failed to close database", zap.Error(err))
			}
			log.Logger().Info("stop cadenza-server successfully")
			os.Exit(0)
		}()
		log.Logger().Fatal("failed to start http server", zap.Error(s.StartHttpServer()))
	},
}

func init() {
	log.AddFlags(serverCommand.PersistentFlags())
	serverCommand.PersistentFlags().BoolP("version", "v", false, "cadenza version")
	serverCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	serverCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	serverCommand.PersistentFlags().String("http-host", "127.0.0.1", "host of RESTful API")
	serverCommand.PersistentFlags().Int("http-port", 8087, "port of RESTful API")
}

func main() {
	if err := serverCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
