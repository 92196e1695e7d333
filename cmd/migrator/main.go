// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package main

import (
	"flag"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"

	"github.com/mattermost/rda-coordinator/server"
	"github.com/mattermost/rda-coordinator/store"
)

var (
	configFile     string
	migrateVersion int
)

func init() {
	flag.StringVar(&configFile, "config", "config-coordinator.json", "")
	flag.IntVar(&migrateVersion, "migration_version", -1, "Specify the target version to migrate to. Defaults to the latest.")
}

func main() {
	flag.Parse()

	config, err := server.GetConfig(configFile)
	if err != nil {
		mlog.Error("unable to load server config", mlog.Err(err), mlog.String("file", configFile))
		os.Exit(1)
	}
	if err = server.SetupLogging(config); err != nil {
		mlog.Error("unable to configure logging", mlog.Err(err))
		os.Exit(1)
	}
	if config.DataSource == "" {
		mlog.Error("DataSource is not configured, nothing to migrate")
		os.Exit(1)
	}

	db, err := sqlx.Connect(config.DriverName, config.DataSource)
	if err != nil {
		mlog.Error("Failed to connect to the database", mlog.Err(err))
		os.Exit(1)
	}
	defer db.Close()

	if err = store.Migrate(db, migrateVersion); err != nil {
		mlog.Error("Failed to run migrations", mlog.Err(err))
		os.Exit(1)
	}
	mlog.Info("Migrations applied", mlog.Int("version", migrateVersion))
}
