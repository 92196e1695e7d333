// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"

	"github.com/mattermost/rda-coordinator/metrics"
	"github.com/mattermost/rda-coordinator/server"
	"github.com/mattermost/rda-coordinator/version"
)

var (
	configFile string
)

func init() {
	flag.StringVar(&configFile, "config", "config-coordinator.json", "")
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

	metricsProvider := metrics.NewPrometheusProvider()
	metricsServer := metrics.NewServer(config.MetricsServerPort, metricsProvider.Handler(), config.EnablePprof)
	metricsServer.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsServer.Stop(ctx)
	}()

	mlog.Info("Loaded config", mlog.String("filename", configFile), mlog.String("version", version.Full().String()))
	s, err := server.New(config, metricsProvider)
	if err != nil {
		mlog.Error("unable to start server", mlog.Err(err))
		return
	}

	s.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if err = s.Stop(); err != nil {
		mlog.Error("error while shutting down server", mlog.Err(err))
	}
	mlog.Info("Stopped RDA coordinator")
}
