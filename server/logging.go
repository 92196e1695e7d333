// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"
)

const (
	logFilename     = "rda-coordinator.log"
	logMaxQueueSize = 1000
)

// SetupLogging replaces the global logger with one writing to the targets
// enabled in the log settings.
func SetupLogging(config *Config) error {
	cfg, err := loggerConfiguration(config.LogSettings)
	if err != nil {
		return err
	}

	logger, err := mlog.NewLogger()
	if err != nil {
		return errors.Wrap(err, "unable to create logger")
	}
	if err = logger.ConfigureTargets(cfg, nil); err != nil {
		return errors.Wrap(err, "unable to configure log targets")
	}

	mlog.InitGlobalLogger(logger)
	return nil
}

func loggerConfiguration(settings LogSettings) (mlog.LoggerConfiguration, error) {
	cfg := mlog.LoggerConfiguration{}

	if settings.EnableConsole {
		options, err := json.Marshal(map[string]string{"out": "stdout"})
		if err != nil {
			return nil, err
		}
		cfg["console"] = mlog.TargetCfg{
			Type:         "console",
			Options:      options,
			Format:       logFormat(settings.ConsoleJSON),
			Levels:       logLevels(settings.ConsoleLevel),
			MaxQueueSize: logMaxQueueSize,
		}
	}

	if settings.EnableFile {
		options, err := json.Marshal(map[string]interface{}{
			"filename": getLogFileLocation(settings.FileLocation),
			"max_size": 100,
			"max_age":  14,
			"compress": true,
		})
		if err != nil {
			return nil, err
		}
		cfg["file"] = mlog.TargetCfg{
			Type:         "file",
			Options:      options,
			Format:       logFormat(settings.FileJSON),
			Levels:       logLevels(settings.FileLevel),
			MaxQueueSize: logMaxQueueSize,
		}
	}

	return cfg, nil
}

func getLogFileLocation(fileLocation string) string {
	if fileLocation == "" {
		fileLocation = "logs"
	}
	if strings.HasSuffix(fileLocation, ".log") {
		return fileLocation
	}
	return filepath.Join(fileLocation, logFilename)
}

func logFormat(jsonFormat bool) string {
	if jsonFormat {
		return "json"
	}
	return "plain"
}

// logLevels returns the named level and every level more severe than it.
func logLevels(level string) []mlog.Level {
	levels := []mlog.Level{mlog.LvlPanic, mlog.LvlFatal, mlog.LvlError}
	switch strings.ToLower(level) {
	case "error":
		return levels
	case "warn":
		return append(levels, mlog.LvlWarn)
	case "debug":
		return append(levels, mlog.LvlWarn, mlog.LvlInfo, mlog.LvlDebug)
	default:
		return append(levels, mlog.LvlWarn, mlog.LvlInfo)
	}
}
