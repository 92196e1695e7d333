// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/rda-coordinator/lock"
)

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestGetConfig(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		path := writeConfigFile(t, "config.json", `{
			"ListenAddress": ":8181",
			"DataSources": ["ds1", "ds2"],
			"RegistryURL": "http://registry.test",
			"LockBackend": "redis",
			"RedisAddress": "localhost:6379",
			"PollIntervalMs": 250
		}`)

		config, err := GetConfig(path)
		require.NoError(t, err)
		assert.Equal(t, ":8181", config.ListenAddress)
		assert.Equal(t, []string{"ds1", "ds2"}, config.DataSources)
		assert.Equal(t, LockBackendRedis, config.LockBackend)
		assert.Equal(t, 250*time.Millisecond, config.pollInterval())

		// Defaults
		assert.Equal(t, defaultMetricsServerPort, config.MetricsServerPort)
		assert.Equal(t, lock.Options{AcquisitionTimeout: lock.DefaultAcquisitionTimeout, TTL: lock.DefaultTTL}, config.lockOptions())
		assert.Equal(t, defaultRetentionSchedule, config.RetentionCronSchedule)
	})

	t.Run("yaml", func(t *testing.T) {
		path := writeConfigFile(t, "config.yaml", `
listen_address: ":8282"
data_sources: [ds1]
service_overrides:
  rda-cluster: cluster.test:8080
lock_ttl_seconds: 60
log_settings:
  enable_console: true
  console_level: debug
`)

		config, err := GetConfig(path)
		require.NoError(t, err)
		assert.Equal(t, ":8282", config.ListenAddress)
		assert.Equal(t, map[string]string{"rda-cluster": "cluster.test:8080"}, config.ServiceOverrides)
		assert.Equal(t, time.Minute, config.lockOptions().TTL)
		assert.Equal(t, LockBackendMemory, config.LockBackend)
		assert.True(t, config.LogSettings.EnableConsole)
	})

	t.Run("environment overrides", func(t *testing.T) {
		path := writeConfigFile(t, "config.json", `{"DataSources": ["ds1"], "RegistryURL": "http://registry.test"}`)
		t.Setenv("RDA_LISTEN_ADDRESS", ":9999")
		t.Setenv("RDA_DATA_SOURCES", "a, b,,c")
		t.Setenv("RDA_SERVICE_OVERRIDES", "rda-cluster=http://c.test,a=http://a.test,broken")
		t.Setenv("RDA_POLL_INTERVAL_MS", "not-a-number")

		config, err := GetConfig(path)
		require.NoError(t, err)
		assert.Equal(t, ":9999", config.ListenAddress)
		assert.Equal(t, []string{"a", "b", "c"}, config.DataSources)
		assert.Equal(t, map[string]string{"rda-cluster": "http://c.test", "a": "http://a.test"}, config.ServiceOverrides)
		assert.Equal(t, defaultPollIntervalMs, config.PollIntervalMs)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := GetConfig(filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := GetConfig(writeConfigFile(t, "config.json", `{"DataSources": `))
		assert.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{DataSources: []string{"ds1"}, RegistryURL: "http://registry.test"}
		c.SetDefaults()
		return c
	}

	testCases := []struct {
		name   string
		mutate func(c *Config)
		valid  bool
	}{
		{"valid", func(c *Config) {}, true},
		{"overrides only", func(c *Config) { c.RegistryURL = ""; c.ServiceOverrides = map[string]string{"rda-cluster": "x"} }, true},
		{"no data sources", func(c *Config) { c.DataSources = nil }, false},
		{"no registry", func(c *Config) { c.RegistryURL = "" }, false},
		{"redis without address", func(c *Config) { c.LockBackend = LockBackendRedis }, false},
		{"mysql without dsn", func(c *Config) { c.LockBackend = LockBackendMySQL }, false},
		{"mysql with dsn", func(c *Config) { c.LockBackend = LockBackendMySQL; c.DataSource = "dsn" }, true},
		{"unknown backend", func(c *Config) { c.LockBackend = "zookeeper" }, false},
		{"negative rate", func(c *Config) { c.UpstreamRateLimit = -1 }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWriteTimeout(t *testing.T) {
	config := &Config{DataSources: []string{"ds1"}, RegistryURL: "http://registry.test"}
	config.SetDefaults()

	// Every remote call of a creation may use its whole request timeout.
	slowest := config.lockOptions().AcquisitionTimeout + 8*config.requestTimeout()
	assert.Greater(t, int64(config.writeTimeout()), int64(slowest))

	config.RequestTimeoutSeconds = 60
	assert.Greater(t, int64(config.writeTimeout()), int64(8*time.Minute))
}

func TestLoggerConfiguration(t *testing.T) {
	cfg, err := loggerConfiguration(LogSettings{
		EnableConsole: true,
		ConsoleLevel:  "DEBUG",
		EnableFile:    true,
		FileJSON:      true,
		FileLevel:     "error",
		FileLocation:  t.TempDir(),
	})
	require.NoError(t, err)
	require.Len(t, cfg, 2)

	assert.Equal(t, "plain", cfg["console"].Format)
	assert.Contains(t, cfg["console"].Levels, mlog.LvlDebug)
	assert.Equal(t, "json", cfg["file"].Format)
	assert.NotContains(t, cfg["file"].Levels, mlog.LvlWarn)
	assert.Contains(t, string(cfg["file"].Options), logFilename)

	empty, err := loggerConfiguration(LogSettings{})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
