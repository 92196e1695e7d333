// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mattermost/rda-coordinator/lock"
)

// Lock backends.
const (
	LockBackendMySQL  = "mysql"
	LockBackendRedis  = "redis"
	LockBackendMemory = "memory"
)

const (
	defaultListenAddress     = ":8080"
	defaultMetricsServerPort = "9094"
	defaultServiceIdentifier = "rda-coordinator"
	defaultPollIntervalMs    = 5000
	defaultRequestTimeout    = 30
	defaultShutdownTimeout   = 30
	defaultRetentionDays     = 30
	defaultRetentionSchedule = "0 3 * * *"
	defaultOrphanSchedule    = "@every 1h"

	// createRemoteCalls is the largest number of sequential remote calls made
	// by one cluster creation, registry lookups included.
	createRemoteCalls = 8
	writeTimeoutSlack = 30 * time.Second

	// envPrefix prefixes every environment override, e.g. RDA_LISTEN_ADDRESS.
	envPrefix = "RDA_"
)

type LogSettings struct {
	EnableConsole bool   `yaml:"enable_console"`
	ConsoleJSON   bool   `yaml:"console_json"`
	ConsoleLevel  string `yaml:"console_level"`
	EnableFile    bool   `yaml:"enable_file"`
	FileJSON      bool   `yaml:"file_json"`
	FileLevel     string `yaml:"file_level"`
	FileLocation  string `yaml:"file_location"`
}

type Config struct {
	ListenAddress     string `yaml:"listen_address"`
	MetricsServerPort string `yaml:"metrics_server_port"`
	EnablePprof       bool   `yaml:"enable_pprof"`

	// ServiceIdentifier and AdvertiseAddress are announced to the service
	// registry on start. Registration is skipped without an advertise address.
	ServiceIdentifier string `yaml:"service_identifier"`
	AdvertiseAddress  string `yaml:"advertise_address"`

	DataSources []string `yaml:"data_sources"`

	RegistryURL             string            `yaml:"registry_url"`
	ServiceOverrides        map[string]string `yaml:"service_overrides"`
	RegistryCacheTTLSeconds int               `yaml:"registry_cache_ttl_seconds"`

	LockBackend              string `yaml:"lock_backend"`
	LockAcquisitionTimeoutMs int    `yaml:"lock_acquisition_timeout_ms"`
	LockTTLSeconds           int    `yaml:"lock_ttl_seconds"`
	RedisAddress             string `yaml:"redis_address"`
	RedisPassword            string `yaml:"redis_password"`
	RedisDB                  int    `yaml:"redis_db"`
	RedisLockPrefix          string `yaml:"redis_lock_prefix"`

	// DriverName and DataSource configure the provisioning store. The store
	// is disabled when DataSource is empty.
	DriverName string `yaml:"driver_name"`
	DataSource string `yaml:"data_source"`

	RequestTimeoutSeconds  int     `yaml:"request_timeout_seconds"`
	UpstreamRateLimit      float64 `yaml:"upstream_rate_limit"`
	UpstreamBurst          int     `yaml:"upstream_burst"`
	PollIntervalMs         int     `yaml:"poll_interval_ms"`
	ShutdownTimeoutSeconds int     `yaml:"shutdown_timeout_seconds"`

	ProvisioningRetentionDays int    `yaml:"provisioning_retention_days"`
	RetentionCronSchedule     string `yaml:"retention_cron_schedule"`
	OrphanReportCronSchedule  string `yaml:"orphan_report_cron_schedule"`

	LogSettings LogSettings `yaml:"log_settings"`
}

// FindConfigFile looks the file up in the usual locations and returns the
// first match, or fileName unchanged.
func FindConfigFile(fileName string) string {
	if _, err := os.Stat("/tmp/" + fileName); err == nil {
		fileName, _ = filepath.Abs("/tmp/" + fileName)
	} else if _, err := os.Stat("./config/" + fileName); err == nil {
		fileName, _ = filepath.Abs("./config/" + fileName)
	} else if _, err := os.Stat("../config/" + fileName); err == nil {
		fileName, _ = filepath.Abs("../config/" + fileName)
	} else if _, err := os.Stat(fileName); err == nil {
		fileName, _ = filepath.Abs(fileName)
	}

	return fileName
}

// GetConfig loads the configuration file, JSON or YAML depending on its
// extension, applies the environment overrides and validates the result.
// A .env file next to the working directory is loaded first if present.
func GetConfig(fileName string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		mlog.Warn("Failed to load .env file", mlog.Err(err))
	}

	fileName = FindConfigFile(fileName)
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read config file %s", fileName)
	}

	config := &Config{}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to decode config file %s", fileName)
	}

	config.applyEnvOverrides()
	config.SetDefaults()
	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) SetDefaults() {
	if c.ListenAddress == "" {
		c.ListenAddress = defaultListenAddress
	}
	if c.MetricsServerPort == "" {
		c.MetricsServerPort = defaultMetricsServerPort
	}
	if c.ServiceIdentifier == "" {
		c.ServiceIdentifier = defaultServiceIdentifier
	}
	if c.LockBackend == "" {
		c.LockBackend = LockBackendMemory
	}
	if c.LockAcquisitionTimeoutMs <= 0 {
		c.LockAcquisitionTimeoutMs = int(lock.DefaultAcquisitionTimeout / time.Millisecond)
	}
	if c.LockTTLSeconds <= 0 {
		c.LockTTLSeconds = int(lock.DefaultTTL / time.Second)
	}
	if c.DriverName == "" {
		c.DriverName = "mysql"
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = defaultRequestTimeout
	}
	if c.PollIntervalMs <= 0 {
		c.PollIntervalMs = defaultPollIntervalMs
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = defaultShutdownTimeout
	}
	if c.ProvisioningRetentionDays <= 0 {
		c.ProvisioningRetentionDays = defaultRetentionDays
	}
	if c.RetentionCronSchedule == "" {
		c.RetentionCronSchedule = defaultRetentionSchedule
	}
	if c.OrphanReportCronSchedule == "" {
		c.OrphanReportCronSchedule = defaultOrphanSchedule
	}
}

// Validate checks the fields the server cannot start without.
func (c *Config) Validate() error {
	if len(c.DataSources) == 0 {
		return errors.New("at least one data source must be configured")
	}
	if c.RegistryURL == "" && len(c.ServiceOverrides) == 0 {
		return errors.New("either RegistryURL or ServiceOverrides must be set")
	}

	switch c.LockBackend {
	case LockBackendMemory:
	case LockBackendRedis:
		if c.RedisAddress == "" {
			return errors.New("RedisAddress is required by the redis lock backend")
		}
	case LockBackendMySQL:
		if c.DataSource == "" {
			return errors.New("DataSource is required by the mysql lock backend")
		}
	default:
		return errors.Errorf("unknown lock backend %q", c.LockBackend)
	}

	if c.UpstreamRateLimit < 0 {
		return errors.New("UpstreamRateLimit must not be negative")
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("LISTEN_ADDRESS"); ok {
		c.ListenAddress = v
	}
	if v, ok := getEnvStr("METRICS_SERVER_PORT"); ok {
		c.MetricsServerPort = v
	}
	if v, ok := getEnvStr("ADVERTISE_ADDRESS"); ok {
		c.AdvertiseAddress = v
	}
	if v, ok := getEnvCSV("DATA_SOURCES"); ok {
		c.DataSources = v
	}
	if v, ok := getEnvStr("REGISTRY_URL"); ok {
		c.RegistryURL = v
	}
	if v, ok := getEnvKVList("SERVICE_OVERRIDES"); ok {
		c.ServiceOverrides = v
	}
	if v, ok := getEnvStr("LOCK_BACKEND"); ok {
		c.LockBackend = strings.ToLower(v)
	}
	if v, ok := getEnvInt("LOCK_TTL_SECONDS"); ok {
		c.LockTTLSeconds = v
	}
	if v, ok := getEnvStr("REDIS_ADDRESS"); ok {
		c.RedisAddress = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.RedisPassword = v
	}
	if v, ok := getEnvStr("DATA_SOURCE"); ok {
		c.DataSource = v
	}
	if v, ok := getEnvInt("POLL_INTERVAL_MS"); ok {
		c.PollIntervalMs = v
	}
}

func getEnvStr(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(envPrefix + key))
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		mlog.Warn("Ignoring invalid integer in environment", mlog.String("key", envPrefix+key))
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	s, ok := getEnvStr(key)
	if !ok {
		return nil, false
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// getEnvKVList parses "name1=url1,name2=url2".
func getEnvKVList(key string) (map[string]string, bool) {
	items, ok := getEnvCSV(key)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(items))
	for _, item := range items {
		if i := strings.IndexRune(item, '='); i > 0 {
			k := strings.TrimSpace(item[:i])
			v := strings.TrimSpace(item[i+1:])
			if k != "" && v != "" {
				out[k] = v
			}
		}
	}
	return out, true
}

func (c *Config) lockOptions() lock.Options {
	return lock.Options{
		AcquisitionTimeout: time.Duration(c.LockAcquisitionTimeoutMs) * time.Millisecond,
		TTL:                time.Duration(c.LockTTLSeconds) * time.Second,
	}
}

func (c *Config) pollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

func (c *Config) requestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// writeTimeout covers the slowest successful cluster creation: the lock wait
// plus every remote call taking its full request timeout.
func (c *Config) writeTimeout() time.Duration {
	return time.Duration(c.LockAcquisitionTimeoutMs)*time.Millisecond +
		createRemoteCalls*c.requestTimeout() +
		writeTimeoutSlack
}

func (c *Config) shutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
