// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/mattermost/rda-coordinator/coordinator"
	"github.com/mattermost/rda-coordinator/gateway"
	"github.com/mattermost/rda-coordinator/lock"
	"github.com/mattermost/rda-coordinator/metrics"
	"github.com/mattermost/rda-coordinator/model"
	"github.com/mattermost/rda-coordinator/registry"
	"github.com/mattermost/rda-coordinator/store"
)

const registerTimeout = 10 * time.Second

// Server is the coordinator process: the HTTP API, the controller behind it
// and the scheduled maintenance tasks.
type Server struct {
	Config  *Config
	Store   store.Store
	Metrics metrics.Provider
	Router  *mux.Router

	controller *coordinator.Controller
	registry   *registry.Client
	redis      redis.UniversalClient
	cron       *cron.Cron
	server     *http.Server

	onTrackerDone func(coordinator.TrackerResult)

	StartTime time.Time
}

// New builds the server and every collaborator named in config.
func New(config *Config, metricsProvider metrics.Provider) (*Server, error) {
	return newServer(config, metricsProvider, nil, nil)
}

// newServer allows tests to replace the outgoing transport and the store.
func newServer(config *Config, metricsProvider metrics.Provider, transport http.RoundTripper, st store.Store) (*Server, error) {
	if metricsProvider == nil {
		metricsProvider = metrics.NewNopProvider()
	}

	s := &Server{
		Config:    config,
		Metrics:   metricsProvider,
		Store:     st,
		StartTime: time.Now(),
	}
	if err := s.setup(transport); err != nil {
		s.closeResources()
		return nil, err
	}
	return s, nil
}

func (s *Server) setup(transport http.RoundTripper) error {
	config := s.Config
	var err error

	var sqlStore *store.SQLStore
	if s.Store == nil && config.DataSource != "" {
		sqlStore, err = store.New(config.DriverName, config.DataSource)
		if err != nil {
			return errors.Wrap(err, "unable to open the provisioning store")
		}
		s.Store = sqlStore
	}

	locks, err := s.newLockClient(sqlStore)
	if err != nil {
		return err
	}

	s.registry = registry.NewClient(registry.Options{
		URL:       config.RegistryURL,
		Overrides: config.ServiceOverrides,
		CacheTTL:  time.Duration(config.RegistryCacheTTLSeconds) * time.Second,
		Timeout:   config.requestTimeout(),
		Transport: transport,
		Metrics:   s.Metrics,
	})

	gw := gateway.New(gateway.Options{
		Timeout:   config.requestTimeout(),
		RateLimit: rate.Limit(config.UpstreamRateLimit),
		Burst:     config.UpstreamBurst,
		Transport: transport,
		Metrics:   s.Metrics,
	})

	deps := coordinator.Dependencies{
		DataSources: model.NewDataSources(config.DataSources...),
		Registry:    s.registry,
		Locks:       locks,
		Gateway:     gw,
		Metrics:     s.Metrics,
		LockOptions: config.lockOptions(),
		Tracker: coordinator.TrackerOptions{
			PollInterval: config.pollInterval(),
			OnDone:       s.trackerDone,
		},
	}
	if s.Store != nil {
		deps.Store = s.Store.Provisioning()
	}

	s.controller, err = coordinator.NewController(deps)
	if err != nil {
		return errors.Wrap(err, "unable to create the controller")
	}

	s.initializeRouter()
	return nil
}

func (s *Server) newLockClient(sqlStore *store.SQLStore) (lock.Client, error) {
	switch s.Config.LockBackend {
	case LockBackendRedis:
		s.redis = redis.NewClient(&redis.Options{
			Addr:     s.Config.RedisAddress,
			Password: s.Config.RedisPassword,
			DB:       s.Config.RedisDB,
		})
		return lock.NewRedisClient(s.redis, s.Config.RedisLockPrefix), nil
	case LockBackendMySQL:
		if sqlStore == nil {
			return nil, errors.New("the mysql lock backend requires the sql store")
		}
		return lock.NewMySQLClient(sqlStore.DB()), nil
	case LockBackendMemory, "":
		mlog.Warn("Using the in-memory lock backend, locks are not shared with other instances")
		return lock.NewMemoryClient(), nil
	default:
		return nil, errors.Errorf("unknown lock backend %q", s.Config.LockBackend)
	}
}

// Start serves the API, schedules the maintenance tasks and registers the
// coordinator with the service registry.
func (s *Server) Start() {
	mlog.Info("Starting RDA coordinator", mlog.String("address", s.Config.ListenAddress))

	s.server = &http.Server{
		Addr:         s.Config.ListenAddress,
		Handler:      s.Router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.Config.writeTimeout(),
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			mlog.Error("Server exited with error", mlog.Err(err))
		}
	}()

	if err := s.startCron(); err != nil {
		mlog.Error("Failed to schedule maintenance tasks", mlog.Err(err))
	}

	go s.registerService()
}

func (s *Server) registerService() {
	if s.Config.AdvertiseAddress == "" || s.Config.RegistryURL == "" {
		mlog.Info("Skipping service registration")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), registerTimeout)
	defer cancel()

	err := s.registry.Register(ctx, registry.ServiceInstance{
		Identifier: s.Config.ServiceIdentifier,
		Address:    s.Config.AdvertiseAddress,
	})
	if err != nil {
		mlog.Error("Failed to register with the service registry", mlog.Err(err))
		return
	}
	mlog.Info("Registered with the service registry", mlog.String("identifier", s.Config.ServiceIdentifier))
}

// Stop stops accepting requests, waits for in-flight trackers up to the
// shutdown timeout and releases every resource.
func (s *Server) Stop() error {
	mlog.Info("Stopping RDA coordinator")

	ctx, cancel := context.WithTimeout(context.Background(), s.Config.shutdownTimeout())
	defer cancel()

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	var result error
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			result = errors.Wrap(err, "failed to shut down http server")
		}
	}

	if err := s.controller.Shutdown(ctx); err != nil {
		mlog.Warn("Trackers were cancelled before completion", mlog.Err(err))
		if result == nil {
			result = err
		}
	}

	s.closeResources()
	return result
}

func (s *Server) closeResources() {
	if s.registry != nil {
		s.registry.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			mlog.Warn("Failed to close redis client", mlog.Err(err))
		}
	}
	if s.Store != nil {
		s.Store.Close()
	}
}

// trackerDone is the error sink of the completion tracker. The tracker has
// already logged and counted the result.
func (s *Server) trackerDone(result coordinator.TrackerResult) {
	mlog.Debug("Cluster tracking finished",
		mlog.String("cluster_identifier", result.ClusterIdentifier),
		mlog.String("outcome", result.Outcome),
		mlog.Bool("lock_freed", result.LockFreed),
	)
	if s.onTrackerDone != nil {
		s.onTrackerDone(result)
	}
}
