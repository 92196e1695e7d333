// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

// Package coordinator provisions clusters for data sets: it guards every
// cluster identifier with a distributed lock, drives the remote services
// through the provisioning steps and tracks the cluster until it is built.
package coordinator

import (
	"context"
	"strings"
	"time"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"

	"github.com/mattermost/rda-coordinator/gateway"
	"github.com/mattermost/rda-coordinator/lock"
	"github.com/mattermost/rda-coordinator/metrics"
	"github.com/mattermost/rda-coordinator/model"
)

// LockPrefix prefixes the cluster identifier in lock names.
const LockPrefix = "cluster::"

// Creation outcomes, used as metric labels.
const (
	OutcomeCreated           = "created"
	OutcomeInvalid           = "invalid"
	OutcomeUnknownDataSource = "unknown-data-source"
	OutcomeLockFailed        = "lock-failed"
	OutcomeExists            = "exists"
	OutcomeUpstreamError     = "upstream-error"
	OutcomeOrphaned          = "orphaned"
)

// Dependencies are the collaborators of a Controller.
type Dependencies struct {
	DataSources model.DataSources
	Registry    Resolver
	Locks       lock.Client
	Gateway     Gateway
	// Store is optional. Without it provisioning attempts are only logged.
	Store   ProvisioningStore
	Metrics metrics.Provider

	LockOptions lock.Options
	Tracker     TrackerOptions
}

// Controller implements cluster creation and lookup. It holds no mutable
// state of its own; the distributed lock is the only synchronization
// between concurrent creations.
type Controller struct {
	dataSources model.DataSources
	registry    Resolver
	locks       lock.Client
	gateway     Gateway
	store       ProvisioningStore
	metrics     metrics.Provider
	lockOptions lock.Options
	tracker     *Tracker
}

func NewController(deps Dependencies) (*Controller, error) {
	if deps.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if deps.Locks == nil {
		return nil, errors.New("lock client is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	if deps.DataSources.Len() == 0 {
		return nil, errors.New("at least one data source is required")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewNopProvider()
	}
	if deps.LockOptions.AcquisitionTimeout <= 0 {
		deps.LockOptions.AcquisitionTimeout = lock.DefaultAcquisitionTimeout
	}
	if deps.LockOptions.TTL <= 0 {
		deps.LockOptions.TTL = lock.DefaultTTL
	}

	mlog.Info("Accepting clusters for data sources", mlog.String("data_sources", strings.Join(deps.DataSources.Names(), ",")))

	return &Controller{
		dataSources: deps.DataSources,
		registry:    deps.Registry,
		locks:       deps.Locks,
		gateway:     deps.Gateway,
		store:       deps.Store,
		metrics:     deps.Metrics,
		lockOptions: deps.LockOptions,
		tracker:     newTracker(deps.Registry, deps.Gateway, deps.Store, deps.Metrics, deps.Tracker),
	}, nil
}

// LockName returns the name of the lock guarding a cluster identifier.
func LockName(identifier string) string {
	return LockPrefix + identifier
}

// Tracker returns the controller's completion tracker.
func (c *Controller) Tracker() *Tracker {
	return c.tracker
}

// Create provisions the cluster for req. It returns once the cluster was
// initialized; the cluster keeps being tracked in the background until it
// reaches a final status, and only then is its lock freed.
func (c *Controller) Create(ctx context.Context, req *model.ClusterCreationRequest) (*model.ClusterProvisioningResult, error) {
	if err := req.Validate(); err != nil {
		c.metrics.IncreaseProvisionings(OutcomeInvalid)
		return nil, err
	}
	if !c.dataSources.Has(req.DataSource) {
		c.metrics.IncreaseProvisionings(OutcomeUnknownDataSource)
		return nil, errors.Wrapf(ErrUnknownDataSource, "the data source %s was not found", req.DataSource)
	}

	identifier := req.ClusterIdentifier()
	l := c.locks.CreateLock(LockName(identifier), c.lockOptions)

	start := time.Now()
	if err := l.Lock(ctx); err != nil {
		c.metrics.IncreaseProvisionings(OutcomeLockFailed)
		if errors.Is(err, lock.ErrUnavailable) {
			c.metrics.IncreaseLockAcquisitions("error")
			mlog.Error("Cluster lock backend failed", mlog.String("cluster_identifier", identifier), mlog.Err(err))
			return nil, errors.Wrapf(ErrLockUnavailable, "cannot lock the cluster %s: %s", identifier, err)
		}
		c.metrics.IncreaseLockAcquisitions("failed")
		mlog.Warn("Failed to acquire cluster lock", mlog.String("cluster_identifier", identifier), mlog.Err(err))
		return nil, errors.Wrapf(ErrLockAcquisition, "failed to acquire lock for creating the cluster %s: %s", identifier, err)
	}
	c.metrics.IncreaseLockAcquisitions("acquired")
	mlog.Debug("Acquired cluster lock", mlog.String("cluster_identifier", identifier), mlog.Int64("wait_ms", time.Since(start).Milliseconds()))

	exists, err := c.clusterExists(ctx, identifier)
	if err != nil {
		c.freeLock(l)
		c.metrics.IncreaseProvisionings(OutcomeUpstreamError)
		return nil, err
	}
	if exists {
		c.freeLock(l)
		c.metrics.IncreaseProvisionings(OutcomeExists)
		return nil, errors.Wrapf(ErrClusterExists, "cannot create cluster: the cluster '%s' exists already", identifier)
	}

	provisioning := model.NewProvisioning(req)
	c.saveProvisioning(provisioning)

	result, step, err := c.provision(ctx, req, provisioning)
	if err != nil {
		c.handleProvisioningFailure(provisioning, step, err)
		return nil, err
	}

	provisioning.State = model.ProvisioningStateTracking
	c.updateProvisioning(provisioning)

	job := trackJob{clusterID: result.ClusterID, identifier: identifier, lock: l, provisioning: provisioning}
	if err := c.tracker.start(job); err != nil {
		mlog.Warn("Cluster will not be tracked, lock is left to expire", mlog.String("cluster_identifier", identifier), mlog.Err(err))
	}

	c.metrics.IncreaseProvisionings(OutcomeCreated)
	mlog.Info("Cluster provisioned",
		mlog.String("cluster_identifier", identifier),
		mlog.String("cluster_id", result.ClusterID.String()),
		mlog.String("record_count", result.RecordCount.String()),
		mlog.String("required_memory", result.RequiredMemory.String()),
	)

	return result, nil
}

// provision runs the provisioning steps in order. On failure it returns the
// failed step.
func (c *Controller) provision(ctx context.Context, req *model.ClusterCreationRequest, provisioning *model.Provisioning) (*model.ClusterProvisioningResult, string, error) {
	identifier := provisioning.ClusterIdentifier

	dataSourceURL, err := c.registry.Resolve(ctx, req.DataSource)
	if err != nil {
		return nil, StepResolveDataSource, upstreamError(StepResolveDataSource, err)
	}

	mlog.Info("Getting information about the data that has to be loaded into the cluster", mlog.String("cluster_identifier", identifier))
	info, err := c.gateway.GetDatasetInfo(ctx, dataSourceURL, req.DataSource, req.DataSet)
	if err != nil {
		return nil, StepDatasetInfo, upstreamError(StepDatasetInfo, err)
	}

	clusterURL, err := c.registry.Resolve(ctx, gateway.ClusterServiceName)
	if err != nil {
		return nil, StepResolveClusterService, upstreamError(StepResolveClusterService, err)
	}

	mlog.Info("Setting up the cluster", mlog.String("cluster_identifier", identifier))
	cluster, err := c.gateway.CreateCluster(ctx, clusterURL, &model.CreateClusterRequest{
		RequiredMemory: info.TotalMemory,
		RecordCount:    info.RecordCount,
		DataSet:        req.DataSet,
		DataSource:     req.DataSource,
	})
	if err != nil {
		var malformed *gateway.MalformedResponseError
		if errors.As(err, &malformed) {
			provisioning.ClusterID = malformed.ClusterID.String()
		}
		return nil, StepAllocateCluster, upstreamError(StepAllocateCluster, err)
	}
	provisioning.ClusterID = cluster.ClusterID.String()

	mlog.Info("Instructing the data source to create data shards", mlog.String("cluster_identifier", identifier), mlog.Int("shards", len(cluster.Shards)))
	err = c.gateway.CreateShards(ctx, dataSourceURL, req.DataSource, &model.CreateShardsRequest{
		Shards:  cluster.Shards,
		DataSet: req.DataSet,
	})
	if err != nil {
		return nil, StepCreateShards, upstreamError(StepCreateShards, err)
	}

	mlog.Info("Initializing cluster", mlog.String("cluster_identifier", identifier), mlog.String("cluster_id", cluster.ClusterID.String()))
	if err := c.gateway.InitializeCluster(ctx, clusterURL, cluster.ClusterID); err != nil {
		return nil, StepInitializeCluster, upstreamError(StepInitializeCluster, err)
	}

	clusterIdentifier := cluster.ClusterIdentifier
	if clusterIdentifier == "" {
		clusterIdentifier = identifier
	}

	return &model.ClusterProvisioningResult{
		ClusterID:         cluster.ClusterID,
		ClusterIdentifier: clusterIdentifier,
		DataSet:           req.DataSet,
		DataSource:        req.DataSource,
		RecordCount:       info.RecordCount,
		RequiredMemory:    info.TotalMemory,
		Shards:            cluster.Shards,
	}, "", nil
}

// handleProvisioningFailure records a failed provisioning. Nothing is rolled
// back and the cluster lock is left to expire with its lease.
func (c *Controller) handleProvisioningFailure(provisioning *model.Provisioning, step string, err error) {
	provisioning.FailedStep = step
	provisioning.Error = err.Error()

	if clusterAllocated(provisioning, err) {
		provisioning.State = model.ProvisioningStateOrphaned
		c.metrics.IncreaseOrphanedClusters()
		c.metrics.IncreaseProvisionings(OutcomeOrphaned)
		mlog.Error("Provisioning failed after the cluster was allocated, the remote cluster is orphaned",
			mlog.String("cluster_identifier", provisioning.ClusterIdentifier),
			mlog.String("cluster_id", provisioning.ClusterID),
			mlog.String("step", step),
			mlog.Err(err),
		)
	} else {
		provisioning.State = model.ProvisioningStateFailed
		c.metrics.IncreaseProvisionings(OutcomeUpstreamError)
		mlog.Error("Provisioning failed",
			mlog.String("cluster_identifier", provisioning.ClusterIdentifier),
			mlog.String("step", step),
			mlog.Err(err),
		)
	}
	mlog.Warn("Cluster lock is left to expire", mlog.String("lock", LockName(provisioning.ClusterIdentifier)))

	c.updateProvisioning(provisioning)
}

// clusterAllocated reports whether the cluster service created a cluster
// before the provisioning failed. A successful allocation answer that could
// not be used counts as created.
func clusterAllocated(provisioning *model.Provisioning, err error) bool {
	if provisioning.ClusterID != "" {
		return true
	}
	var upstream *UpstreamError
	return errors.As(err, &upstream) &&
		upstream.Step == StepAllocateCluster &&
		upstream.StatusCode >= 200 && upstream.StatusCode < 300
}

// ListOne returns the cluster record of the cluster with the given id or
// identifier.
func (c *Controller) ListOne(ctx context.Context, clusterID string) (*model.ClusterRecord, error) {
	if clusterID == "" {
		return nil, errors.Wrap(ErrInvalidRequest, "missing cluster id")
	}
	if strings.Contains(clusterID, "/") {
		if _, _, ok := model.SplitClusterIdentifier(clusterID); !ok {
			return nil, errors.Wrapf(ErrInvalidRequest, "malformed cluster identifier %q", clusterID)
		}
	}

	clusterURL, err := c.registry.Resolve(ctx, gateway.ClusterServiceName)
	if err != nil {
		return nil, upstreamError(StepResolveClusterService, err)
	}

	record, err := c.gateway.GetCluster(ctx, clusterURL, clusterID)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, errors.Wrapf(ErrClusterNotFound, "cluster %s", clusterID)
	}
	if err != nil {
		return nil, upstreamError(StepGetCluster, err)
	}
	return record, nil
}

// clusterExists asks the cluster service whether it knows identifier.
func (c *Controller) clusterExists(ctx context.Context, identifier string) (bool, error) {
	clusterURL, err := c.registry.Resolve(ctx, gateway.ClusterServiceName)
	if err != nil {
		return false, upstreamError(StepResolveClusterService, err)
	}

	exists, err := c.gateway.ClusterExists(ctx, clusterURL, identifier)
	if err != nil {
		return false, upstreamError(StepClusterExists, err)
	}
	return exists, nil
}

// Shutdown waits for the running trackers until ctx is done and releases
// the gateway's connections.
func (c *Controller) Shutdown(ctx context.Context) error {
	err := c.tracker.Shutdown(ctx)
	c.gateway.Close()
	return err
}

func (c *Controller) freeLock(l lock.Lock) {
	ctx, cancel := context.WithTimeout(context.Background(), freeLockTimeout)
	defer cancel()
	if err := l.Free(ctx); err != nil {
		mlog.Warn("Failed to free cluster lock", mlog.String("lock", l.Name()), mlog.Err(err))
	}
}

func (c *Controller) saveProvisioning(p *model.Provisioning) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(p); err != nil {
		mlog.Warn("Unable to save provisioning record", mlog.String("provisioning_id", p.ID), mlog.Err(err))
	}
}

func (c *Controller) updateProvisioning(p *model.Provisioning) {
	if c.store == nil {
		return
	}
	p.UpdateAt = model.GetMillis()
	if err := c.store.Update(p); err != nil {
		mlog.Warn("Unable to update provisioning record", mlog.String("provisioning_id", p.ID), mlog.Err(err))
	}
}

func upstreamError(step string, err error) error {
	return &UpstreamError{Step: step, StatusCode: gateway.StatusCode(err), Err: err}
}
