// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"

	"github.com/mattermost/rda-coordinator/gateway"
	"github.com/mattermost/rda-coordinator/lock"
	"github.com/mattermost/rda-coordinator/metrics"
	"github.com/mattermost/rda-coordinator/model"
)

// DefaultPollInterval is the wait between two status checks of a cluster
// that is still being built.
const DefaultPollInterval = 5 * time.Second

const freeLockTimeout = 10 * time.Second

// Tracker outcomes, used as metric labels.
const (
	TrackerOutcomeTerminal      = "terminal"
	TrackerOutcomeUnknownStatus = "unknown-status"
	TrackerOutcomeError         = "error"
	TrackerOutcomeCancelled     = "cancelled"
)

// ErrTrackerStopped is returned by Track once Shutdown was called.
var ErrTrackerStopped = errors.New("tracker is shutting down")

// TrackerResult describes how tracking one cluster ended.
type TrackerResult struct {
	ClusterID         model.ClusterID
	ClusterIdentifier string
	// Status is the last status observed, empty if none was.
	Status model.ClusterStatus
	// Polls is the number of status fetches made.
	Polls int
	// LockFreed is true when the tracker released the cluster lock.
	LockFreed bool
	Outcome   string
	Err       error
}

// TrackerOptions configure a Tracker.
type TrackerOptions struct {
	PollInterval time.Duration
	// OnDone is called once per tracked cluster from the tracker goroutine.
	OnDone func(TrackerResult)
}

type trackJob struct {
	clusterID    model.ClusterID
	identifier   string
	lock         lock.Lock
	provisioning *model.Provisioning
}

// Tracker polls provisioned clusters until they reach a terminal status and
// then frees their lock. Every cluster is tracked by its own goroutine.
type Tracker struct {
	registry     Resolver
	gateway      Gateway
	store        ProvisioningStore
	metrics      metrics.Provider
	pollInterval time.Duration
	onDone       func(TrackerResult)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	active int64

	mu     sync.Mutex
	closed bool
}

func newTracker(registry Resolver, gw Gateway, store ProvisioningStore, m metrics.Provider, opts TrackerOptions) *Tracker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		registry:     registry,
		gateway:      gw,
		store:        store,
		metrics:      m,
		pollInterval: opts.PollInterval,
		onDone:       opts.OnDone,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Track starts tracking a cluster in the background. The tracker takes over
// l, which must be held.
func (t *Tracker) Track(clusterID model.ClusterID, identifier string, l lock.Lock) error {
	return t.start(trackJob{clusterID: clusterID, identifier: identifier, lock: l})
}

func (t *Tracker) start(job trackJob) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTrackerStopped
	}

	t.wg.Add(1)
	atomic.AddInt64(&t.active, 1)
	t.metrics.TrackerStarted()

	go func() {
		defer t.wg.Done()
		result := t.run(t.ctx, job)

		atomic.AddInt64(&t.active, -1)
		t.metrics.TrackerFinished(result.Outcome)
		t.record(job, result)
		if t.onDone != nil {
			t.onDone(result)
		}
	}()
	return nil
}

func (t *Tracker) run(ctx context.Context, job trackJob) TrackerResult {
	result := TrackerResult{ClusterID: job.clusterID, ClusterIdentifier: job.identifier}
	fields := func(extra ...mlog.Field) []mlog.Field {
		return append([]mlog.Field{
			mlog.String("cluster_id", job.clusterID.String()),
			mlog.String("cluster_identifier", job.identifier),
		}, extra...)
	}

	fail := func(outcome string, err error) TrackerResult {
		if ctx.Err() != nil {
			outcome = TrackerOutcomeCancelled
			err = errors.Wrap(ctx.Err(), "tracking stopped")
		}
		result.Outcome = outcome
		result.Err = err
		if outcome == TrackerOutcomeCancelled {
			mlog.Warn("Stopped tracking cluster, lock is left to expire", fields(mlog.Int("polls", result.Polls))...)
		} else {
			mlog.Error("Failed to track cluster, lock is left to expire", fields(mlog.Err(err), mlog.Int("polls", result.Polls))...)
		}
		return result
	}

	for {
		clusterURL, err := t.registry.Resolve(ctx, gateway.ClusterServiceName)
		if err != nil {
			return fail(TrackerOutcomeError, &UpstreamError{Step: StepResolveClusterService, Err: err})
		}

		result.Polls++
		record, err := t.gateway.GetCluster(ctx, clusterURL, job.clusterID.String())
		if err != nil {
			return fail(TrackerOutcomeError, upstreamError(StepGetCluster, err))
		}
		result.Status = record.Status

		switch {
		case !record.Status.IsKnown():
			return fail(TrackerOutcomeUnknownStatus, errors.Wrapf(ErrUnknownStatus, "the cluster info returned an unknown status: %q", record.Status))

		case record.Status.IsTerminal():
			result.Outcome = TrackerOutcomeTerminal
			freeCtx, cancel := context.WithTimeout(context.Background(), freeLockTimeout)
			err := job.lock.Free(freeCtx)
			cancel()
			if err != nil {
				result.Err = errors.Wrap(err, "failed to free cluster lock")
				mlog.Warn("Cluster reached a final status but its lock could not be freed", fields(mlog.String("status", string(record.Status)), mlog.Err(err))...)
				return result
			}
			result.LockFreed = true
			mlog.Info("Cluster reached a final status", fields(mlog.String("status", string(record.Status)), mlog.Int("polls", result.Polls))...)
			return result

		default:
			mlog.Debug("Cluster is still being built", fields(mlog.String("status", string(record.Status)))...)
			select {
			case <-ctx.Done():
				return fail(TrackerOutcomeCancelled, ctx.Err())
			case <-time.After(t.pollInterval):
			}
		}
	}
}

func (t *Tracker) record(job trackJob, result TrackerResult) {
	if t.store == nil || job.provisioning == nil {
		return
	}

	p := *job.provisioning
	p.ClusterStatus = string(result.Status)
	p.UpdateAt = model.GetMillis()
	if result.Outcome == TrackerOutcomeTerminal && result.Err == nil {
		p.State = model.ProvisioningStateCompleted
	} else {
		p.State = model.ProvisioningStateAbandoned
		if result.Err != nil {
			p.Error = result.Err.Error()
		}
	}

	if err := t.store.Update(&p); err != nil {
		mlog.Warn("Unable to update provisioning record", mlog.String("provisioning_id", p.ID), mlog.Err(err))
	}
}

// Active returns the number of clusters currently tracked.
func (t *Tracker) Active() int {
	return int(atomic.LoadInt64(&t.active))
}

// Shutdown stops accepting clusters and waits for the running trackers until
// ctx is done. Trackers still running then are cancelled and their locks are
// left to expire.
func (t *Tracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.cancel()
		return nil
	case <-ctx.Done():
		mlog.Warn("Cancelling running cluster trackers", mlog.Int("active", t.Active()))
		t.cancel()
		<-done
		return ctx.Err()
	}
}
