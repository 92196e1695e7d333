// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package coordinator

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/mattermost/rda-coordinator/model"
)

var (
	// ErrInvalidRequest is returned for missing or malformed creation requests.
	ErrInvalidRequest = model.ErrInvalidRequest
	// ErrUnknownDataSource is returned when the requested data source is not configured.
	ErrUnknownDataSource = errors.New("unknown data source")
	// ErrClusterNotFound is returned when the cluster service does not know a cluster.
	ErrClusterNotFound = errors.New("cluster not found")
	// ErrClusterExists is returned when the cluster to create already exists.
	ErrClusterExists = errors.New("cluster already exists")
	// ErrLockAcquisition is returned when the cluster lock could not be taken
	// in time, usually because another creation for the same cluster is in flight.
	ErrLockAcquisition = errors.New("failed to acquire cluster lock")
	// ErrLockUnavailable is returned when the lock backend failed, so it is
	// unknown whether another creation is in flight.
	ErrLockUnavailable = errors.New("cluster lock backend unavailable")
	// ErrUnknownStatus is reported by trackers observing an undocumented cluster status.
	ErrUnknownStatus = errors.New("cluster has an unknown status")
	// ErrUpstream matches every *UpstreamError.
	ErrUpstream = errors.New("upstream service failure")
)

// Provisioning steps, in execution order, plus the remote calls made
// outside the provisioning sequence.
const (
	StepResolveDataSource     = "resolve-data-source"
	StepDatasetInfo           = "dataset-info"
	StepResolveClusterService = "resolve-cluster-service"
	StepAllocateCluster       = "allocate-cluster"
	StepCreateShards          = "create-shards"
	StepInitializeCluster     = "initialize-cluster"

	StepClusterExists = "cluster-exists"
	StepGetCluster    = "get-cluster"
)

// UpstreamError is a failed remote call. StatusCode is zero when the remote
// service did not answer.
type UpstreamError struct {
	Step       string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("step %s failed with status %d: %s", e.Step, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("step %s failed: %s", e.Step, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
