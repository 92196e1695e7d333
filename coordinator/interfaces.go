// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package coordinator

import (
	"context"

	"github.com/mattermost/rda-coordinator/model"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks github.com/mattermost/rda-coordinator/coordinator Resolver,Gateway,ProvisioningStore

// Resolver resolves logical service names to base URLs.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// Gateway performs the remote calls against the cluster service and the
// data sources.
type Gateway interface {
	ClusterExists(ctx context.Context, clusterURL, clusterID string) (bool, error)
	GetCluster(ctx context.Context, clusterURL, clusterID string) (*model.ClusterRecord, error)
	CreateCluster(ctx context.Context, clusterURL string, req *model.CreateClusterRequest) (*model.ClusterRecord, error)
	InitializeCluster(ctx context.Context, clusterURL string, clusterID model.ClusterID) error
	GetDatasetInfo(ctx context.Context, dataSourceURL, dataSource, dataSet string) (*model.DatasetInfo, error)
	CreateShards(ctx context.Context, dataSourceURL, dataSource string, req *model.CreateShardsRequest) error
	Close()
}

// ProvisioningStore persists provisioning attempts.
type ProvisioningStore interface {
	Save(provisioning *model.Provisioning) error
	Update(provisioning *model.Provisioning) error
}
