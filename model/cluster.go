// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ClusterStatus is the lifecycle state of a cluster as reported by the
// cluster-management service.
type ClusterStatus string

const (
	ClusterStatusCreated     ClusterStatus = "created"
	ClusterStatusInitialized ClusterStatus = "initialized"
	ClusterStatusActive      ClusterStatus = "active"
	ClusterStatusEnded       ClusterStatus = "ended"
	ClusterStatusFailed      ClusterStatus = "failed"
)

// IsTerminal reports whether polling for the cluster can stop.
func (s ClusterStatus) IsTerminal() bool {
	switch s {
	case ClusterStatusActive, ClusterStatusEnded, ClusterStatusFailed:
		return true
	}
	return false
}

// IsPending reports whether the cluster is still being built.
func (s ClusterStatus) IsPending() bool {
	return s == ClusterStatusCreated || s == ClusterStatusInitialized
}

// IsKnown reports whether s is one of the documented lifecycle values.
func (s ClusterStatus) IsKnown() bool {
	return s.IsTerminal() || s.IsPending()
}

// ClusterID is the id assigned by the cluster-management service. The
// service sends numeric ids, but identifiers are accepted as well.
type ClusterID string

func (id *ClusterID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ClusterID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ClusterID(n.String())
	return nil
}

func (id ClusterID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ClusterID) String() string {
	return string(id)
}

// ClusterIdentifier returns the platform wide unique name of the cluster
// built for dataSet out of dataSource.
func ClusterIdentifier(dataSource, dataSet string) string {
	return dataSource + "/" + dataSet
}

// SplitClusterIdentifier is the inverse of ClusterIdentifier. The data set
// part may itself contain slashes.
func SplitClusterIdentifier(identifier string) (dataSource, dataSet string, ok bool) {
	i := strings.Index(identifier, "/")
	if i <= 0 || i == len(identifier)-1 {
		return "", "", false
	}
	return identifier[:i], identifier[i+1:], true
}

// ClusterRecord is the cluster as known by the cluster-management service.
type ClusterRecord struct {
	ClusterID         ClusterID         `json:"clusterId"`
	ClusterIdentifier string            `json:"clusterIdentifier"`
	Status            ClusterStatus     `json:"status"`
	DataSource        string            `json:"dataSource,omitempty"`
	DataSet           string            `json:"dataSet,omitempty"`
	RequiredMemory    json.Number       `json:"requiredMemory"`
	RecordCount       json.Number       `json:"recordCount"`
	Shards            []json.RawMessage `json:"shards"`
}

// CreateClusterRequest asks the cluster-management service for a cluster
// large enough to hold the data set.
type CreateClusterRequest struct {
	RequiredMemory json.Number `json:"requiredMemory"`
	RecordCount    json.Number `json:"recordCount"`
	DataSet        string      `json:"dataSet"`
	DataSource     string      `json:"dataSource"`
}

// DatasetInfo is the sizing information a data source reports for a data set.
// Sizes are kept as reported and forwarded to the cluster service unchanged.
type DatasetInfo struct {
	TotalMemory json.Number `json:"totalMemory"`
	RecordCount json.Number `json:"recordCount"`
}

// CreateShardsRequest instructs a data source to materialize the shard
// layout planned by the cluster-management service.
type CreateShardsRequest struct {
	Shards  []json.RawMessage `json:"shards"`
	DataSet string            `json:"dataSet"`
}

// ClusterProvisioningResult is returned to the caller once a cluster has
// been requested and initialized. The cluster status has to be fetched
// separately.
type ClusterProvisioningResult struct {
	ClusterID         ClusterID         `json:"clusterId"`
	ClusterIdentifier string            `json:"clusterIdentifier"`
	DataSet           string            `json:"dataSet"`
	DataSource        string            `json:"dataSource"`
	RecordCount       json.Number       `json:"recordCount"`
	RequiredMemory    json.Number       `json:"requiredMemory"`
	Shards            []json.RawMessage `json:"shards"`
}
