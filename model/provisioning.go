// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package model

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
)

// Provisioning states.
const (
	ProvisioningStateProvisioning = "provisioning"
	ProvisioningStateTracking     = "tracking"
	ProvisioningStateCompleted    = "completed"
	ProvisioningStateFailed       = "failed"
	ProvisioningStateOrphaned     = "orphaned"
	ProvisioningStateAbandoned    = "abandoned"
)

// ProvisioningStates lists every valid provisioning state.
var ProvisioningStates = []string{
	ProvisioningStateProvisioning,
	ProvisioningStateTracking,
	ProvisioningStateCompleted,
	ProvisioningStateFailed,
	ProvisioningStateOrphaned,
	ProvisioningStateAbandoned,
}

// IsValidProvisioningState reports whether state is a known state.
func IsValidProvisioningState(state string) bool {
	for _, s := range ProvisioningStates {
		if s == state {
			return true
		}
	}
	return false
}

// Provisioning is the coordinator's own record of one creation attempt. The
// cluster itself is owned by the cluster-management service; this record
// only exists to audit attempts and to find clusters left behind by failed
// attempts.
type Provisioning struct {
	ID                string `json:"id"`
	ClusterIdentifier string `json:"clusterIdentifier"`
	ClusterID         string `json:"clusterId"`
	DataSource        string `json:"dataSource"`
	DataSet           string `json:"dataSet"`
	State             string `json:"state"`
	ClusterStatus     string `json:"clusterStatus"`
	FailedStep        string `json:"failedStep,omitempty"`
	Error             string `json:"error,omitempty"`
	CreateAt          int64  `json:"createAt"`
	UpdateAt          int64  `json:"updateAt"`
}

// NewProvisioning starts a record for req.
func NewProvisioning(req *ClusterCreationRequest) *Provisioning {
	now := GetMillis()
	return &Provisioning{
		ID:                uuid.New().String(),
		ClusterIdentifier: req.ClusterIdentifier(),
		DataSource:        req.DataSource,
		DataSet:           req.DataSet,
		State:             ProvisioningStateProvisioning,
		CreateAt:          now,
		UpdateAt:          now,
	}
}

// GetProvisioningsRequest filters and pages provisioning listings.
type GetProvisioningsRequest struct {
	State   string
	Page    int
	PerPage int
}

func ProvisioningListFromJSON(data io.Reader) ([]*Provisioning, error) {
	var provisionings []*Provisioning
	if err := json.NewDecoder(data).Decode(&provisionings); err != nil {
		return nil, err
	}
	return provisionings, nil
}

// GetMillis returns the current time in milliseconds since the epoch.
func GetMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}
