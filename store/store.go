// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"github.com/pkg/errors"

	"github.com/mattermost/rda-coordinator/model"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/mattermost/rda-coordinator/store Store,ProvisioningStore

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

type Store interface {
	Provisioning() ProvisioningStore
	Close()
}

// ProvisioningStore persists the coordinator's record of each creation
// attempt.
type ProvisioningStore interface {
	Save(p *model.Provisioning) error
	Update(p *model.Provisioning) error
	Get(id string) (*model.Provisioning, error)
	List(req *model.GetProvisioningsRequest) ([]*model.Provisioning, error)
	DeleteOlderThan(cutoff int64) (int64, error)
}
