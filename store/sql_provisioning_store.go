// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/mattermost/rda-coordinator/model"
)

const defaultPerPage = 100

type SQLProvisioningStore struct {
	*SQLStore
}

func newSQLProvisioningStore(sqlStore *SQLStore) ProvisioningStore {
	return &SQLProvisioningStore{sqlStore}
}

func (s SQLProvisioningStore) Save(p *model.Provisioning) error {
	if _, err := s.db.NamedExec(
		`INSERT INTO Provisionings
			(ID, ClusterIdentifier, ClusterID, DataSource, DataSet, State, ClusterStatus, FailedStep, Error, CreateAt, UpdateAt)
		VALUES
			(:ID, :ClusterIdentifier, :ClusterID, :DataSource, :DataSet, :State, :ClusterStatus, :FailedStep, :Error, :CreateAt, :UpdateAt)`, p); err != nil {
		return errors.Wrapf(err, "could not insert provisioning: id=%s, cluster=%s", p.ID, p.ClusterIdentifier)
	}
	return nil
}

func (s SQLProvisioningStore) Update(p *model.Provisioning) error {
	p.UpdateAt = model.GetMillis()
	result, err := s.db.NamedExec(
		`UPDATE Provisionings
		 SET ClusterID = :ClusterID, State = :State, ClusterStatus = :ClusterStatus,
			 FailedStep = :FailedStep, Error = :Error, UpdateAt = :UpdateAt
		 WHERE ID = :ID`, p)
	if err != nil {
		return errors.Wrapf(err, "could not update provisioning: id=%s", p.ID)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "could not count updated provisionings")
	}
	if n == 0 {
		// MySQL reports zero rows when nothing changed, so tell the two cases apart.
		if _, err = s.Get(p.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s SQLProvisioningStore) Get(id string) (*model.Provisioning, error) {
	var p model.Provisioning
	if err := s.db.Get(&p, `SELECT * FROM Provisionings WHERE ID = ?`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(ErrNotFound, "provisioning %s", id)
		}
		return nil, errors.Wrapf(err, "could not get provisioning: id=%s", id)
	}
	return &p, nil
}

// List returns provisionings newest first, optionally filtered by state.
func (s SQLProvisioningStore) List(req *model.GetProvisioningsRequest) ([]*model.Provisioning, error) {
	if req == nil {
		req = &model.GetProvisioningsRequest{}
	}
	perPage := req.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	page := req.Page
	if page < 0 {
		page = 0
	}

	query := `SELECT * FROM Provisionings`
	args := []interface{}{}
	if req.State != "" {
		query += ` WHERE State = ?`
		args = append(args, req.State)
	}
	query += ` ORDER BY CreateAt DESC, ID LIMIT ? OFFSET ?`
	args = append(args, perPage, page*perPage)

	provisionings := []*model.Provisioning{}
	if err := s.db.Select(&provisionings, query, args...); err != nil {
		return nil, errors.Wrap(err, "could not list provisionings")
	}
	return provisionings, nil
}

// DeleteOlderThan removes settled provisionings last updated before cutoff,
// in milliseconds. In-flight and orphaned records are kept.
func (s SQLProvisioningStore) DeleteOlderThan(cutoff int64) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM Provisionings WHERE UpdateAt < ? AND State IN (?, ?, ?)`,
		cutoff, model.ProvisioningStateCompleted, model.ProvisioningStateFailed, model.ProvisioningStateAbandoned)
	if err != nil {
		return 0, errors.Wrap(err, "could not delete provisionings")
	}
	return result.RowsAffected()
}
