// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package store

import (
	"os"

	_ "github.com/go-sql-driver/mysql" // Load MySQL Driver
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"

	"github.com/mattermost/rda-coordinator/store/migrations"
)

const maxOpenConns = 20

type SQLStore struct {
	db           *sqlx.DB
	provisioning ProvisioningStore
}

// New opens a MySQL connection, applies pending migrations and returns the
// store.
func New(driverName, dataSource string) (*SQLStore, error) {
	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open db connection")
	}

	mlog.Info("pinging db")
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not ping db")
	}
	db.SetMaxOpenConns(maxOpenConns)

	if err = Migrate(db, -1); err != nil {
		db.Close()
		return nil, err
	}

	return newSQLStore(db), nil
}

func newSQLStore(db *sqlx.DB) *SQLStore {
	db.MapperFunc(func(s string) string { return s })
	s := &SQLStore{db: db}
	s.provisioning = newSQLProvisioningStore(s)
	return s
}

// DB exposes the connection so other components, such as the lock client,
// can share it.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

func (s *SQLStore) Provisioning() ProvisioningStore {
	return s.provisioning
}

func (s *SQLStore) Close() {
	mlog.Info("closing db")
	if err := s.db.Close(); err != nil {
		mlog.Warn("failed to close db", mlog.Err(err))
	}
}

// Migrate brings the schema of db to version. A negative version migrates
// all the way up.
func Migrate(db *sqlx.DB, version int) error {
	dbDriver, err := mysql.WithInstance(db.DB, &mysql.Config{})
	if err != nil {
		return errors.Wrap(err, "failed to create migration driver")
	}

	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return errors.Wrap(err, "failed to create source instance")
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "mysql", dbDriver)
	if err != nil {
		return errors.Wrap(err, "failed to create migrate instance")
	}

	if version < 0 {
		err = m.Up()
	} else {
		err = m.Migrate(uint(version))
	}
	// A missing file means the database is ahead of this binary, which
	// happens after a rollback without down migrations.
	if err != nil && err != migrate.ErrNoChange && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "failed to migrate db")
	}

	return nil
}
