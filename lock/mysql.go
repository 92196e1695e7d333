// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	ms "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"
)

// lockTableName is the name of the table holding the leases. It is created
// by the store migrations.
const lockTableName = "ClusterLocks"

// maxKeyLength is the width of the Id column. Longer names are stored as
// their hash.
const maxKeyLength = 255

// mysqlDuplicateEntry is the MySQL error number for a primary key collision.
const mysqlDuplicateEntry = 1062

// MySQLClient creates locks stored as rows of a MySQL table. A row is a
// lease: it belongs to the owner that inserted it until it is deleted or
// its ExpireAt passes.
type MySQLClient struct {
	db *sqlx.DB
}

// NewMySQLClient returns a lock client using db.
func NewMySQLClient(db *sqlx.DB) *MySQLClient {
	return &MySQLClient{db: db}
}

func (c *MySQLClient) CreateLock(name string, opts Options) Lock {
	return newHandle(name, opts, c)
}

// tryAcquire reaps an expired lease for name, if any, and then attempts to
// insert a fresh one. Losing the insert race is not an error.
func (c *MySQLClient) tryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	now := time.Now()
	key := lockKey(name)

	reap := fmt.Sprintf("DELETE FROM %s WHERE Id = ? AND ExpireAt <= ?", lockTableName)
	if _, err := c.db.ExecContext(ctx, reap, key, millis(now)); err != nil {
		return false, errors.Wrap(err, "failed to reap expired lock")
	}

	insert := fmt.Sprintf("INSERT INTO %s (Id, Owner, ExpireAt) VALUES (?, ?, ?)", lockTableName)
	if _, err := c.db.ExecContext(ctx, insert, key, owner, millis(now.Add(ttl))); err != nil {
		if mysqlErr, ok := err.(*ms.MySQLError); ok && mysqlErr.Number == mysqlDuplicateEntry {
			mlog.Debug("Lock is held, going to retry", mlog.String("lock", name))
			return false, nil
		}
		return false, errors.Wrap(err, "failed to insert lock")
	}

	return true, nil
}

func (c *MySQLClient) release(ctx context.Context, name, owner string) (bool, error) {
	// If an error occurs deleting, the lease will still expire, allowing later retry.
	query := fmt.Sprintf("DELETE FROM %s WHERE Id = ? AND Owner = ?", lockTableName)
	result, err := c.db.ExecContext(ctx, query, lockKey(name), owner)
	if err != nil {
		return false, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// lockKey maps a lock name to its row id.
func lockKey(name string) string {
	if len(name) <= maxKeyLength {
		return name
	}
	sum := sha256.Sum256([]byte(name))
	return "sha256:" + hex.EncodeToString(sum[:])
}

func millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
