// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package lock

import (
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql" // Load MySQL Driver
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestMySQLClient(t *testing.T) {
	dsn := os.Getenv("RDA_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("RDA_TEST_MYSQL_DSN is not set")
	}

	db, err := sqlx.Connect("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", lockTableName))
		db.Close()
	})

	_, err = db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		Id varchar(255) NOT NULL,
		Owner varchar(64) NOT NULL,
		ExpireAt bigint(20) NOT NULL,
		PRIMARY KEY (Id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, lockTableName))
	require.NoError(t, err)

	testClient(t, NewMySQLClient(db), time.Sleep)
}
