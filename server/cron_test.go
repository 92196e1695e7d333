// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattermost/rda-coordinator/model"
	"github.com/mattermost/rda-coordinator/store/mocks"
)

func newCronTestEnv(t *testing.T) (*testEnv, *mocks.MockProvisioningStore) {
	ctrl := gomock.NewController(t)
	ps := mocks.NewMockProvisioningStore(ctrl)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Provisioning().Return(ps).AnyTimes()
	st.EXPECT().Close().AnyTimes()
	return newTestEnv(t, st), ps
}

func TestCleanOldProvisionings(t *testing.T) {
	t.Run("deletes records past retention", func(t *testing.T) {
		env, ps := newCronTestEnv(t)
		env.server.Config.ProvisioningRetentionDays = 7

		retention := int64(7 * 24 * time.Hour / time.Millisecond)
		before := model.GetMillis()
		ps.EXPECT().DeleteOlderThan(gomock.Any()).DoAndReturn(func(cutoff int64) (int64, error) {
			assert.GreaterOrEqual(t, cutoff, before-retention)
			assert.LessOrEqual(t, cutoff, model.GetMillis()-retention)
			return 3, nil
		})

		env.server.CleanOldProvisionings()
		assert.Equal(t, 1, env.metrics.cronRuns[cronTaskRetention])
		assert.Zero(t, env.metrics.cronErrors[cronTaskRetention])
	})

	t.Run("counts failures", func(t *testing.T) {
		env, ps := newCronTestEnv(t)
		ps.EXPECT().DeleteOlderThan(gomock.Any()).Return(int64(0), errors.New("db is gone"))

		env.server.CleanOldProvisionings()
		assert.Equal(t, 1, env.metrics.cronRuns[cronTaskRetention])
		assert.Equal(t, 1, env.metrics.cronErrors[cronTaskRetention])
	})
}

func TestReportOrphanedClusters(t *testing.T) {
	orphans := func(n int) []*model.Provisioning {
		list := make([]*model.Provisioning, n)
		for i := range list {
			list[i] = &model.Provisioning{
				ID:                fmt.Sprintf("p%d", i),
				ClusterID:         fmt.Sprintf("%d", i),
				ClusterIdentifier: fmt.Sprintf("ds1/set%d", i),
				State:             model.ProvisioningStateOrphaned,
			}
		}
		return list
	}
	request := func(page int) *model.GetProvisioningsRequest {
		return &model.GetProvisioningsRequest{State: model.ProvisioningStateOrphaned, Page: page, PerPage: orphanReportPageSize}
	}

	t.Run("pages through every orphan", func(t *testing.T) {
		env, ps := newCronTestEnv(t)
		gomock.InOrder(
			ps.EXPECT().List(request(0)).Return(orphans(orphanReportPageSize), nil),
			ps.EXPECT().List(request(1)).Return(orphans(3), nil),
		)

		env.server.ReportOrphanedClusters()
		assert.Equal(t, 1, env.metrics.cronRuns[cronTaskOrphanReport])
		assert.Zero(t, env.metrics.cronErrors[cronTaskOrphanReport])
	})

	t.Run("counts failures", func(t *testing.T) {
		env, ps := newCronTestEnv(t)
		ps.EXPECT().List(request(0)).Return(nil, errors.New("db is gone"))

		env.server.ReportOrphanedClusters()
		assert.Equal(t, 1, env.metrics.cronErrors[cronTaskOrphanReport])
	})
}

func TestStartCron(t *testing.T) {
	t.Run("nothing to schedule without store", func(t *testing.T) {
		env := newTestEnv(t, nil)
		require.NoError(t, env.server.startCron())
		assert.Nil(t, env.server.cron)
	})

	t.Run("schedules tasks", func(t *testing.T) {
		env, _ := newCronTestEnv(t)
		require.NoError(t, env.server.startCron())
		require.NotNil(t, env.server.cron)
		assert.Len(t, env.server.cron.Entries(), 2)
	})

	t.Run("rejects invalid schedule", func(t *testing.T) {
		env, _ := newCronTestEnv(t)
		env.server.Config.OrphanReportCronSchedule = "every now and then"
		assert.Error(t, env.server.startCron())
		assert.Nil(t, env.server.cron)
	})
}
