// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"time"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/mattermost/rda-coordinator/model"
)

const (
	cronTaskRetention    = "provisioning_retention"
	cronTaskOrphanReport = "orphan_report"

	orphanReportPageSize = 100
)

// startCron schedules the maintenance tasks. They all work on provisioning
// records, so nothing is scheduled without a store.
func (s *Server) startCron() error {
	if s.Store == nil {
		mlog.Info("Provisioning store disabled, no maintenance tasks scheduled")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.Config.RetentionCronSchedule, s.CleanOldProvisionings); err != nil {
		return errors.Wrap(err, "failed adding CleanOldProvisionings cron")
	}
	if _, err := c.AddFunc(s.Config.OrphanReportCronSchedule, s.ReportOrphanedClusters); err != nil {
		return errors.Wrap(err, "failed adding ReportOrphanedClusters cron")
	}

	c.Start()
	s.cron = c
	return nil
}

// CleanOldProvisionings deletes settled provisioning records older than the
// retention period.
func (s *Server) CleanOldProvisionings() {
	mlog.Info("Cleaning old provisioning records")
	start := time.Now()
	defer func() {
		elapsed := float64(time.Since(start)) / float64(time.Second)
		s.Metrics.ObserveCronTaskDuration(cronTaskRetention, elapsed)
	}()

	retention := time.Duration(s.Config.ProvisioningRetentionDays) * 24 * time.Hour
	cutoff := model.GetMillis() - int64(retention/time.Millisecond)

	deleted, err := s.Store.Provisioning().DeleteOlderThan(cutoff)
	if err != nil {
		mlog.Error("Failed to clean old provisioning records", mlog.Err(err))
		s.Metrics.IncreaseCronTaskErrors(cronTaskRetention)
		return
	}

	mlog.Info("Cleaned old provisioning records", mlog.Int64("deleted", deleted))
}

// ReportOrphanedClusters logs every cluster left allocated by a failed
// creation so that operators can release it.
func (s *Server) ReportOrphanedClusters() {
	start := time.Now()
	defer func() {
		elapsed := float64(time.Since(start)) / float64(time.Second)
		s.Metrics.ObserveCronTaskDuration(cronTaskOrphanReport, elapsed)
	}()

	total := 0
	for page := 0; ; page++ {
		orphans, err := s.Store.Provisioning().List(&model.GetProvisioningsRequest{
			State:   model.ProvisioningStateOrphaned,
			Page:    page,
			PerPage: orphanReportPageSize,
		})
		if err != nil {
			mlog.Error("Failed to list orphaned clusters", mlog.Err(err))
			s.Metrics.IncreaseCronTaskErrors(cronTaskOrphanReport)
			return
		}

		for _, p := range orphans {
			mlog.Warn("Orphaned cluster needs manual cleanup",
				mlog.String("cluster_id", p.ClusterID),
				mlog.String("cluster_identifier", p.ClusterIdentifier),
				mlog.String("failed_step", p.FailedStep),
				mlog.String("error", p.Error),
			)
		}
		total += len(orphans)

		if len(orphans) < orphanReportPageSize {
			break
		}
	}

	mlog.Info("Orphaned cluster report done", mlog.Int("orphans", total))
}
