// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package server

import (
	"os"
	"sync"
	"testing"

	"github.com/mattermost/mattermost-server/v6/shared/mlog"

	"github.com/mattermost/rda-coordinator/metrics"
)

func TestMain(m *testing.M) {
	logger, err := mlog.NewLogger()
	if err == nil {
		mlog.InitGlobalLogger(logger)
	}
	os.Exit(m.Run())
}

// recordingMetrics keeps the observations the server tests look at.
type recordingMetrics struct {
	*metrics.NopProvider

	mu         sync.Mutex
	requests   []string
	cronErrors map[string]int
	cronRuns   map[string]int
	orphans    int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		NopProvider: metrics.NewNopProvider(),
		cronErrors:  map[string]int{},
		cronRuns:    map[string]int{},
	}
}

func (m *recordingMetrics) ObserveHTTPRequestDuration(handler, method, statusCode string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, method+" "+handler+" "+statusCode)
}

func (m *recordingMetrics) ObserveCronTaskDuration(name string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cronRuns[name]++
}

func (m *recordingMetrics) IncreaseCronTaskErrors(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cronErrors[name]++
}

func (m *recordingMetrics) IncreaseOrphanedClusters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orphans++
}

func (m *recordingMetrics) orphanCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orphans
}

func (m *recordingMetrics) observedRequests() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.requests...)
}
