// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package metrics

// NopProvider discards every metric.
type NopProvider struct{}

var _ Provider = (*NopProvider)(nil)

func NewNopProvider() *NopProvider {
	return &NopProvider{}
}

func (*NopProvider) ObserveHTTPRequestDuration(_, _, _ string, _ float64)     {}
func (*NopProvider) ObserveUpstreamRequestDuration(_, _, _ string, _ float64) {}
func (*NopProvider) IncreaseUpstreamRequestErrors(_, _ string)                {}
func (*NopProvider) IncreaseLockAcquisitions(_ string)                        {}
func (*NopProvider) IncreaseProvisionings(_ string)                           {}
func (*NopProvider) IncreaseOrphanedClusters()                                {}
func (*NopProvider) TrackerStarted()                                          {}
func (*NopProvider) TrackerFinished(_ string)                                 {}
func (*NopProvider) ObserveCronTaskDuration(_ string, _ float64)              {}
func (*NopProvider) IncreaseCronTaskErrors(_ string)                          {}
