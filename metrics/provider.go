// Copyright (c) 2017-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace      = "rda_coordinator"
	httpNamespace         = "requests"
	upstreamNamespace     = "upstream"
	provisioningNamespace = "provisioning"
	cronNamespace         = "cron"

	defaultPrometheusTimeoutSeconds = 60
)

// Provider is the interface that exposes the communication with the metrics system
// this interface should be implemented by the different providers we want to include
type Provider interface {
	// ObserveHTTPRequestDuration stores the elapsed time for an HTTP request
	ObserveHTTPRequestDuration(handler, method, statusCode string, elapsed float64)

	// ObserveUpstreamRequestDuration stores the elapsed time for requests to
	// the registry, cluster and data source services
	ObserveUpstreamRequestDuration(operation, method, statusCode string, elapsed float64)
	// IncreaseUpstreamRequestErrors counts upstream requests that got no response
	IncreaseUpstreamRequestErrors(operation, method string)

	// IncreaseLockAcquisitions counts lock attempts by result
	IncreaseLockAcquisitions(result string)
	// IncreaseProvisionings counts finished creation calls by outcome
	IncreaseProvisionings(outcome string)
	// IncreaseOrphanedClusters counts clusters allocated by a creation call
	// that failed afterwards
	IncreaseOrphanedClusters()

	// TrackerStarted and TrackerFinished maintain the number of running
	// completion trackers and count how they ended
	TrackerStarted()
	TrackerFinished(outcome string)

	// ObserveCronTaskDuration stores the elapsed time for a cron task
	ObserveCronTaskDuration(name string, elapsed float64)
	// IncreaseCronTaskErrors stores the number of errors for a cron task
	IncreaseCronTaskErrors(name string)
}

type PrometheusProvider struct {
	Registry *prometheus.Registry

	httpRequestsDuration *prometheus.HistogramVec

	upstreamRequests      *prometheus.HistogramVec
	upstreamRequestErrors *prometheus.CounterVec

	lockAcquisitions *prometheus.CounterVec
	provisionings    *prometheus.CounterVec
	orphanedClusters prometheus.Counter
	activeTrackers   prometheus.Gauge
	trackerOutcomes  *prometheus.CounterVec

	cronTasksDuration *prometheus.HistogramVec
	cronTasksErrors   *prometheus.CounterVec
}

func NewPrometheusProvider() *PrometheusProvider {
	provider := &PrometheusProvider{}
	provider.Registry = prometheus.NewRegistry()
	options := prometheus.ProcessCollectorOpts{
		Namespace: metricsNamespace,
	}
	provider.Registry.MustRegister(prometheus.NewProcessCollector(options))
	provider.Registry.MustRegister(prometheus.NewGoCollector())

	provider.httpRequestsDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: httpNamespace,
			Name:      "requests",
			Help:      "Received http requests.",
		},
		[]string{"method", "handler", "status_code"},
	)
	provider.Registry.MustRegister(provider.httpRequestsDuration)

	provider.upstreamRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: upstreamNamespace,
			Name:      "requests",
			Help:      "Duration of the performed upstream http requests.",
		},
		[]string{"method", "operation", "status_code"},
	)
	provider.Registry.MustRegister(provider.upstreamRequests)

	provider.upstreamRequestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: upstreamNamespace,
			Name:      "errors",
			Help:      "Number of upstream requests that failed without a response.",
		},
		[]string{"method", "operation"},
	)
	provider.Registry.MustRegister(provider.upstreamRequestErrors)

	provider.lockAcquisitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: provisioningNamespace,
			Name:      "lock_acquisitions",
			Help:      "Number of cluster lock acquisition attempts by result.",
		},
		[]string{"result"},
	)
	provider.Registry.MustRegister(provider.lockAcquisitions)

	provider.provisionings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: provisioningNamespace,
			Name:      "requests",
			Help:      "Number of cluster creation requests by outcome.",
		},
		[]string{"outcome"},
	)
	provider.Registry.MustRegister(provider.provisionings)

	provider.orphanedClusters = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: provisioningNamespace,
			Name:      "orphaned_clusters",
			Help:      "Number of clusters allocated by creation requests that failed afterwards.",
		},
	)
	provider.Registry.MustRegister(provider.orphanedClusters)

	provider.activeTrackers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: provisioningNamespace,
			Name:      "active_trackers",
			Help:      "Number of clusters currently polled for completion.",
		},
	)
	provider.Registry.MustRegister(provider.activeTrackers)

	provider.trackerOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: provisioningNamespace,
			Name:      "tracker_outcomes",
			Help:      "Number of finished completion trackers by outcome.",
		},
		[]string{"outcome"},
	)
	provider.Registry.MustRegister(provider.trackerOutcomes)

	provider.cronTasksDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: cronNamespace,
			Name:      "tasks",
			Help:      "Duration for the executed cron tasks.",
		},
		[]string{"name"},
	)
	provider.Registry.MustRegister(provider.cronTasksDuration)

	provider.cronTasksErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: cronNamespace,
			Name:      "errors",
			Help:      "Number of failed cron tasks.",
		},
		[]string{"name"},
	)
	provider.Registry.MustRegister(provider.cronTasksErrors)

	return provider
}

func (p *PrometheusProvider) ObserveHTTPRequestDuration(handler, method, statusCode string, elapsed float64) {
	p.httpRequestsDuration.With(
		prometheus.Labels{"method": method, "handler": handler, "status_code": statusCode},
	).Observe(elapsed)
}

func (p *PrometheusProvider) ObserveUpstreamRequestDuration(operation, method, statusCode string, elapsed float64) {
	p.upstreamRequests.With(
		prometheus.Labels{"method": method, "operation": operation, "status_code": statusCode},
	).Observe(elapsed)
}

func (p *PrometheusProvider) IncreaseUpstreamRequestErrors(operation, method string) {
	p.upstreamRequestErrors.WithLabelValues(method, operation).Inc()
}

func (p *PrometheusProvider) IncreaseLockAcquisitions(result string) {
	p.lockAcquisitions.WithLabelValues(result).Inc()
}

func (p *PrometheusProvider) IncreaseProvisionings(outcome string) {
	p.provisionings.WithLabelValues(outcome).Inc()
}

func (p *PrometheusProvider) IncreaseOrphanedClusters() {
	p.orphanedClusters.Inc()
}

func (p *PrometheusProvider) TrackerStarted() {
	p.activeTrackers.Inc()
}

func (p *PrometheusProvider) TrackerFinished(outcome string) {
	p.activeTrackers.Dec()
	p.trackerOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusProvider) ObserveCronTaskDuration(name string, elapsed float64) {
	p.cronTasksDuration.With(prometheus.Labels{"name": name}).Observe(elapsed)
}

func (p *PrometheusProvider) IncreaseCronTaskErrors(name string) {
	p.cronTasksErrors.WithLabelValues(name).Inc()
}

func (p *PrometheusProvider) Handler() Handler {
	handler := promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{
		Timeout:           time.Duration(defaultPrometheusTimeoutSeconds) * time.Second,
		EnableOpenMetrics: true,
	})
	return Handler{
		Path:        "/metrics",
		Description: "Prometheus Metrics",
		Handler:     handler,
	}
}
