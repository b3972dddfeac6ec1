// Package metrics provides Prometheus metrics for dnsyncmyip.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "dnsyncmyip"

// Sync outcome label values.
const (
	ResultCreated   = "created"
	ResultUpdated   = "updated"
	ResultUnchanged = "unchanged"
	ResultError     = "error"
)

var (
	// SyncsTotal counts sync runs by outcome.
	SyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "syncs_total",
		Help:      "Total number of sync runs by result.",
	}, []string{"result"})

	// SyncDuration observes the wall time of each sync run.
	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "sync_duration_seconds",
		Help:      "Duration of sync runs in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// LastSyncTimestamp is the unix time of the last successful sync.
	LastSyncTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_sync_timestamp_seconds",
		Help:      "Unix time of the last successful sync.",
	})

	// RecordWritesTotal counts record writes sent to a provider.
	RecordWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "record_writes_total",
		Help:      "Total number of record writes by provider and action.",
	}, []string{"provider", "action"})

	// ProviderErrorsTotal counts failed provider operations.
	ProviderErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "provider_errors_total",
		Help:      "Total number of failed provider operations.",
	}, []string{"provider", "operation"})

	// DiscoveryFailuresTotal counts failed public IP lookups.
	DiscoveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "discovery_failures_total",
		Help:      "Total number of failed public IP discoveries.",
	})

	// PublicIPInfo carries the last discovered address as a label.
	PublicIPInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "public_ip_info",
		Help:      "Last discovered public IP address (value is always 1).",
	}, []string{"ip"})

	// BuildInfo exposes version information.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information (value is always 1).",
	}, []string{"version", "go_version"})
)

// SetBuildInfo records the running version.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// SetPublicIP replaces the published address label.
func SetPublicIP(ip string) {
	PublicIPInfo.Reset()
	PublicIPInfo.WithLabelValues(ip).Set(1)
}
