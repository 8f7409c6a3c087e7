// Package metrics exports the outcome of a retention run in the Prometheus
// text format, for the node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"vaultwarden-retention/internal/retention"
)

const namespace = "vaultwarden_retention"

// RunMetrics holds the gauges describing one run. Each run uses its own
// registry since the process exits after a single pass.
type RunMetrics struct {
	registry *prometheus.Registry

	objectsListed      prometheus.Gauge
	artifactsProcessed prometheus.Gauge
	artifactsKept      prometheus.Gauge
	artifactsDeleted   prometheus.Gauge
	skippedUndated     prometheus.Gauge
	bytesReclaimed     prometheus.Gauge
	lastRunSuccess     prometheus.Gauge
	lastRunTimestamp   prometheus.Gauge
	runDuration        prometheus.Gauge
	failures           *prometheus.GaugeVec
	policy             *prometheus.GaugeVec
}

func newGauge(registry *prometheus.Registry, name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
	registry.MustRegister(g)
	return g
}

// NewRunMetrics creates the gauges on a fresh registry
func NewRunMetrics() *RunMetrics {
	registry := prometheus.NewRegistry()

	m := &RunMetrics{
		registry:           registry,
		objectsListed:      newGauge(registry, "objects_listed", "Objects returned by the remote listing."),
		artifactsProcessed: newGauge(registry, "artifacts_listed", "Dated backup artifacts in the catalog."),
		artifactsKept:      newGauge(registry, "artifacts_kept", "Artifacts retained by the policy."),
		artifactsDeleted:   newGauge(registry, "artifacts_deleted", "Artifacts deleted by the run."),
		skippedUndated:     newGauge(registry, "artifacts_skipped_undated", "Artifacts ignored because their name carries no parsable date."),
		bytesReclaimed:     newGauge(registry, "bytes_reclaimed", "Bytes freed by deleted artifacts."),
		lastRunSuccess:     newGauge(registry, "last_run_success", "1 if the last run finished without listing or deletion failure."),
		lastRunTimestamp:   newGauge(registry, "last_run_timestamp_seconds", "Start time of the last run as a unix timestamp."),
		runDuration:        newGauge(registry, "run_duration_seconds", "Wall clock duration of the last run."),
		failures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failures",
			Help:      "Failures of the last run by type.",
		}, []string{"type"}),
		policy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "policy_info",
			Help:      "Active retention mode and whether the run was a dry run.",
		}, []string{"mode", "dry_run"}),
	}
	registry.MustRegister(m.failures, m.policy)

	// Export zero values for every failure type so alerts can use them
	for _, t := range []retention.RetentionErrorType{retention.ErrorTypeListing, retention.ErrorTypeDeletion} {
		m.failures.WithLabelValues(string(t)).Set(0)
	}

	return m
}

// Registry returns the registry holding the run gauges
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Record sets the gauges from a run result. err is the error returned by the run.
func (m *RunMetrics) Record(result *retention.RetentionResult, err error) {
	if result == nil {
		return
	}

	m.objectsListed.Set(float64(result.ObjectsListed))
	m.artifactsProcessed.Set(float64(result.ArtifactsProcessed))
	m.artifactsKept.Set(float64(result.ArtifactsKept))
	m.skippedUndated.Set(float64(result.SkippedUndated))
	// A dry run plans deletions without performing them
	if !result.DryRun {
		m.artifactsDeleted.Set(float64(result.ArtifactsDeleted))
		m.bytesReclaimed.Set(float64(result.BytesReclaimed))
	}
	m.lastRunTimestamp.Set(float64(result.StartedAt.Unix()))
	m.runDuration.Set(result.ProcessingTime.Seconds())

	if result.Success() {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}

	switch {
	case retention.IsListingFailure(err):
		m.failures.WithLabelValues(string(retention.ErrorTypeListing)).Set(1)
	case retention.IsDeletionFailure(err):
		m.failures.WithLabelValues(string(retention.ErrorTypeDeletion)).Set(1)
	}

	m.policy.WithLabelValues(string(result.Mode), fmt.Sprintf("%t", result.DryRun)).Set(1)
}

// WriteToTextfile atomically writes the gauges to path
func (m *RunMetrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
