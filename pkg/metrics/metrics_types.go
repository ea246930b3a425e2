package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics of one compile pass. Scoped to the pass,
// never global, so concurrent test runs keep separate registries.
type Registry struct {
	registry *prometheus.Registry

	// Pipeline metrics
	StageDuration   *prometheus.HistogramVec
	StageErrors     *prometheus.CounterVec
	AgentsCompiled  prometheus.Gauge
	WarningsTotal   *prometheus.CounterVec

	// Allocation metrics
	AllocationsByRule *prometheus.CounterVec
	BlocksMinted      *prometheus.CounterVec

	// Artifact metrics
	ArtifactBytes *prometheus.GaugeVec
}

// Prometheus returns the underlying registry for gathering or export.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}
