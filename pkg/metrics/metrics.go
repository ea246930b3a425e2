// Package metrics instruments the compile pass. The pipeline is a batch
// process, so gathered metrics are dumped to a textfile at the end of
// the pass rather than scraped.
package metrics

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// NewRegistry creates a metrics registry for one compile pass.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.StageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shadowforge_stage_duration_seconds",
			Help:    "Wall time spent per pipeline stage",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
		[]string{"stage"},
	)

	r.StageErrors = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shadowforge_stage_errors_total",
			Help: "Hard errors per pipeline stage",
		},
		[]string{"stage"},
	)

	r.AgentsCompiled = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "shadowforge_agents_compiled",
			Help: "Number of agents in the compiled network",
		},
	)

	r.WarningsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shadowforge_warnings_total",
			Help: "Soft warnings emitted during compilation",
		},
		[]string{"kind"},
	)

	r.AllocationsByRule = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shadowforge_address_allocations_total",
			Help: "Addresses allocated, by priority chain rule",
		},
		[]string{"rule"},
	)

	r.BlocksMinted = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "shadowforge_subnet_blocks_minted_total",
			Help: "Subnet blocks minted, by kind (as, group)",
		},
		[]string{"kind"},
	)

	r.ArtifactBytes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shadowforge_artifact_bytes",
			Help: "Size of each written artifact",
		},
		[]string{"artifact"},
	)

	return r
}

// ObserveStage records one stage's wall time.
func (r *Registry) ObserveStage(stage string, d time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordAllocation counts one address allocation under its chain rule.
func (r *Registry) RecordAllocation(rule string) {
	r.AllocationsByRule.WithLabelValues(rule).Inc()
}

// RecordWarning counts one soft warning.
func (r *Registry) RecordWarning(kind string) {
	r.WarningsTotal.WithLabelValues(kind).Inc()
}

// RecordStageError counts one hard error.
func (r *Registry) RecordStageError(stage string) {
	r.StageErrors.WithLabelValues(stage).Inc()
}

// WriteTextfile dumps the gathered metrics in Prometheus text format,
// for the node-exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer f.Close()
	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, fam := range families {
		if err := enc.Encode(fam); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}
