// Package metrics counts lab book activity on a private Prometheus registry.
// The CLI is short-lived, so counters are exported through the node exporter
// textfile convention rather than an HTTP endpoint. Each run seeds its
// counters from the existing textfile before adding its own counts, so the
// exported _total series keep growing across runs.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"

	"github.com/hyperengineering/labbook/internal/types"
)

// Metrics implements store.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	entitiesCreated      *prometheus.CounterVec
	observationsRecorded *prometheus.CounterVec
	inventoryQueries     *prometheus.CounterVec
	writeFailures        *prometheus.CounterVec
}

// New registers the lab book counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		entitiesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "labbook_entities_created_total",
			Help: "Total number of entities created, by kind",
		}, []string{"kind"}),
		observationsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "labbook_observations_recorded_total",
			Help: "Total number of observations upserted, by kind",
		}, []string{"kind"}),
		inventoryQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "labbook_inventory_queries_total",
			Help: "Total number of point-in-time inventory queries, by kind",
		}, []string{"kind"}),
		writeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "labbook_write_failures_total",
			Help: "Total number of rejected or rolled back writes, by reason",
		}, []string{"reason"}),
	}
}

func (m *Metrics) EntityCreated(kind types.Kind) {
	m.entitiesCreated.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) ObservationRecorded(kind types.Kind) {
	m.observationsRecorded.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) InventoryQueried(kind types.Kind) {
	m.inventoryQueries.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) WriteFailed(reason string) {
	m.writeFailures.WithLabelValues(reason).Inc()
}

// Gatherer exposes the registry for export and tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// LoadTextfile adds the counter values found in a previously written
// textfile at path. A missing file is not an error. Series of unknown
// families, and negative or non-finite values, are ignored.
func (m *Metrics) LoadTextfile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open metrics textfile: %w", err)
	}
	defer f.Close()

	parser := expfmt.NewTextParser(model.UTF8Validation)
	families, err := parser.TextToMetricFamilies(f)
	if err != nil {
		return fmt.Errorf("parse metrics textfile: %w", err)
	}

	vecs := map[string]struct {
		vec   *prometheus.CounterVec
		label string
	}{
		"labbook_entities_created_total":      {m.entitiesCreated, "kind"},
		"labbook_observations_recorded_total": {m.observationsRecorded, "kind"},
		"labbook_inventory_queries_total":     {m.inventoryQueries, "kind"},
		"labbook_write_failures_total":        {m.writeFailures, "reason"},
	}
	for name, family := range families {
		target, ok := vecs[name]
		if !ok {
			continue
		}
		for _, metric := range family.GetMetric() {
			v := metric.GetCounter().GetValue()
			if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
				continue
			}
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == target.label {
					target.vec.WithLabelValues(lp.GetValue()).Add(v)
				}
			}
		}
	}
	return nil
}

// WriteTextfile writes the current counters to path in the Prometheus text
// format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create metrics directory: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
