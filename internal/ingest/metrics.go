package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "clipstash"
	metricsSubsystem = "ingest"
)

// Metrics holds the ingest counters.
type Metrics struct {
	batches         *prometheus.CounterVec // Batches by source and outcome
	committed       prometheus.Counter     // Items committed to history
	blobFailures    prometheus.Counter     // Failed blob writes
	inlineFallbacks prometheus.Counter     // Failed writes kept as inline data
	queueDepth      prometheus.Gauge       // Batches waiting for the worker

	registry *prometheus.Registry
}

// NewMetrics creates the ingest metrics and registers them with reg. A nil
// registerer leaves them unregistered; collectors already present in reg
// are shared.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "batches_total",
			Help:      "Ingest batches by source and outcome",
		}, []string{"source", "outcome"}),

		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "items_committed_total",
			Help:      "Items committed to history",
		}),

		blobFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "blob_write_failures_total",
			Help:      "Blob writes that failed",
		}),

		inlineFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "inline_fallbacks_total",
			Help:      "Failed blob writes kept as inline data",
		}),

		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "queue_depth",
			Help:      "Batches waiting for the ingest worker",
		}),
	}
	if reg != nil {
		var err error
		if m.batches, err = register(reg, m.batches); err != nil {
			return nil, err
		}
		if m.committed, err = register(reg, m.committed); err != nil {
			return nil, err
		}
		if m.blobFailures, err = register(reg, m.blobFailures); err != nil {
			return nil, err
		}
		if m.inlineFallbacks, err = register(reg, m.inlineFallbacks); err != nil {
			return nil, err
		}
		if m.queueDepth, err = register(reg, m.queueDepth); err != nil {
			return nil, err
		}
	}
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	return m, nil
}

// register adds c to reg, reusing the collector already registered under
// the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("register %T: %w", c, err)
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.batches, m.committed, m.blobFailures, m.inlineFallbacks, m.queueDepth}
}

func (m *Metrics) recordBatch(source Source, outcome Outcome, committed int) {
	m.batches.WithLabelValues(string(source), outcome.String()).Inc()
	m.committed.Add(float64(committed))
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Batches         map[string]float64 `json:"batches" yaml:"batches"`
	Committed       float64            `json:"committed" yaml:"committed"`
	BlobFailures    float64            `json:"blob_failures" yaml:"blob_failures"`
	InlineFallbacks float64            `json:"inline_fallbacks" yaml:"inline_fallbacks"`
	QueueDepth      float64            `json:"queue_depth" yaml:"queue_depth"`
}

// Snapshot gathers the current counter values. Batch keys are
// "<source>/<outcome>".
func (m *Metrics) Snapshot() (Snapshot, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Snapshot{}, fmt.Errorf("gather ingest metrics: %w", err)
	}
	snap := Snapshot{Batches: map[string]float64{}}
	for _, family := range families {
		name := strings.TrimPrefix(family.GetName(), metricsNamespace+"_"+metricsSubsystem+"_")
		for _, metric := range family.GetMetric() {
			switch name {
			case "batches_total":
				key := labelValue(metric.GetLabel(), "source") + "/" + labelValue(metric.GetLabel(), "outcome")
				snap.Batches[key] = metric.GetCounter().GetValue()
			case "items_committed_total":
				snap.Committed = metric.GetCounter().GetValue()
			case "blob_write_failures_total":
				snap.BlobFailures = metric.GetCounter().GetValue()
			case "inline_fallbacks_total":
				snap.InlineFallbacks = metric.GetCounter().GetValue()
			case "queue_depth":
				snap.QueueDepth = metric.GetGauge().GetValue()
			}
		}
	}
	return snap, nil
}

type labelPair interface {
	GetName() string
	GetValue() string
}

func labelValue[L labelPair](labels []L, name string) string {
	for _, l := range labels {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}
