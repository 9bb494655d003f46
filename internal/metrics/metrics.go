// Package metrics exports simulation counters in the Prometheus text format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomz197/reactyl/internal/event"
	"github.com/tomz197/reactyl/internal/loop"
)

const namespace = "reactyl"

// Source publishes the latest snapshot. It must be safe to call from the
// scrape goroutine.
type Source interface {
	Snapshot() *loop.Snapshot
}

type gauge struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(*loop.Snapshot) float64
}

// Metrics owns a private registry holding the snapshot collector and the
// event counters.
type Metrics struct {
	registry  *prometheus.Registry
	src       Source
	gauges    []gauge
	reactions *prometheus.CounterVec
	errors    *prometheus.CounterVec
}

var _ prometheus.Collector = (*Metrics)(nil)

func desc(name, help string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil)
}

// New builds the metrics for src and registers them on a fresh registry.
func New(src Source) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		src:      src,
		reactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactions_completed_total",
			Help:      "Completed reactions by reaction type.",
		}, []string{"reaction"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Errors published by the simulation, by stage.",
		}, []string{"stage"}),
	}
	m.gauges = []gauge{
		{desc("tick", "Ticks that reached the physics step."), prometheus.GaugeValue,
			func(s *loop.Snapshot) float64 { return float64(s.Tick) }},
		{desc("molecules", "Molecules in the world."), prometheus.GaugeValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.Molecules) }},
		{desc("temperature_kelvin", "Environment temperature."), prometheus.GaugeValue,
			func(s *loop.Snapshot) float64 { return s.Temperature }},
		{desc("paused", "1 while the simulation is paused."), prometheus.GaugeValue,
			func(s *loop.Snapshot) float64 { return boolValue(s.Paused) }},
		{desc("grid_cells", "Occupied spatial grid cells."), prometheus.GaugeValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.GridCells) }},
		{desc("grid_mean_occupancy", "Mean molecules per occupied cell."), prometheus.GaugeValue,
			func(s *loop.Snapshot) float64 { return s.Stats.MeanOccupancy }},
		{desc("pair_checks_total", "Candidate pairs produced by the broad phase."), prometheus.CounterValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.PairChecks) }},
		{desc("collisions_total", "Confirmed collisions."), prometheus.CounterValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.Collisions) }},
		{desc("reactions_attempted_total", "Collisions evaluated for a reaction."), prometheus.CounterValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.ReactionsAttempted) }},
		{desc("reactions_succeeded_total", "Reactions applied."), prometheus.CounterValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.ReactionsSucceeded) }},
		{desc("reactions_failed_total", "Reactions that failed to apply."), prometheus.CounterValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.ReactionsFailed) }},
		{desc("hull_cache_hits_total", "Hull cache hits."), prometheus.CounterValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.HullHits) }},
		{desc("hull_rebuilds_total", "Hull rebuilds."), prometheus.CounterValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.HullRebuilds) }},
		{desc("transform_recomputes_total", "World transform recomputations."), prometheus.CounterValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.TransformRecomputes) }},
		{desc("narrow_skips_total", "Narrow phase tests skipped for insane hulls."), prometheus.CounterValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.NarrowSkips) }},
		{desc("pending_tasks", "Scheduled tasks not yet run."), prometheus.GaugeValue,
			func(s *loop.Snapshot) float64 { return float64(s.Stats.PendingTasks) }},
		{desc("kinetic_energy", "Total kinetic energy in amu·Å²/s²."), prometheus.GaugeValue,
			func(s *loop.Snapshot) float64 { return s.Stats.KineticEnergy }},
	}
	m.registry.MustRegister(m, m.reactions, m.errors)
	return m
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, g := range m.gauges {
		ch <- g.desc
	}
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	s := m.src.Snapshot()
	if s == nil {
		return
	}
	for _, g := range m.gauges {
		ch <- prometheus.MustNewConstMetric(g.desc, g.kind, g.value(s))
	}
}

// Observe counts completed reactions and errors published on bus. The
// returned func stops observing.
func (m *Metrics) Observe(bus *event.Bus) (stop func()) {
	stopDone := bus.Subscribe(event.KindReactionCompleted, func(e event.Event) {
		m.reactions.WithLabelValues(e.(event.ReactionCompleted).Reaction).Inc()
	})
	stopErr := bus.Subscribe(event.KindErrorOccurred, func(e event.Event) {
		m.errors.WithLabelValues(e.(event.ErrorOccurred).Stage).Inc()
	})
	return func() {
		stopDone()
		stopErr()
	}
}

// Registry exposes the private registry, for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
