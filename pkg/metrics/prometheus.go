// Package metrics provides Prometheus metrics for the wheel.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for load fallbacks.
const (
	FallbackMissing    = "missing"
	FallbackMalformed  = "malformed"
	FallbackUnreadable = "unreadable"
)

// Manager manages all Prometheus metrics for the wheel.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         *prometheus.Registry

	// Spin outcomes
	spins    prometheus.Counter
	noWinner prometheus.Counter
	wins     *prometheus.CounterVec
	rescales prometheus.Counter

	// Weight state
	entrantWeight *prometheus.GaugeVec
	totalWeight   prometheus.Gauge
	entrants      prometheus.Gauge

	// Persistence
	loadFallbacks *prometheus.CounterVec
	saves         prometheus.Counter
	saveErrors    prometheus.Counter
	saveLatency   prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wheel",
		subsystem:        "selector",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250},
		constLabels:      make(map[string]string),
		registry:         prometheus.NewRegistry(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.spins = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "spins_total",
		Help:        "Total number of spins requested",
		ConstLabels: m.constLabels,
	})

	m.noWinner = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "no_winner_total",
		Help:        "Total number of spins whose draw produced no winner",
		ConstLabels: m.constLabels,
	})

	m.wins = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "wins_total",
			Help:        "Total number of wins by entrant",
			ConstLabels: m.constLabels,
		},
		[]string{"entrant"},
	)

	m.rescales = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rescales_total",
		Help:        "Total number of times the weight vector was halved to stay under the cap",
		ConstLabels: m.constLabels,
	})

	m.entrantWeight = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "entrant_weight",
			Help:        "Current weight of each entrant",
			ConstLabels: m.constLabels,
		},
		[]string{"entrant"},
	)

	m.totalWeight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "total_weight",
		Help:        "Sum of all entrant weights",
		ConstLabels: m.constLabels,
	})

	m.entrants = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "entrants",
		Help:        "Number of entrants on the wheel",
		ConstLabels: m.constLabels,
	})

	m.loadFallbacks = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   "store",
			Name:        "load_fallbacks_total",
			Help:        "Total number of loads that fell back to default weights, by reason",
			ConstLabels: m.constLabels,
		},
		[]string{"reason"},
	)

	m.saves = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "store",
		Name:        "saves_total",
		Help:        "Total number of successful weight saves",
		ConstLabels: m.constLabels,
	})

	m.saveErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "store",
		Name:        "save_errors_total",
		Help:        "Total number of failed weight saves",
		ConstLabels: m.constLabels,
	})

	m.saveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "store",
		Name:        "save_latency_milliseconds",
		Help:        "Weight save latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})
}

// RecordSpin counts a spin and, when won, the winner.
func (m *Manager) RecordSpin(winner string, won bool) {
	m.spins.Inc()
	if !won {
		m.noWinner.Inc()
		return
	}
	m.wins.WithLabelValues(winner).Inc()
}

// RecordRescale increments the rescale counter.
func (m *Manager) RecordRescale() {
	m.rescales.Inc()
}

// UpdateWeights publishes the whole weight vector.
// With duplicate names the last position wins the gauge.
func (m *Manager) UpdateWeights(names []string, weights []int) {
	var total float64
	for i, name := range names {
		if i >= len(weights) {
			break
		}
		m.entrantWeight.WithLabelValues(name).Set(float64(weights[i]))
		total += float64(weights[i])
	}
	m.totalWeight.Set(total)
	m.entrants.Set(float64(len(names)))
}

// RecordLoadFallback counts a load that used default weights.
func (m *Manager) RecordLoadFallback(reason string) {
	m.loadFallbacks.WithLabelValues(reason).Inc()
}

// RecordSave records a save attempt and its latency.
func (m *Manager) RecordSave(latencyMs float64, err error) {
	m.saveLatency.Observe(latencyMs)
	if err != nil {
		m.saveErrors.Inc()
		return
	}
	m.saves.Inc()
}

// Registry returns the registry the manager's metrics live on.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the manager's metrics in the text exposition format,
// for pickup by the node exporter textfile collector.
func (m *Manager) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteTextfile, path, err)
	}
	return nil
}

// Package-level helpers delegate to the global manager.

// Default returns the global metrics manager.
func Default() *Manager {
	return globalManager
}

// RecordSpin counts a spin on the global manager.
func RecordSpin(winner string, won bool) {
	globalManager.RecordSpin(winner, won)
}

// RecordRescale increments the global rescale counter.
func RecordRescale() {
	globalManager.RecordRescale()
}

// UpdateWeights publishes the weight vector on the global manager.
func UpdateWeights(names []string, weights []int) {
	globalManager.UpdateWeights(names, weights)
}

// RecordLoadFallback counts a default-weights load on the global manager.
func RecordLoadFallback(reason string) {
	globalManager.RecordLoadFallback(reason)
}

// RecordSave records a save attempt on the global manager.
func RecordSave(latencyMs float64, err error) {
	globalManager.RecordSave(latencyMs, err)
}

// WriteTextfile writes the global metrics to path.
func WriteTextfile(path string) error {
	return globalManager.WriteTextfile(path)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
