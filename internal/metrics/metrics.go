// Package metrics exposes the ledger host's Prometheus collectors.
//
// Collectors live on a private registry so tests and multiple hosts in one
// process never collide on the global default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fundledger"

// Metrics holds the host's collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry    *prometheus.Registry
	commands    *prometheus.CounterVec
	transferred *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Submitted commands by command name and outcome.",
		}, []string{"command", "outcome"}),
		transferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transferred_total",
			Help:      "Value moved by successful commands.",
		}, []string{"command"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Wall time spent executing a command, storage included.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}, []string{"command"}),
	}
	m.registry.MustRegister(m.commands, m.transferred, m.duration)
	return m
}

// ObserveCommand records one finished command.
func (m *Metrics) ObserveCommand(command, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if command == "" {
		command = "undecoded"
	}
	m.commands.WithLabelValues(command, outcome).Inc()
	m.duration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// AddTransferred records value moved by a successful command.
func (m *Metrics) AddTransferred(command string, amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.transferred.WithLabelValues(command).Add(float64(amount))
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
