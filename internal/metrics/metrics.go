// Package metrics counts generated passwords for the Prometheus node_exporter
// textfile collector. Only counts and bit totals are recorded.
package metrics

import (
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/verte-zerg/molishai/internal/password"
)

const namespace = "molishai"

// Metrics holds the generation collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	model    string

	GenerationsTotal *prometheus.CounterVec
	BitsTotal        *prometheus.CounterVec
	SymbolBits       *prometheus.HistogramVec
	PasswordRunes    *prometheus.HistogramVec
}

// New registers the collectors. Every sample is labelled with modelName.
func New(modelName string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		model:    modelName,
		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generations_total",
				Help:      "Passwords generated.",
			},
			[]string{"model"},
		),
		BitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bits_total",
				Help:      "Random bits consumed by generated passwords.",
			},
			[]string{"model"},
		),
		SymbolBits: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "symbol_bits",
				Help:      "Bits consumed per emitted symbol.",
				Buckets:   []float64{0, 1, 2, 3, 4, 5, 6, 8},
			},
			[]string{"model"},
		),
		PasswordRunes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "password_runes",
				Help:      "Characters per generated password.",
				Buckets:   prometheus.LinearBuckets(4, 4, 10),
			},
			[]string{"model"},
		),
	}
	m.registry.MustRegister(m.GenerationsTotal, m.BitsTotal, m.SymbolBits, m.PasswordRunes)
	return m
}

// Observe records one result.
func (m *Metrics) Observe(r password.Result) {
	m.GenerationsTotal.WithLabelValues(m.model).Inc()
	m.BitsTotal.WithLabelValues(m.model).Add(float64(len(r.Bits)))
	symbolBits := m.SymbolBits.WithLabelValues(m.model)
	for _, s := range r.Symbols {
		symbolBits.Observe(float64(s.Bits))
	}
	m.PasswordRunes.WithLabelValues(m.model).Observe(float64(utf8.RuneCountInString(r.Password)))
}

// Observer adapts m to a password generator option.
func (m *Metrics) Observer() password.Observer {
	return m.Observe
}

// Registry exposes the private registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all samples in the text exposition format. The file
// is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
