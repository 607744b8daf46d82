package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tictactoe"

// Prometheus aggregates game metrics on a private registry.
type Prometheus struct {
	registry *prometheus.Registry

	Games     *prometheus.CounterVec
	Moves     prometheus.Histogram
	Rejected  prometheus.Counter
	Duration  prometheus.Histogram
	TableSize prometheus.Gauge
}

// NewPrometheus registers the game metrics of one subsystem ("train", "evaluate", ...).
func NewPrometheus(subsystem string) *Prometheus {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Prometheus{
		registry: registry,
		Games: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "games_total",
				Help:      "Finished games by winner (X, O or draw)",
			},
			[]string{"winner"},
		),
		Moves: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "game_moves",
			Help:      "Moves played per game",
			Buckets:   prometheus.LinearBuckets(5, 1, 5),
		}),
		Rejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rejected_moves_total",
			Help:      "Moves refused by the board",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "game_duration_seconds",
			Help:      "Wall time per game",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 10, 8),
		}),
		TableSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "value_table_states",
			Help:      "Canonical states in the value table",
		}),
	}
}

func (p *Prometheus) Record(m GameMetric) {
	p.Games.WithLabelValues(WinnerLabel(m.Winner)).Inc()
	p.Moves.Observe(float64(m.TotalMoves))
	p.Rejected.Add(float64(m.RejectedMoves))
	p.Duration.Observe(m.Duration.Seconds())
}

func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// WriteToTextfile dumps the registry in the text exposition format.
func (p *Prometheus) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}
