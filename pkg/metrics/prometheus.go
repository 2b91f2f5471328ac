package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecasts       *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	simulationPnL   *prometheus.GaugeVec
	simulations     *prometheus.CounterVec
	candlesIngested *prometheus.CounterVec
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lenxys_forecasts_total",
				Help: "Ensemble forecasts by horizon and outcome",
			},
			[]string{"horizon", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lenxys_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lenxys_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		simulationPnL: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lenxys_simulation_last_pnl",
				Help: "PnL of the most recent simulation per strategy and symbol",
			},
			[]string{"strategy", "symbol"},
		),
		simulations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lenxys_simulations_total",
				Help: "Completed simulations",
			},
			[]string{"strategy"},
		),
		candlesIngested: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lenxys_candles_ingested_total",
				Help: "Candles persisted from the ingest topic",
			},
			[]string{"symbol"},
		),
	}
}

// RecordForecast counts one forecast attempt. outcome is "ok" or an error class.
func (r *Recorder) RecordForecast(horizon, outcome string) {
	r.forecasts.WithLabelValues(horizon, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordSimulation records a finished simulation.
func (r *Recorder) RecordSimulation(strategy, symbol string, pnl float64) {
	r.simulations.WithLabelValues(strategy).Inc()
	r.simulationPnL.WithLabelValues(strategy, symbol).Set(pnl)
}

// RecordCandlesIngested adds n persisted candles for symbol.
func (r *Recorder) RecordCandlesIngested(symbol string, n int) {
	r.candlesIngested.WithLabelValues(symbol).Add(float64(n))
}
