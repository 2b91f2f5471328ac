package usecase

import (
	domrepo "Lenxys/internal/domain/repository"
)

type nopMetrics struct{}

func (nopMetrics) RecordForecast(string, string)            {}
func (nopMetrics) RecordError(string)                       {}
func (nopMetrics) RecordLatency(string, float64)            {}
func (nopMetrics) RecordSimulation(string, string, float64) {}
func (nopMetrics) RecordCandlesIngested(string, int)        {}

func metricsOrNop(m domrepo.Metrics) domrepo.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

// Forecast outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeCacheHit    = "cache_hit"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)
