package repository

import (
	"context"
	"errors"

	"Lenxys/internal/domain/models"
)

// ErrRunNotFound is returned by RunStore.GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// RunStore persists simulation runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.SimRun) error
	GetRun(ctx context.Context, runID string) (*models.SimRun, error)
	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]models.SimRun, error)
}

// EventPublisher emits domain events to the message bus.
type EventPublisher interface {
	PublishForecast(ctx context.Context, ev models.ForecastEvent) error
	PublishRunCompleted(ctx context.Context, ev models.RunCompletedEvent) error
	Close() error
}

type Metrics interface {
	RecordForecast(horizon, outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordSimulation(strategy, symbol string, pnl float64)
	RecordCandlesIngested(symbol string, n int)
}
