package service

import (
	"context"
	"errors"
	"time"

	"Lenxys/internal/domain/models"
)

// Forecast failures. All are recoverable by the caller.
var (
	ErrUnsupportedHorizon = errors.New("unsupported horizon")
	ErrNoFeatureData      = errors.New("no feature data")
	ErrNoModelsRegistered = errors.New("no models registered")
	ErrNoUsablePrediction = errors.New("no usable prediction")
	// ErrArtifactNotFound is returned by model loaders; the ensemble skips the candidate.
	ErrArtifactNotFound = errors.New("model artifact not found")
)

// IsForecastUnavailable reports whether err means no forecast can be produced
// for the request, as opposed to an infrastructure failure.
func IsForecastUnavailable(err error) bool {
	return errors.Is(err, ErrUnsupportedHorizon) ||
		errors.Is(err, ErrNoFeatureData) ||
		errors.Is(err, ErrNoModelsRegistered) ||
		errors.Is(err, ErrNoUsablePrediction)
}

// Forecaster produces an ensemble forecast for a symbol and horizon as of ts.
type Forecaster interface {
	Predict(ctx context.Context, symbol, horizon string, ts time.Time) (*models.EnsembleResult, error)
}

// SignalDecider turns a forecast into a trading decision. Nil inputs mean no forecast.
type SignalDecider interface {
	Decide(predictedReturn, confidence *float64, horizon string) models.Signal
}
