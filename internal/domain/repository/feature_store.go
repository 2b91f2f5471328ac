package repository

import (
	"context"
	"time"

	"Lenxys/internal/domain/models"
)

// CandleStore provides access to stored OHLCV candles.
type CandleStore interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
	StoreCandles(ctx context.Context, candles []models.Candle) error
}

// FeatureReader resolves the most recent feature vector at or before a timestamp.
// A nil vector with a nil error means no data exists.
type FeatureReader interface {
	LatestFeatureVector(ctx context.Context, symbol, interval string, atOrBefore time.Time) (*models.FeatureVector, error)
}

// FeatureStore provides read/write access to candles and derived features.
type FeatureStore interface {
	CandleStore
	FeatureReader
	// FeatureVectors returns all vectors for (symbol, interval) in ascending time order.
	FeatureVectors(ctx context.Context, symbol, interval string) ([]models.FeatureVector, error)
	// WriteFeatures upserts one row per (symbol, interval, timestamp).
	WriteFeatures(ctx context.Context, rows []models.FeatureVector) error
}
