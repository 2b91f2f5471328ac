package models

import "time"

// ForecastEvent is published on the forecasts topic for every served forecast.
type ForecastEvent struct {
	Symbol          string    `json:"symbol"`
	Horizon         string    `json:"horizon"`
	Timestamp       time.Time `json:"timestamp"`
	PredictedReturn float64   `json:"pred_return"`
	Confidence      float64   `json:"confidence"`
	Models          int       `json:"models"`
	ServedAt        time.Time `json:"served_at"`
}

// RunCompletedEvent is published on the runs topic once a simulation is persisted.
type RunCompletedEvent struct {
	RunID     string             `json:"run_id"`
	Strategy  string             `json:"strategy"`
	Symbol    string             `json:"symbol"`
	Interval  string             `json:"interval"`
	Metrics   map[string]float64 `json:"results"`
	Trades    int                `json:"trades"`
	CreatedAt time.Time          `json:"created_at"`
}
