package models

import "time"

// SplitMetrics holds evaluation metrics of a model on one data split.
type SplitMetrics struct {
	RMSE *float64 `json:"rmse,omitempty"`
}

// ModelMetrics groups the recorded metrics of a trained model.
type ModelMetrics struct {
	Test *SplitMetrics `json:"test,omitempty"`
}

// TestRMSE returns the recorded test RMSE, or nil when none was recorded.
func (m *ModelMetrics) TestRMSE() *float64 {
	if m == nil || m.Test == nil {
		return nil
	}
	return m.Test.RMSE
}

// CandidateModel describes a registered model for a (symbol, horizon) pair.
// FeatureColumns is ordered as the model expects its inputs.
type CandidateModel struct {
	ModelID        string        `json:"model_id"`
	Symbol         string        `json:"symbol"`
	Horizon        string        `json:"horizon"`
	FeatureColumns []string      `json:"feature_columns"`
	Metrics        *ModelMetrics `json:"metrics,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ModelListing lists stored artifacts and, when a (symbol, horizon) pair is
// given, the candidates registered for it.
type ModelListing struct {
	Artifacts  []string         `json:"models"`
	Candidates []CandidateModel `json:"candidates,omitempty"`
}

// ModelContribution is one model's share of an ensemble forecast.
type ModelContribution struct {
	ModelID    string   `json:"model_id"`
	Prediction float64  `json:"prediction"`
	Weight     float64  `json:"weight"`
	RMSE       *float64 `json:"rmse"`
}

// EnsembleResult is a blended forecast. Timestamp is the timestamp of the
// feature vector used, not the query time.
type EnsembleResult struct {
	Symbol          string              `json:"symbol"`
	Horizon         string              `json:"horizon"`
	Timestamp       time.Time           `json:"timestamp"`
	PredictedReturn float64             `json:"pred_return"`
	Confidence      float64             `json:"confidence"`
	Models          []ModelContribution `json:"models"`
}

// ForecastItem is a per-symbol entry of a batch forecast: either a result or an error.
type ForecastItem struct {
	Symbol    string          `json:"symbol"`
	Horizon   string          `json:"horizon"`
	Timestamp time.Time       `json:"timestamp"`
	Result    *EnsembleResult `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}
