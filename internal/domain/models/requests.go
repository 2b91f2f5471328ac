package models

// Requests for HTTP endpoints. Defined in domain for consistency and reuse.

type ForecastRequest struct {
	Symbol    string `json:"symbol" validate:"required"`
	Horizon   string `json:"horizon" default:"1h" validate:"required"`
	Timestamp string `json:"timestamp"`
}

type BatchForecastRequest struct {
	Symbols   string `query:"symbols" validate:"required"`
	Horizon   string `query:"horizon" validate:"required"`
	Timestamp string `query:"timestamp"`
}

type SimRequest struct {
	Symbol   string `json:"symbol" validate:"required"`
	Interval string `json:"interval" default:"1m" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	Strategy string `json:"strategy" default:"ensemble" validate:"oneof=ensemble baseline"`
	Horizon  string `json:"horizon"`
}

type ListRunsRequest struct {
	Limit int `query:"limit" default:"10" validate:"gte=1,lte=200"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	TF     string `query:"tf" default:"1m" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

type GenerateFeaturesRequest struct {
	Symbol   string `json:"symbol" validate:"required"`
	Interval string `json:"interval" default:"1m" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	Limit    int    `json:"limit" validate:"gte=0"`
}

type InvalidateModelsRequest struct {
	ModelID string `json:"model_id"`
}

type ReportRequest struct {
	Date string `query:"date"`
}

type ListModelsRequest struct {
	Symbol  string `query:"symbol"`
	Horizon string `query:"horizon"`
}

type RegisterModelRequest struct {
	ModelID        string             `json:"model_id" validate:"required"`
	Symbol         string             `json:"symbol" validate:"required"`
	Horizon        string             `json:"horizon" validate:"required"`
	FeatureColumns []string           `json:"feature_columns" validate:"required,min=1"`
	TestRMSE       *float64           `json:"test_rmse" validate:"omitempty,gt=0"`
	Intercept      *float64           `json:"intercept"`
	Coefficients   map[string]float64 `json:"coefficients"`
}
