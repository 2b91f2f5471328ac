package models

import (
	"strings"
	"time"
)

// Signal is a discrete trading decision.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// ParseSignal normalizes s; anything other than buy/sell is a hold.
func ParseSignal(s string) Signal {
	switch Signal(strings.ToLower(strings.TrimSpace(s))) {
	case SignalBuy:
		return SignalBuy
	case SignalSell:
		return SignalSell
	default:
		return SignalHold
	}
}

// Side of a fill.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Metric keys of a backtest result.
const (
	MetricPnL            = "pnl"
	MetricMaxDrawdown    = "max_drawdown"
	MetricSharpe         = "sharpe"
	MetricPredictionBias = "prediction_bias"
)

// Position is the single open long position of a backtest.
type Position struct {
	EntryPrice float64 `json:"entry_price"`
	Quantity   float64 `json:"quantity"`
}

// Trade records one position from entry to exit. Exit fields stay nil while open.
type Trade struct {
	Symbol          string     `json:"symbol,omitempty"`
	EntryTS         time.Time  `json:"entry_ts"`
	ExitTS          *time.Time `json:"exit_ts"`
	EntryPrice      float64    `json:"entry_price"`
	ExitPrice       *float64   `json:"exit_price"`
	Quantity        float64    `json:"quantity"`
	PnL             *float64   `json:"pnl"`
	PredictedReturn *float64   `json:"predicted_return"`
	Confidence      *float64   `json:"confidence"`
	RealizedReturn  *float64   `json:"realized_return"`
}

// Open reports whether the trade has not been closed yet.
func (t Trade) Open() bool { return t.ExitTS == nil }

// EquityPoint is account value after one processed event.
type EquityPoint struct {
	Timestamp       time.Time `json:"timestamp"`
	Equity          float64   `json:"equity"`
	PredictedReturn *float64  `json:"predicted_return"`
	Confidence      *float64  `json:"confidence"`
}

// BacktestResult is the finalized snapshot of a backtest run.
type BacktestResult struct {
	Trades      []Trade            `json:"trades"`
	EquityCurve []EquityPoint      `json:"equity_curve"`
	Metrics     map[string]float64 `json:"metrics"`
}

// SimRun is a persisted simulation run.
type SimRun struct {
	RunID       string             `json:"run_id"`
	Strategy    string             `json:"strategy"`
	Symbol      string             `json:"symbol"`
	Interval    string             `json:"interval"`
	Horizon     string             `json:"horizon"`
	Metrics     map[string]float64 `json:"results"`
	Trades      []Trade            `json:"trades"`
	EquityCurve []EquityPoint      `json:"equity_curve"`
	CreatedAt   time.Time          `json:"created_at"`
}

// DailyReport summarises the latest simulation runs.
type DailyReport struct {
	Date          string            `json:"date"`
	GeneratedAt   time.Time         `json:"generated_at"`
	Summary       string            `json:"summary"`
	TopStrategies []StrategySummary `json:"top_strategies"`
	Charts        []string          `json:"charts"`
}

// StrategySummary is one line of a daily report.
type StrategySummary struct {
	Strategy string  `json:"strategy"`
	Symbol   string  `json:"symbol"`
	PnL      float64 `json:"pnl"`
}
