package backtest

import (
	"time"

	"Lenxys/internal/domain/models"
	"Lenxys/internal/services/execution"
)

// Config holds the account parameters of a backtest.
type Config struct {
	InitialCapital  float64 `yaml:"initial_capital" default:"10000"`
	PositionSizePct float64 `yaml:"position_size_pct" default:"0.95"`
	// Symbol tags produced trades. Optional.
	Symbol string `yaml:"-"`
}

// DefaultConfig returns 10000 capital with 95% of cash per entry.
func DefaultConfig() Config {
	return Config{InitialCapital: 10_000, PositionSizePct: 0.95}
}

// State is the position state of a backtest.
type State int

const (
	Flat State = iota
	Long
)

func (s State) String() string {
	if s == Long {
		return "long"
	}
	return "flat"
}

// Event is one time-ordered market observation with the decision for it.
type Event struct {
	Timestamp       time.Time
	Price           float64
	Signal          models.Signal
	PredictedReturn *float64
	Confidence      *float64
}

// Backtester replays events through a long-only, single-position account.
// An instance serves one run and is not safe for concurrent use.
//
// Signals that do not match the state (sell while flat, buy while long) and
// holds leave the position untouched; every event still marks equity.
type Backtester struct {
	cfg  Config
	exec *execution.Model

	cash     float64
	position *models.Position
	openIdx  int // index into trades of the open trade, -1 when flat

	trades      []models.Trade
	equityCurve []models.EquityPoint
}

// New creates a backtester. A nil execution model uses default costs.
func New(cfg Config, exec *execution.Model) *Backtester {
	if exec == nil {
		exec = execution.NewDefault()
	}
	return &Backtester{
		cfg:     cfg,
		exec:    exec,
		cash:    cfg.InitialCapital,
		openIdx: -1,
	}
}

// OnEvent advances the state machine by one event.
func (b *Backtester) OnEvent(ev Event) {
	switch ev.Signal {
	case models.SignalBuy:
		if b.position == nil {
			b.enter(ev)
		}
	case models.SignalSell:
		if b.position != nil {
			b.exit(ev)
		}
	}
	b.markEquity(ev)
}

func (b *Backtester) enter(ev Event) {
	price := b.exec.ApplySlippage(ev.Price, models.SideBuy)
	notional := b.cash * b.cfg.PositionSizePct
	qty := b.exec.ApplyFees(notional) / price

	b.cash -= notional
	b.position = &models.Position{EntryPrice: price, Quantity: qty}
	b.trades = append(b.trades, models.Trade{
		Symbol:          b.cfg.Symbol,
		EntryTS:         ev.Timestamp,
		EntryPrice:      price,
		Quantity:        qty,
		PredictedReturn: copyFloat(ev.PredictedReturn),
		Confidence:      copyFloat(ev.Confidence),
	})
	b.openIdx = len(b.trades) - 1
}

func (b *Backtester) exit(ev Event) {
	price := b.exec.ApplySlippage(ev.Price, models.SideSell)
	pos := b.position
	b.cash += b.exec.ApplyFees(price * pos.Quantity)

	pnl := (price - pos.EntryPrice) * pos.Quantity
	realized := (price - pos.EntryPrice) / pos.EntryPrice
	ts := ev.Timestamp

	tr := &b.trades[b.openIdx]
	tr.ExitTS = &ts
	tr.ExitPrice = &price
	tr.PnL = &pnl
	tr.RealizedReturn = &realized

	b.position = nil
	b.openIdx = -1
}

func (b *Backtester) markEquity(ev Event) {
	b.equityCurve = append(b.equityCurve, models.EquityPoint{
		Timestamp:       ev.Timestamp,
		Equity:          b.Equity(ev.Price),
		PredictedReturn: copyFloat(ev.PredictedReturn),
		Confidence:      copyFloat(ev.Confidence),
	})
}

// Equity returns cash plus the position marked at price.
func (b *Backtester) Equity(price float64) float64 {
	if b.position == nil {
		return b.cash
	}
	return b.cash + price*b.position.Quantity
}

// State reports whether a position is open.
func (b *Backtester) State() State {
	if b.position != nil {
		return Long
	}
	return Flat
}

// Cash returns the uninvested balance.
func (b *Backtester) Cash() float64 { return b.cash }

// Position returns a copy of the open position, or nil when flat.
func (b *Backtester) Position() *models.Position {
	if b.position == nil {
		return nil
	}
	p := *b.position
	return &p
}

// Finalize computes metrics over the events processed so far. It does not
// change state and returns a result that shares no memory with the backtester.
func (b *Backtester) Finalize() models.BacktestResult {
	res := models.BacktestResult{
		Trades:      make([]models.Trade, len(b.trades)),
		EquityCurve: make([]models.EquityPoint, len(b.equityCurve)),
		Metrics:     map[string]float64{},
	}
	for i, t := range b.trades {
		res.Trades[i] = copyTrade(t)
	}
	for i, p := range b.equityCurve {
		p.PredictedReturn = copyFloat(p.PredictedReturn)
		p.Confidence = copyFloat(p.Confidence)
		res.EquityCurve[i] = p
	}
	if len(b.equityCurve) == 0 {
		return res
	}

	equity := make([]float64, len(b.equityCurve))
	for i, p := range b.equityCurve {
		equity[i] = p.Equity
	}
	res.Metrics[models.MetricPnL] = equity[len(equity)-1] - b.cfg.InitialCapital
	res.Metrics[models.MetricMaxDrawdown] = MaxDrawdown(equity)
	res.Metrics[models.MetricSharpe] = Sharpe(equity)
	if bias, ok := PredictionBias(b.trades, b.equityCurve); ok {
		res.Metrics[models.MetricPredictionBias] = bias
	}
	return res
}

func copyTrade(t models.Trade) models.Trade {
	if t.ExitTS != nil {
		ts := *t.ExitTS
		t.ExitTS = &ts
	}
	t.ExitPrice = copyFloat(t.ExitPrice)
	t.PnL = copyFloat(t.PnL)
	t.PredictedReturn = copyFloat(t.PredictedReturn)
	t.Confidence = copyFloat(t.Confidence)
	t.RealizedReturn = copyFloat(t.RealizedReturn)
	return t
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
