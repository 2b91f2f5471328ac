package backtest

import (
	"math"
	"reflect"
	"testing"
	"time"

	"Lenxys/internal/domain/models"
	"Lenxys/internal/services/execution"
)

var t0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func at(i int) time.Time { return t0.Add(time.Duration(i) * time.Minute) }

func f(v float64) *float64 { return &v }

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestBuyThenSell(t *testing.T) {
	bt := New(Config{InitialCapital: 10_000, PositionSizePct: 1.0}, execution.NewDefault())
	bt.OnEvent(Event{Timestamp: at(0), Price: 100, Signal: models.SignalBuy})
	bt.OnEvent(Event{Timestamp: at(1), Price: 110, Signal: models.SignalSell})

	res := bt.Finalize()
	if len(res.Trades) != 1 {
		t.Fatalf("trades=%d, expected 1", len(res.Trades))
	}
	tr := res.Trades[0]
	if !approx(tr.EntryPrice, 100.05, 1e-9) {
		t.Fatalf("entry=%v, expected 100.05", tr.EntryPrice)
	}
	if tr.ExitPrice == nil || !approx(*tr.ExitPrice, 109.945, 1e-9) {
		t.Fatalf("exit=%v, expected 109.945", tr.ExitPrice)
	}
	if tr.PnL == nil || *tr.PnL <= 0 {
		t.Fatalf("expected positive trade pnl, got %v", tr.PnL)
	}
	if res.Metrics[models.MetricPnL] <= 0 {
		t.Fatalf("expected positive run pnl, got %v", res.Metrics[models.MetricPnL])
	}
	if !approx(*tr.RealizedReturn, (109.945-100.05)/100.05, 1e-12) {
		t.Fatalf("realized_return=%v", *tr.RealizedReturn)
	}
	if bt.State() != Flat {
		t.Fatalf("expected flat after sell")
	}
}

func TestSellWhileFlatIsNoop(t *testing.T) {
	bt := New(DefaultConfig(), nil)
	bt.OnEvent(Event{Timestamp: at(0), Price: 100, Signal: models.SignalSell})

	if bt.Cash() != 10_000 || bt.Position() != nil {
		t.Fatalf("state changed: cash=%v pos=%v", bt.Cash(), bt.Position())
	}
	res := bt.Finalize()
	if len(res.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(res.Trades))
	}
	if len(res.EquityCurve) != 1 || res.EquityCurve[0].Equity != 10_000 {
		t.Fatalf("expected one equity point at capital, got %+v", res.EquityCurve)
	}
}

func TestBuyWhileLongIsNoop(t *testing.T) {
	bt := New(DefaultConfig(), nil)
	bt.OnEvent(Event{Timestamp: at(0), Price: 100, Signal: models.SignalBuy})
	cash, pos := bt.Cash(), bt.Position()
	bt.OnEvent(Event{Timestamp: at(1), Price: 90, Signal: models.SignalBuy})
	bt.OnEvent(Event{Timestamp: at(2), Price: 95, Signal: models.SignalHold})

	if bt.Cash() != cash || *bt.Position() != *pos {
		t.Fatalf("second buy changed the position")
	}
	if res := bt.Finalize(); len(res.Trades) != 1 || len(res.EquityCurve) != 3 {
		t.Fatalf("trades=%d points=%d, expected 1 and 3", len(res.Trades), len(res.EquityCurve))
	}
}

func TestZeroCostRoundTrip(t *testing.T) {
	bt := New(DefaultConfig(), execution.New(execution.Config{}))
	bt.OnEvent(Event{Timestamp: at(0), Price: 50, Signal: models.SignalBuy})
	bt.OnEvent(Event{Timestamp: at(1), Price: 50, Signal: models.SignalSell})

	res := bt.Finalize()
	if !approx(res.Metrics[models.MetricPnL], 0, 1e-9) {
		t.Fatalf("pnl=%v, expected 0", res.Metrics[models.MetricPnL])
	}
	if !approx(*res.Trades[0].PnL, 0, 1e-9) {
		t.Fatalf("trade pnl=%v, expected 0", *res.Trades[0].PnL)
	}
}

func TestFullPositionLeavesZeroCash(t *testing.T) {
	bt := New(Config{InitialCapital: 10_000, PositionSizePct: 1.0}, nil)
	bt.OnEvent(Event{Timestamp: at(0), Price: 123.45, Signal: models.SignalBuy})
	if bt.Cash() != 0 {
		t.Fatalf("cash=%v, expected exactly 0", bt.Cash())
	}
}

func TestEquityIdentity(t *testing.T) {
	bt := New(DefaultConfig(), nil)
	prices := []float64{100, 102, 99, 105, 104, 108}
	signals := []models.Signal{models.SignalBuy, models.SignalHold, models.SignalSell, models.SignalBuy, models.SignalHold, models.SignalSell}
	for i := range prices {
		bt.OnEvent(Event{Timestamp: at(i), Price: prices[i], Signal: signals[i]})
		var posValue float64
		if p := bt.Position(); p != nil {
			posValue = prices[i] * p.Quantity
		}
		res := bt.Finalize()
		last := res.EquityCurve[len(res.EquityCurve)-1]
		if !approx(last.Equity, bt.Cash()+posValue, 1e-9) {
			t.Fatalf("event %d: equity=%v, cash+position=%v", i, last.Equity, bt.Cash()+posValue)
		}
	}
	if res := bt.Finalize(); len(res.Trades) != 2 {
		t.Fatalf("trades=%d, expected 2", len(res.Trades))
	}
}

func TestFinalizeIdempotentAndDetached(t *testing.T) {
	bt := New(DefaultConfig(), nil)
	bt.OnEvent(Event{Timestamp: at(0), Price: 100, Signal: models.SignalBuy, PredictedReturn: f(0.01), Confidence: f(0.7)})
	bt.OnEvent(Event{Timestamp: at(1), Price: 101, Signal: models.SignalSell, PredictedReturn: f(-0.01), Confidence: f(0.7)})

	a := bt.Finalize()
	b := bt.Finalize()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Finalize not idempotent")
	}

	*a.Trades[0].PnL = 1e9
	*a.EquityCurve[0].PredictedReturn = 42
	c := bt.Finalize()
	if *c.Trades[0].PnL == 1e9 || *c.EquityCurve[0].PredictedReturn == 42 {
		t.Fatalf("mutating a result leaked into backtester state")
	}
}

func TestEmptyRun(t *testing.T) {
	res := New(DefaultConfig(), nil).Finalize()
	if len(res.Metrics) != 0 || len(res.Trades) != 0 || len(res.EquityCurve) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if res.Trades == nil || res.EquityCurve == nil {
		t.Fatalf("expected empty lists, not nil")
	}
}

func TestPredictionCapturedAtEntry(t *testing.T) {
	bt := New(DefaultConfig(), nil)
	bt.OnEvent(Event{Timestamp: at(0), Price: 100, Signal: models.SignalBuy, PredictedReturn: f(0.02), Confidence: f(0.8)})
	bt.OnEvent(Event{Timestamp: at(1), Price: 100, Signal: models.SignalSell, PredictedReturn: f(-0.03), Confidence: f(0.9)})

	tr := bt.Finalize().Trades[0]
	if *tr.PredictedReturn != 0.02 || *tr.Confidence != 0.8 {
		t.Fatalf("trade should carry entry prediction, got %v/%v", *tr.PredictedReturn, *tr.Confidence)
	}
}

func TestPredictionBiasMetric(t *testing.T) {
	bt := New(DefaultConfig(), execution.New(execution.Config{}))
	bt.OnEvent(Event{Timestamp: at(0), Price: 100, Signal: models.SignalBuy, PredictedReturn: f(0.01), Confidence: f(0.9)})
	bt.OnEvent(Event{Timestamp: at(1), Price: 110, Signal: models.SignalSell, PredictedReturn: f(0.03), Confidence: f(0.9)})

	res := bt.Finalize()
	bias, ok := res.Metrics[models.MetricPredictionBias]
	if !ok {
		t.Fatalf("expected prediction_bias")
	}
	if !approx(bias, 0.10-0.02, 1e-12) {
		t.Fatalf("bias=%v, expected 0.08", bias)
	}
}

func TestPredictionBiasOmittedWithoutPredictions(t *testing.T) {
	bt := New(DefaultConfig(), nil)
	bt.OnEvent(Event{Timestamp: at(0), Price: 100, Signal: models.SignalBuy})
	bt.OnEvent(Event{Timestamp: at(1), Price: 110, Signal: models.SignalSell})
	if _, ok := bt.Finalize().Metrics[models.MetricPredictionBias]; ok {
		t.Fatalf("prediction_bias should be omitted")
	}
}

func TestSingleEventMetrics(t *testing.T) {
	bt := New(DefaultConfig(), nil)
	bt.OnEvent(Event{Timestamp: at(0), Price: 100, Signal: models.SignalHold})
	m := bt.Finalize().Metrics
	if m[models.MetricSharpe] != 0 || m[models.MetricMaxDrawdown] != 0 || m[models.MetricPnL] != 0 {
		t.Fatalf("unexpected metrics %v", m)
	}
}
