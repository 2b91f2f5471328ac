package backtest

import (
	"math"
	"testing"

	"Lenxys/internal/domain/models"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		equity []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"monotonic", []float64{1, 2, 3}, 0},
		{"single dip", []float64{100, 80, 120}, 0.2},
		{"deepest after new peak", []float64{100, 90, 200, 50}, 0.75},
		{"wiped out", []float64{100, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.equity)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("MaxDrawdown=%v, expected %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Fatalf("drawdown out of range: %v", got)
			}
		})
	}
}

func TestSharpe(t *testing.T) {
	if got := Sharpe([]float64{100}); got != 0 {
		t.Fatalf("single point sharpe=%v", got)
	}
	if got := Sharpe([]float64{100, 101}); got != 0 {
		t.Fatalf("single return sharpe=%v", got)
	}
	if got := Sharpe([]float64{100, 100, 100}); got != 0 {
		t.Fatalf("flat sharpe=%v", got)
	}

	equity := []float64{100, 110, 99, 108.9}
	rets := []float64{0.1, -0.1, 0.1}
	m := (0.1 - 0.1 + 0.1) / 3
	var ss float64
	for _, r := range rets {
		ss += (r - m) * (r - m)
	}
	want := m / math.Sqrt(ss/2) * math.Sqrt(252)
	if got := Sharpe(equity); math.Abs(got-want) > 1e-9 {
		t.Fatalf("Sharpe=%v, expected %v", got, want)
	}
}

func TestPredictionBiasAlignsLastN(t *testing.T) {
	rr := func(v float64) models.Trade { return models.Trade{RealizedReturn: &v} }
	trades := []models.Trade{rr(0.5), rr(0.1), rr(0.3), {}}
	p := 0.1
	curve := []models.EquityPoint{{PredictedReturn: &p}, {}, {PredictedReturn: &p}}

	bias, ok := PredictionBias(trades, curve)
	if !ok {
		t.Fatalf("expected bias")
	}
	// last two realized returns: 0.1 and 0.3
	if math.Abs(bias-(0.2-0.1)) > 1e-12 {
		t.Fatalf("bias=%v, expected 0.1", bias)
	}
	if _, ok := PredictionBias(nil, curve); ok {
		t.Fatalf("expected omitted bias without closed trades")
	}
}
