package features

import (
	"math"
	"testing"
	"time"

	"Lenxys/internal/domain/models"
)

func series(n int, fn func(i int) float64) []models.Candle {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Bucket: t0.Add(time.Duration(i) * time.Minute), Symbol: "ETHUSDT", Interval: "1m", Close: fn(i)}
	}
	return out
}

func TestEMA(t *testing.T) {
	got := EMA([]float64{1, 2, 3}, 3) // alpha 0.5
	want := []float64{1, 1.5, 2.25}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("EMA[%d]=%v, expected %v", i, got[i], want[i])
		}
	}
}

func TestRSIWarmupAndExtremes(t *testing.T) {
	up := make([]float64, 20)
	for i := range up {
		up[i] = float64(100 + i)
	}
	rsi := RSI(up, 14)
	for i := 0; i < 14; i++ {
		if !math.IsNaN(rsi[i]) {
			t.Fatalf("RSI[%d]=%v, expected NaN during warm-up", i, rsi[i])
		}
	}
	if rsi[14] != 100 {
		t.Fatalf("RSI of a rising series=%v, expected 100", rsi[14])
	}

	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 5
	}
	if v := RSI(flat, 14)[19]; !math.IsNaN(v) {
		t.Fatalf("RSI of a flat series=%v, expected NaN", v)
	}
}

func TestRollingStd(t *testing.T) {
	got := RollingStd([]float64{math.NaN(), 1, 2, 3}, 3)
	if !math.IsNaN(got[2]) {
		t.Fatalf("window with NaN should be NaN, got %v", got[2])
	}
	if math.Abs(got[3]-1) > 1e-12 {
		t.Fatalf("std(1,2,3)=%v, expected 1", got[3])
	}
}

func TestBuildDropsWarmupRows(t *testing.T) {
	candles := series(100, func(i int) float64 { return 100 + 5*math.Sin(float64(i)/3) })
	rows := Build("ETHUSDT", "1m", candles)
	if len(rows) != 40 {
		t.Fatalf("rows=%d, expected 40", len(rows))
	}
	if !rows[0].Timestamp.Equal(candles[60].Bucket) {
		t.Fatalf("first row at %v, expected %v", rows[0].Timestamp, candles[60].Bucket)
	}
	for _, col := range Columns {
		if !rows[0].Has(col) {
			t.Fatalf("missing column %s", col)
		}
	}
	r := rows[len(rows)-1]
	if math.Abs(r.Values[MACDHist]-(r.Values[MACD]-r.Values[MACDSignal])) > 1e-12 {
		t.Fatalf("macd_hist inconsistent: %+v", r.Values)
	}
	if rsi := r.Values[RSI14]; rsi < 0 || rsi > 100 {
		t.Fatalf("rsi out of range: %v", rsi)
	}
}

func TestBuildTooShort(t *testing.T) {
	if rows := Build("ETHUSDT", "1m", series(30, func(i int) float64 { return float64(i + 1) })); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestRealizedVolatility(t *testing.T) {
	candles := series(4, func(i int) float64 { return []float64{100, 101, 100, 101}[i] })
	rets := ComputeLogReturns(candles)
	if len(rets) != 3 {
		t.Fatalf("returns=%d, expected 3", len(rets))
	}
	if v := RealizedVolatility(rets, 3, BarsPerYearForTF("1d")); v <= 0 {
		t.Fatalf("expected positive volatility, got %v", v)
	}
	if v := RealizedVolatility(rets, 10, 365); v != 0 {
		t.Fatalf("short window should be 0, got %v", v)
	}
}
