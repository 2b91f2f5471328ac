package features

import (
	"math"

	"Lenxys/internal/domain/models"
)

// Feature column names.
const (
	Return1      = "return_1"
	EMA9         = "ema_9"
	EMA21        = "ema_21"
	RSI14        = "rsi_14"
	MACD         = "macd"
	MACDSignal   = "macd_signal"
	MACDHist     = "macd_hist"
	Volatility1h = "volatility_1h"
)

// Columns lists the generated feature columns in output order.
var Columns = []string{Return1, EMA9, EMA21, RSI14, MACD, MACDSignal, MACDHist, Volatility1h}

const (
	rsiPeriod     = 14
	volWindow     = 60
	macdFast      = 12
	macdSlow      = 26
	macdSignalLen = 9
)

// Build derives one feature vector per candle. Candles must be in ascending
// time order. Rows where any indicator is still undefined (warm-up) or not
// finite are dropped, so the first volWindow candles never produce a row.
func Build(symbol, interval string, candles []models.Candle) []models.FeatureVector {
	n := len(candles)
	if n == 0 {
		return nil
	}
	closes := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
	}

	ret := PctChange(closes)
	ema9 := EMA(closes, 9)
	ema21 := EMA(closes, 21)
	rsi := RSI(closes, rsiPeriod)
	fast := EMA(closes, macdFast)
	slow := EMA(closes, macdSlow)
	macd := make([]float64, n)
	for i := range macd {
		macd[i] = fast[i] - slow[i]
	}
	signal := EMA(macd, macdSignalLen)
	vol := RollingStd(ret, volWindow)

	out := make([]models.FeatureVector, 0, n)
	for i := 0; i < n; i++ {
		row := map[string]float64{
			Return1:      ret[i],
			EMA9:         ema9[i],
			EMA21:        ema21[i],
			RSI14:        rsi[i],
			MACD:         macd[i],
			MACDSignal:   signal[i],
			MACDHist:     macd[i] - signal[i],
			Volatility1h: vol[i],
		}
		if !allFinite(row) {
			continue
		}
		out = append(out, models.FeatureVector{
			Symbol:    symbol,
			Interval:  interval,
			Timestamp: candles[i].Bucket,
			Values:    row,
		})
	}
	return out
}

// PctChange returns x[i]/x[i-1]-1 with NaN at index 0.
func PctChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i]/xs[i-1] - 1
	}
	return out
}

// EMA is the recursive exponential moving average seeded with the first value,
// with smoothing 2/(span+1).
func EMA(xs []float64, span int) []float64 {
	return ewm(xs, 2/(float64(span)+1), 1)
}

// RSI is Wilder's relative strength index with smoothing 1/period. Values are
// NaN until period price changes have been observed.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	gain := make([]float64, n)
	loss := make([]float64, n)
	for i := range closes {
		if i == 0 {
			gain[i], loss[i] = math.NaN(), math.NaN()
			continue
		}
		d := closes[i] - closes[i-1]
		gain[i] = math.Max(d, 0)
		loss[i] = math.Max(-d, 0)
	}
	alpha := 1 / float64(period)
	avgGain := ewm(gain, alpha, period)
	avgLoss := ewm(loss, alpha, period)

	out := make([]float64, n)
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
			out[i] = math.NaN()
		case l == 0 && g == 0:
			out[i] = math.NaN()
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out
}

// RollingStd is the sample standard deviation over a trailing window. Windows
// containing NaN yield NaN.
func RollingStd(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		if i+1 < window {
			out[i] = math.NaN()
			continue
		}
		seg := xs[i+1-window : i+1]
		var sum float64
		valid := true
		for _, v := range seg {
			if math.IsNaN(v) {
				valid = false
				break
			}
			sum += v
		}
		if !valid || window < 2 {
			out[i] = math.NaN()
			continue
		}
		mean := sum / float64(window)
		var ss float64
		for _, v := range seg {
			ss += (v - mean) * (v - mean)
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// ewm runs y = (1-alpha)*y + alpha*x starting at the first non-NaN input.
// Outputs are NaN until minPeriods observations have been seen. NaN inputs
// after the start carry the previous value forward.
func ewm(xs []float64, alpha float64, minPeriods int) []float64 {
	out := make([]float64, len(xs))
	var y float64
	seen := 0
	for i, x := range xs {
		switch {
		case math.IsNaN(x):
		case seen == 0:
			y = x
			seen++
		default:
			y = (1-alpha)*y + alpha*x
			seen++
		}
		if seen < minPeriods || seen == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = y
	}
	return out
}

func allFinite(row map[string]float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
