package backtest

import (
	"math"

	"Lenxys/internal/domain/models"
)

// TradingDaysPerYear annualizes the per-period Sharpe ratio.
const TradingDaysPerYear = 252

// MaxDrawdown returns the largest peak-to-trough decline as a fraction of the peak.
func MaxDrawdown(equity []float64) float64 {
	var peak, maxDD float64
	for i, eq := range equity {
		if i == 0 || eq > peak {
			peak = eq
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - eq) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Returns computes period-over-period percentage changes, skipping periods
// that start from a non-positive value.
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1]
		if prev <= 0 {
			continue
		}
		out = append(out, equity[i]/prev-1)
	}
	return out
}

// Sharpe returns the annualized mean/stdev ratio of equity returns using the
// sample standard deviation. It is 0 when fewer than two returns exist or the
// returns do not vary.
func Sharpe(equity []float64) float64 {
	rets := Returns(equity)
	if len(rets) < 2 {
		return 0
	}
	m := mean(rets)
	var ss float64
	for _, r := range rets {
		d := r - m
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(rets)-1))
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return m / sd * math.Sqrt(TradingDaysPerYear)
}

// PredictionBias compares realized returns of the most recent closed trades
// with the mean predicted return over the equity curve. N predictions are
// matched against the last N closed trades. ok is false when either side is empty.
func PredictionBias(trades []models.Trade, curve []models.EquityPoint) (bias float64, ok bool) {
	preds := make([]float64, 0, len(curve))
	for _, p := range curve {
		if p.PredictedReturn != nil {
			preds = append(preds, *p.PredictedReturn)
		}
	}
	realized := make([]float64, 0, len(trades))
	for _, t := range trades {
		if t.RealizedReturn != nil {
			realized = append(realized, *t.RealizedReturn)
		}
	}
	if len(preds) == 0 || len(realized) == 0 {
		return 0, false
	}
	if n := len(preds); len(realized) > n {
		realized = realized[len(realized)-n:]
	}
	return mean(realized) - mean(preds), true
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
