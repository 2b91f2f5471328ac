package usecase

import (
	"context"
	"fmt"
	"time"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	"Lenxys/internal/services/features"
	"Lenxys/pkg/util"
)

const (
	defaultCandleLimit = 1000
	maxCandleLimit     = 50000
	// realized volatility window in bars
	volWindow = 60
)

// CandlesUseCase reads stored candles.
type CandlesUseCase struct {
	store domrepo.CandleStore
}

func NewCandlesUseCase(store domrepo.CandleStore) *CandlesUseCase {
	return &CandlesUseCase{store: store}
}

type GetCandlesParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetCandlesResult struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"tf"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Count     int             `json:"count"`
	Candles   []models.Candle `json:"candles"`
	// RealizedVol is annualized over at most the last volWindow log returns.
	RealizedVol *float64 `json:"realized_vol,omitempty"`
}

// GetCandles returns candles in [from, to]. A zero range returns the latest Limit candles.
func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.Timeframe == "" {
		p.Timeframe = domrepo.DefaultTimeframe()
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return nil, fmt.Errorf("from must be <= to")
	}
	if p.Limit <= 0 {
		p.Limit = defaultCandleLimit
	}
	p.Limit = util.ClampInt(p.Limit, 1, maxCandleLimit)

	var (
		candles []models.Candle
		err     error
	)
	if p.From.IsZero() && p.To.IsZero() {
		candles, err = uc.store.GetLatestNCandles(ctx, p.Symbol, p.Limit, p.Timeframe)
	} else {
		if p.To.IsZero() {
			p.To = time.Now().UTC()
		}
		p.From, p.To = util.AlignFromTo(p.From, p.To, string(p.Timeframe))
		candles, err = uc.store.GetCandles(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	}
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) > p.Limit {
		candles = candles[len(candles)-p.Limit:]
	}

	res := &GetCandlesResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(candles),
		Candles:   candles,
	}
	if len(candles) > 0 {
		res.From, res.To = candles[0].Bucket, candles[len(candles)-1].Bucket
	}
	if lr := features.ComputeLogReturns(candles); len(lr) >= 2 {
		w := volWindow
		if len(lr) < w {
			w = len(lr)
		}
		v := features.RealizedVolatility(lr, w, features.BarsPerYearForTF(string(p.Timeframe)))
		res.RealizedVol = &v
	}
	return res, nil
}
