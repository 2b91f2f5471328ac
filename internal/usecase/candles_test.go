package usecase

import (
	"context"
	"testing"
	"time"

	domrepo "Lenxys/internal/domain/repository"
)

func TestGetCandlesLatest(t *testing.T) {
	uc := NewCandlesUseCase(newMemStore(risingCandles("BTC", 120)))
	res, err := uc.GetCandles(context.Background(), GetCandlesParams{Symbol: "BTC", Timeframe: domrepo.TF1m, Limit: 100})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if res.Count != 100 || res.Candles[0].Close != 110 {
		t.Fatalf("want the latest 100 candles, got count=%d first=%v", res.Count, res.Candles[0].Close)
	}
	if res.RealizedVol == nil || *res.RealizedVol <= 0 {
		t.Fatalf("realized vol missing: %v", res.RealizedVol)
	}
	if !res.To.Equal(res.Candles[99].Bucket) {
		t.Fatalf("range should follow the data, got to=%v", res.To)
	}
}

func TestGetCandlesRange(t *testing.T) {
	uc := NewCandlesUseCase(newMemStore(risingCandles("BTC", 30)))
	from := time.Date(2024, 1, 1, 0, 10, 30, 0, time.UTC)
	to := time.Date(2024, 1, 1, 0, 14, 0, 0, time.UTC)
	res, err := uc.GetCandles(context.Background(), GetCandlesParams{Symbol: "BTC", From: from, To: to})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// from is aligned down to 00:10
	if res.Count != 5 {
		t.Fatalf("want 5 candles, got %d", res.Count)
	}

	if _, err := uc.GetCandles(context.Background(), GetCandlesParams{Symbol: "BTC", From: to, To: from}); err == nil {
		t.Fatal("expected from > to error")
	}
	if _, err := uc.GetCandles(context.Background(), GetCandlesParams{}); err == nil {
		t.Fatal("expected symbol error")
	}
}
