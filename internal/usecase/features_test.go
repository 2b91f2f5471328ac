package usecase

import (
	"context"
	"testing"
)

func TestFeatureGenerator(t *testing.T) {
	store := newMemStore(risingCandles("BTC", 100))
	g := NewFeatureGenerator(store, 5000)

	n, err := g.Generate(context.Background(), "BTC", "1m", 0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if n != 40 || len(store.features) != 40 {
		t.Fatalf("want 40 rows, got n=%d stored=%d", n, len(store.features))
	}
	// regenerating upserts the same timestamps
	if _, err := g.Generate(context.Background(), "BTC", "1m", 0); err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if len(store.features) != 40 {
		t.Fatalf("rows duplicated: %d", len(store.features))
	}

	if n, err := g.Generate(context.Background(), "BTC", "1m", 30); err != nil || n != 0 {
		t.Fatalf("30 candles cannot warm up indicators, got n=%d err=%v", n, err)
	}
	if _, err := g.Generate(context.Background(), "BTC", "7m", 0); err == nil {
		t.Fatal("expected interval error")
	}
}
