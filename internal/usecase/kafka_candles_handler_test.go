package usecase

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKafkaCandlesHandler(t *testing.T) {
	store := newMemStore(nil)
	m := newRecMetrics()
	h := NewKafkaCandlesHandler("lenxys.candles", store, m)
	ctx := context.Background()

	if err := h.Handle(ctx, []byte(`{"symbol":"BTC","interval":"1m","t":1704067200,"o":1,"h":2,"l":0.5,"c":1.5,"v":10}`)); err != nil {
		t.Fatalf("single: %v", err)
	}
	batch := `[{"symbol":"ETH","interval":"1h","t":1704067200000,"c":2},{"symbol":"ETH","interval":"1h","t":1704070800000,"c":3}]`
	if err := h.Handle(ctx, []byte(batch)); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(store.candles) != 3 || m.ingested != 3 {
		t.Fatalf("stored=%d ingested=%d", len(store.candles), m.ingested)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !store.candles[0].Bucket.Equal(want) || !store.candles[1].Bucket.Equal(want) {
		t.Fatalf("seconds and millis should decode to the same bucket: %v %v", store.candles[0].Bucket, store.candles[1].Bucket)
	}

	for _, bad := range []string{`{`, `{"symbol":"BTC","interval":"2m","t":1}`, `{"interval":"1m","t":1}`} {
		if err := h.Handle(ctx, []byte(bad)); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}

	store.storeErr = errors.New("insert failed")
	if err := h.Handle(ctx, []byte(`{"symbol":"BTC","interval":"1m","t":1}`)); err == nil {
		t.Fatal("store error must propagate for retry")
	}
	if m.errors["consumer_store"] != 1 {
		t.Fatalf("store error not counted: %v", m.errors)
	}
}
