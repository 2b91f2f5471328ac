package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	pkgkafka "Lenxys/pkg/kafka"
)

// KafkaCandlesHandler consumes OHLCV messages and writes them to the candle store.
type KafkaCandlesHandler struct {
	topic   string
	store   domrepo.CandleStore
	metrics domrepo.Metrics
}

func NewKafkaCandlesHandler(topic string, store domrepo.CandleStore, metrics domrepo.Metrics) *KafkaCandlesHandler {
	return &KafkaCandlesHandler{topic: topic, store: store, metrics: metricsOrNop(metrics)}
}

func (h *KafkaCandlesHandler) Topic() string { return h.topic }

// candleMessage is one bar: {symbol, interval, t, o, h, l, c, v}. t is unix
// seconds or milliseconds. A JSON array of bars is also accepted.
type candleMessage struct {
	Symbol   string  `json:"symbol"`
	Interval string  `json:"interval"`
	T        int64   `json:"t"`
	O        float64 `json:"o"`
	H        float64 `json:"h"`
	L        float64 `json:"l"`
	C        float64 `json:"c"`
	V        float64 `json:"v"`
}

func (m candleMessage) candle() (models.Candle, error) {
	if m.Symbol == "" {
		return models.Candle{}, fmt.Errorf("candle without symbol")
	}
	if !domrepo.IsValidTimeframe(domrepo.Timeframe(m.Interval)) {
		return models.Candle{}, fmt.Errorf("unsupported interval %q", m.Interval)
	}
	bucket := time.Unix(m.T, 0)
	if m.T > 1e11 { // ms
		bucket = time.UnixMilli(m.T)
	}
	return models.Candle{
		Bucket:   bucket.UTC(),
		Symbol:   m.Symbol,
		Interval: m.Interval,
		Open:     m.O,
		High:     m.H,
		Low:      m.L,
		Close:    m.C,
		Volume:   m.V,
	}, nil
}

func decodeCandles(b []byte) ([]candleMessage, error) {
	var batch []candleMessage
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &batch); err != nil {
			return nil, err
		}
		return batch, nil
	}
	var one candleMessage
	if err := json.Unmarshal(b, &one); err != nil {
		return nil, err
	}
	return []candleMessage{one}, nil
}

func (h *KafkaCandlesHandler) Handle(ctx context.Context, b []byte) error {
	msgs, err := decodeCandles(b)
	if err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	candles := make([]models.Candle, 0, len(msgs))
	for _, m := range msgs {
		c, err := m.candle()
		if err != nil {
			h.metrics.RecordError("consumer_invalid")
			return err
		}
		candles = append(candles, c)
	}
	if len(candles) == 0 {
		return nil
	}
	// event time to now
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(candles[len(candles)-1].Bucket).Seconds())

	start := time.Now()
	err = h.store.StoreCandles(ctx, candles)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordCandlesIngested(candles[0].Symbol, len(candles))
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaCandlesHandler)(nil)
