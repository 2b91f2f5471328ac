package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	domsvc "Lenxys/internal/domain/service"
	"Lenxys/internal/service/cache"
	applogger "Lenxys/pkg/logger"
)

// ErrNoSymbols is returned by batch operations given an empty symbol list.
var ErrNoSymbols = errors.New("no symbols provided")

// ForecastUseCase serves ensemble forecasts with a response cache and
// publishes every freshly computed result.
type ForecastUseCase struct {
	forecaster domsvc.Forecaster
	cache      cache.BytesCache
	ttl        time.Duration
	publisher  domrepo.EventPublisher
	metrics    domrepo.Metrics
	l          *applogger.Logger
	now        func() time.Time
}

func NewForecastUseCase(f domsvc.Forecaster, c cache.BytesCache, ttl time.Duration, pub domrepo.EventPublisher, m domrepo.Metrics) *ForecastUseCase {
	return &ForecastUseCase{
		forecaster: f,
		cache:      c,
		ttl:        ttl,
		publisher:  pub,
		metrics:    metricsOrNop(m),
		l:          applogger.Nop(),
		now:        time.Now,
	}
}

func (uc *ForecastUseCase) SetLogger(l *applogger.Logger) {
	if l != nil {
		uc.l = l
	}
}

func cacheKey(symbol, horizon string, ts time.Time) string {
	at := "latest"
	if !ts.IsZero() {
		at = strconv.FormatInt(ts.Unix(), 10)
	}
	return "forecast:" + symbol + ":" + horizon + ":" + at
}

// Forecast returns the ensemble forecast as of ts. A zero ts means now.
func (uc *ForecastUseCase) Forecast(ctx context.Context, symbol, horizon string, ts time.Time) (*models.EnsembleResult, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	key := cacheKey(symbol, horizon, ts)
	if res, ok := uc.fromCache(ctx, key); ok {
		uc.metrics.RecordForecast(horizon, OutcomeCacheHit)
		return res, nil
	}

	at := ts
	if at.IsZero() {
		at = uc.now().UTC()
	}
	start := time.Now()
	res, err := uc.forecaster.Predict(ctx, symbol, horizon, at)
	uc.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	if err != nil {
		if domsvc.IsForecastUnavailable(err) {
			uc.metrics.RecordForecast(horizon, OutcomeUnavailable)
		} else {
			uc.metrics.RecordForecast(horizon, OutcomeError)
			uc.metrics.RecordError("forecast")
			uc.l.Error("forecast failed",
				applogger.String("symbol", symbol),
				applogger.String("horizon", horizon),
				applogger.Error(err),
			)
		}
		return nil, err
	}
	uc.metrics.RecordForecast(horizon, OutcomeOK)
	uc.toCache(ctx, key, res)
	uc.publish(ctx, res)
	return res, nil
}

func (uc *ForecastUseCase) fromCache(ctx context.Context, key string) (*models.EnsembleResult, bool) {
	if uc.cache == nil {
		return nil, false
	}
	b, ok, err := uc.cache.GetBytes(ctx, key)
	if err != nil {
		uc.l.Warn("forecast cache get failed", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res models.EnsembleResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, false
	}
	return &res, true
}

func (uc *ForecastUseCase) toCache(ctx context.Context, key string, res *models.EnsembleResult) {
	if uc.cache == nil || uc.ttl <= 0 {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := uc.cache.SetBytes(ctx, key, b, uc.ttl); err != nil {
		uc.l.Warn("forecast cache set failed", applogger.String("key", key), applogger.Error(err))
	}
}

func (uc *ForecastUseCase) publish(ctx context.Context, res *models.EnsembleResult) {
	if uc.publisher == nil {
		return
	}
	ev := models.ForecastEvent{
		Symbol:          res.Symbol,
		Horizon:         res.Horizon,
		Timestamp:       res.Timestamp,
		PredictedReturn: res.PredictedReturn,
		Confidence:      res.Confidence,
		Models:          len(res.Models),
		ServedAt:        uc.now().UTC(),
	}
	if err := uc.publisher.PublishForecast(ctx, ev); err != nil {
		uc.metrics.RecordError("publish_forecast")
		uc.l.Warn("publish forecast failed", applogger.String("symbol", res.Symbol), applogger.Error(err))
	}
}

// Batch forecasts every symbol concurrently. Items keep the input order and
// carry either a result or an error message.
func (uc *ForecastUseCase) Batch(ctx context.Context, symbols []string, horizon string, ts time.Time) ([]models.ForecastItem, error) {
	symbols = dedupe(symbols)
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	items := make([]models.ForecastItem, len(symbols))
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			item := models.ForecastItem{Symbol: sym, Horizon: horizon, Timestamp: ts}
			res, err := uc.Forecast(ctx, sym, horizon, ts)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Result = res
				item.Timestamp = res.Timestamp
			}
			items[i] = item
		}(i, sym)
	}
	wg.Wait()
	return items, nil
}

// ExportCSV renders a batch forecast as CSV with one row per symbol.
func (uc *ForecastUseCase) ExportCSV(ctx context.Context, symbols []string, horizon string, ts time.Time) ([]byte, error) {
	items, err := uc.Batch(ctx, symbols, horizon, ts)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"symbol", "horizon", "timestamp", "pred_return", "confidence", "error"})
	for _, it := range items {
		row := []string{it.Symbol, it.Horizon, "", "", "", it.Error}
		if !it.Timestamp.IsZero() {
			row[2] = it.Timestamp.UTC().Format(time.RFC3339)
		}
		if it.Result != nil {
			row[3] = strconv.FormatFloat(it.Result.PredictedReturn, 'f', -1, 64)
			row[4] = strconv.FormatFloat(it.Result.Confidence, 'f', -1, 64)
		}
		_ = w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
