package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
)

type memStore struct {
	mu       sync.Mutex
	candles  []models.Candle
	features map[int64]models.FeatureVector
	storeErr error
}

func newMemStore(c []models.Candle) *memStore {
	return &memStore{candles: c, features: map[int64]models.FeatureVector{}}
}

func (s *memStore) GetCandles(_ context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	var out []models.Candle
	for _, c := range s.candles {
		if c.Symbol == symbol && c.Interval == string(tf) && !c.Bucket.Before(from) && !c.Bucket.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) GetLatestNCandles(_ context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	var out []models.Candle
	for _, c := range s.candles {
		if c.Symbol == symbol && c.Interval == string(tf) {
			out = append(out, c)
		}
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

func (s *memStore) StoreCandles(_ context.Context, c []models.Candle) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.mu.Lock()
	s.candles = append(s.candles, c...)
	s.mu.Unlock()
	return nil
}

func (s *memStore) LatestFeatureVector(_ context.Context, symbol, interval string, at time.Time) (*models.FeatureVector, error) {
	var best *models.FeatureVector
	for _, fv := range s.features {
		fv := fv
		if fv.Symbol == symbol && fv.Interval == interval && !fv.Timestamp.After(at) {
			if best == nil || fv.Timestamp.After(best.Timestamp) {
				best = &fv
			}
		}
	}
	return best, nil
}

func (s *memStore) FeatureVectors(_ context.Context, symbol, interval string) ([]models.FeatureVector, error) {
	var out []models.FeatureVector
	for _, fv := range s.features {
		if fv.Symbol == symbol && fv.Interval == interval {
			out = append(out, fv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *memStore) WriteFeatures(_ context.Context, rows []models.FeatureVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fv := range rows {
		s.features[fv.Timestamp.UnixMilli()] = fv
	}
	return nil
}

// risingCandles returns n one-minute bars with strictly increasing closes.
func risingCandles(symbol string, n int) []models.Candle {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		c := 100 + float64(i)*0.5
		out[i] = models.Candle{
			Bucket: t0.Add(time.Duration(i) * time.Minute), Symbol: symbol, Interval: "1m",
			Open: c - 0.2, High: c + 0.3, Low: c - 0.4, Close: c, Volume: 10,
		}
	}
	return out
}

type stubForecaster struct {
	mu    sync.Mutex
	calls int
	res   *models.EnsembleResult
	err   error
	errs  map[string]error
}

func (f *stubForecaster) Predict(_ context.Context, symbol, horizon string, ts time.Time) (*models.EnsembleResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	r := *f.res
	r.Symbol, r.Horizon = symbol, horizon
	if r.Timestamp.IsZero() {
		r.Timestamp = ts
	}
	return &r, nil
}

type memRuns struct {
	mu   sync.Mutex
	runs []models.SimRun
	err  error
}

func (m *memRuns) SaveRun(_ context.Context, r *models.SimRun) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	m.runs = append(m.runs, *r)
	m.mu.Unlock()
	return nil
}

func (m *memRuns) GetRun(_ context.Context, id string) (*models.SimRun, error) {
	for _, r := range m.runs {
		if r.RunID == id {
			r := r
			return &r, nil
		}
	}
	return nil, domrepo.ErrRunNotFound
}

func (m *memRuns) ListRuns(_ context.Context, limit int) ([]models.SimRun, error) {
	out := make([]models.SimRun, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

type recPublisher struct {
	mu        sync.Mutex
	forecasts []models.ForecastEvent
	runs      []models.RunCompletedEvent
	err       error
}

func (p *recPublisher) PublishForecast(_ context.Context, ev models.ForecastEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forecasts = append(p.forecasts, ev)
	return p.err
}

func (p *recPublisher) PublishRunCompleted(_ context.Context, ev models.RunCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = append(p.runs, ev)
	return p.err
}

func (p *recPublisher) Close() error { return nil }

type recMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	errors   map[string]int
	ingested int
}

func newRecMetrics() *recMetrics {
	return &recMetrics{outcomes: map[string]int{}, errors: map[string]int{}}
}

func (m *recMetrics) RecordForecast(_, outcome string) {
	m.mu.Lock()
	m.outcomes[outcome]++
	m.mu.Unlock()
}

func (m *recMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *recMetrics) RecordLatency(string, float64)            {}
func (m *recMetrics) RecordSimulation(string, string, float64) {}

func (m *recMetrics) RecordCandlesIngested(_ string, n int) {
	m.mu.Lock()
	m.ingested += n
	m.mu.Unlock()
}
