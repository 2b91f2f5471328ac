package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	pkgch "Lenxys/pkg/clickhouse"
	applogger "Lenxys/pkg/logger"
)

// CHFeatureStore implements FeatureStore backed by ClickHouse.
type CHFeatureStore struct {
	ch       *pkgch.Client
	db       *sql.DB
	ohlcv    string
	features string
	l        *applogger.Logger
}

func NewCHFeatureStore(ch *pkgch.Client, database string) *CHFeatureStore {
	return &CHFeatureStore{
		ch:       ch,
		db:       ch.DB(),
		ohlcv:    database + "." + TableOHLCV,
		features: database + "." + TableFeatures,
		l:        applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (s *CHFeatureStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

const candleColumns = "bucket, symbol, interval, open, high, low, close, volume"

func (s *CHFeatureStore) GetCandles(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s FINAL
        WHERE symbol = ? AND interval = ? AND bucket >= ? AND bucket <= ?
        ORDER BY bucket ASC
    `, candleColumns, s.ohlcv)
	out, err := s.queryCandles(ctx, q, symbol, string(tf), from, to)
	if err != nil {
		s.l.Error("clickhouse get_candles failed",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get candles: %w", err)
	}
	s.l.Debug("clickhouse get_candles ok",
		applogger.String("symbol", symbol),
		applogger.String("tf", string(tf)),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// GetLatestNCandles returns up to n most recent candles in ascending order.
// A non-positive n returns the full history.
func (s *CHFeatureStore) GetLatestNCandles(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.Candle, error) {
	var (
		q    string
		args = []any{symbol, string(tf)}
	)
	if n > 0 {
		q = fmt.Sprintf(`
            SELECT * FROM (
                SELECT %s FROM %s FINAL
                WHERE symbol = ? AND interval = ?
                ORDER BY bucket DESC
                LIMIT ?
            ) ORDER BY bucket ASC
        `, candleColumns, s.ohlcv)
		args = append(args, n)
	} else {
		q = fmt.Sprintf(`
            SELECT %s FROM %s FINAL
            WHERE symbol = ? AND interval = ?
            ORDER BY bucket ASC
        `, candleColumns, s.ohlcv)
	}
	out, err := s.queryCandles(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse latest_candles failed",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("limit", n),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get latest candles: %w", err)
	}
	return out, nil
}

func (s *CHFeatureStore) queryCandles(ctx context.Context, q string, args ...any) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 256)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Interval, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// StoreCandles inserts candles. Duplicate (symbol, interval, bucket) rows
// collapse on merge.
func (s *CHFeatureStore) StoreCandles(ctx context.Context, candles []models.Candle) error {
	rows := make([][]any, 0, len(candles))
	for _, c := range candles {
		if c.Symbol == "" || c.Bucket.IsZero() {
			continue
		}
		rows = append(rows, []any{c.Symbol, c.Interval, c.Bucket.UTC(), c.Open, c.High, c.Low, c.Close, c.Volume})
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, interval, bucket, open, high, low, close, volume)", s.ohlcv)
	if err := s.ch.InsertBatch(ctx, q, rows); err != nil {
		return fmt.Errorf("store candles: %w", err)
	}
	return nil
}

// LatestFeatureVector returns the newest vector at or before atOrBefore, or nil.
func (s *CHFeatureStore) LatestFeatureVector(ctx context.Context, symbol, interval string, atOrBefore time.Time) (*models.FeatureVector, error) {
	q := fmt.Sprintf(`
        SELECT ts, names, values
        FROM %s FINAL
        WHERE symbol = ? AND interval = ? AND ts <= ?
        ORDER BY ts DESC
        LIMIT 1
    `, s.features)
	var (
		ts     time.Time
		names  []string
		values []float64
	)
	err := s.db.QueryRowContext(ctx, q, symbol, interval, atOrBefore.UTC()).Scan(&ts, &names, &values)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest feature vector: %w", err)
	}
	return &models.FeatureVector{
		Symbol:    symbol,
		Interval:  interval,
		Timestamp: ts,
		Values:    zipFeatures(names, values),
	}, nil
}

// FeatureVectors returns every vector for (symbol, interval) in ascending time order.
func (s *CHFeatureStore) FeatureVectors(ctx context.Context, symbol, interval string) ([]models.FeatureVector, error) {
	q := fmt.Sprintf(`
        SELECT ts, names, values
        FROM %s FINAL
        WHERE symbol = ? AND interval = ?
        ORDER BY ts ASC
    `, s.features)
	rows, err := s.db.QueryContext(ctx, q, symbol, interval)
	if err != nil {
		return nil, fmt.Errorf("feature vectors: %w", err)
	}
	defer rows.Close()

	var out []models.FeatureVector
	for rows.Next() {
		var (
			ts     time.Time
			names  []string
			values []float64
		)
		if err := rows.Scan(&ts, &names, &values); err != nil {
			return nil, fmt.Errorf("scan features: %w", err)
		}
		out = append(out, models.FeatureVector{Symbol: symbol, Interval: interval, Timestamp: ts, Values: zipFeatures(names, values)})
	}
	return out, rows.Err()
}

// WriteFeatures upserts rows; the newest updated_at wins per (symbol, interval, ts).
func (s *CHFeatureStore) WriteFeatures(ctx context.Context, vectors []models.FeatureVector) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(vectors))
	for _, fv := range vectors {
		names, values := unzipFeatures(fv.Values)
		rows = append(rows, []any{fv.Symbol, fv.Interval, fv.Timestamp.UTC(), names, values, now})
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, interval, ts, names, values, updated_at)", s.features)
	if err := s.ch.InsertBatch(ctx, q, rows); err != nil {
		return fmt.Errorf("write features: %w", err)
	}
	return nil
}

var _ domrepo.FeatureStore = (*CHFeatureStore)(nil)
