package usecase

import (
	"context"
	"fmt"
	"time"

	domrepo "Lenxys/internal/domain/repository"
	"Lenxys/internal/services/features"
	applogger "Lenxys/pkg/logger"
)

// FeatureGenerator turns stored candles into feature rows.
type FeatureGenerator struct {
	store        domrepo.FeatureStore
	defaultLimit int
	l            *applogger.Logger
}

func NewFeatureGenerator(store domrepo.FeatureStore, defaultLimit int) *FeatureGenerator {
	return &FeatureGenerator{store: store, defaultLimit: defaultLimit, l: applogger.Nop()}
}

func (g *FeatureGenerator) SetLogger(l *applogger.Logger) {
	if l != nil {
		g.l = l
	}
}

// Generate builds indicators over the latest limit candles and upserts them.
// A non-positive limit uses the default. It returns the number of rows written.
func (g *FeatureGenerator) Generate(ctx context.Context, symbol, interval string, limit int) (int, error) {
	if symbol == "" {
		return 0, fmt.Errorf("symbol required")
	}
	tf := domrepo.Timeframe(interval)
	if !domrepo.IsValidTimeframe(tf) {
		return 0, fmt.Errorf("unsupported interval %q", interval)
	}
	if limit <= 0 {
		limit = g.defaultLimit
	}

	start := time.Now()
	candles, err := g.store.GetLatestNCandles(ctx, symbol, limit, tf)
	if err != nil {
		return 0, fmt.Errorf("load candles: %w", err)
	}
	rows := features.Build(symbol, interval, candles)
	if len(rows) == 0 {
		g.l.Warn("no feature rows produced",
			applogger.String("symbol", symbol),
			applogger.String("interval", interval),
			applogger.Int("candles", len(candles)),
		)
		return 0, nil
	}
	if err := g.store.WriteFeatures(ctx, rows); err != nil {
		return 0, fmt.Errorf("write features: %w", err)
	}
	g.l.Info("features generated",
		applogger.String("symbol", symbol),
		applogger.String("interval", interval),
		applogger.Int("rows", len(rows)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return len(rows), nil
}
