package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	domsvc "Lenxys/internal/domain/service"
	"Lenxys/internal/services/backtest"
	"Lenxys/internal/services/execution"
	"Lenxys/internal/services/features"
	applogger "Lenxys/pkg/logger"
)

// Strategy names accepted by the runner.
const (
	StrategyEnsemble = "ensemble"
	StrategyBaseline = "baseline"
)

var (
	ErrNoFeaturesGenerated = errors.New("no features generated")
	ErrUnknownStrategy     = errors.New("unknown strategy")
)

// SimParams selects what to replay.
type SimParams struct {
	Symbol   string
	Interval string
	Strategy string
	// Horizon of the ensemble forecast. Empty uses the runner default.
	Horizon string
}

// SimulationRunner regenerates features for a symbol, replays them through a
// fresh Backtester and persists the run.
type SimulationRunner struct {
	store      domrepo.FeatureStore
	generator  *FeatureGenerator
	forecaster domsvc.Forecaster
	policy     domsvc.SignalDecider
	runs       domrepo.RunStore
	publisher  domrepo.EventPublisher
	metrics    domrepo.Metrics
	exec       *execution.Model
	btCfg      backtest.Config

	defaultHorizon   string
	horizonIntervals map[string]string
	candleLimit      int

	l     *applogger.Logger
	now   func() time.Time
	newID func(time.Time) string
}

type SimulationDeps struct {
	Store      domrepo.FeatureStore
	Generator  *FeatureGenerator
	Forecaster domsvc.Forecaster
	Policy     domsvc.SignalDecider
	Runs       domrepo.RunStore
	Publisher  domrepo.EventPublisher
	Metrics    domrepo.Metrics
	Execution  *execution.Model
	Backtest   backtest.Config

	DefaultHorizon string
	CandleLimit    int

	// HorizonIntervals maps a forecast horizon to the feature interval the
	// forecaster reads. Nil assumes the simulated interval.
	HorizonIntervals map[string]string
}

func NewSimulationRunner(d SimulationDeps) *SimulationRunner {
	if d.DefaultHorizon == "" {
		d.DefaultHorizon = "1h"
	}
	if d.Execution == nil {
		d.Execution = execution.NewDefault()
	}
	return &SimulationRunner{
		store:          d.Store,
		generator:      d.Generator,
		forecaster:     d.Forecaster,
		policy:         d.Policy,
		runs:           d.Runs,
		publisher:      d.Publisher,
		metrics:        metricsOrNop(d.Metrics),
		exec:           d.Execution,
		btCfg:          d.Backtest,
		defaultHorizon:   d.DefaultHorizon,
		horizonIntervals: d.HorizonIntervals,
		candleLimit:      d.CandleLimit,
		l:                applogger.Nop(),
		now:              time.Now,
		newID:            NewRunID,
	}
}

func (r *SimulationRunner) SetLogger(l *applogger.Logger) {
	if l != nil {
		r.l = l
	}
}

// NewRunID formats run-YYYYMMDD-HHMMSS-<6 hex>.
func NewRunID(at time.Time) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("run-%s-%s", at.UTC().Format("20060102-150405"), hex[:6])
}

// Run executes one simulation and returns the persisted run.
func (r *SimulationRunner) Run(ctx context.Context, p SimParams) (*models.SimRun, error) {
	if p.Strategy == "" {
		p.Strategy = StrategyEnsemble
	}
	if p.Strategy != StrategyEnsemble && p.Strategy != StrategyBaseline {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, p.Strategy)
	}
	if p.Horizon == "" {
		p.Horizon = r.defaultHorizon
	}
	start := time.Now()

	n, err := r.generator.Generate(ctx, p.Symbol, p.Interval, r.candleLimit)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w for %s %s", ErrNoFeaturesGenerated, p.Symbol, p.Interval)
	}
	if p.Strategy == StrategyEnsemble {
		r.prepareForecastFeatures(ctx, p)
	}
	vectors, err := r.store.FeatureVectors(ctx, p.Symbol, p.Interval)
	if err != nil {
		return nil, fmt.Errorf("load features: %w", err)
	}
	closes, err := r.closesByTime(ctx, p)
	if err != nil {
		return nil, err
	}

	cfg := r.btCfg
	cfg.Symbol = p.Symbol
	bt := backtest.New(cfg, r.exec)
	skipped, events, unavailable := 0, 0, 0
	for i := range vectors {
		fv := &vectors[i]
		price, ok := closes[fv.Timestamp.UTC().UnixMilli()]
		if !ok || price <= 0 {
			skipped++
			continue
		}
		ev, forecasted := r.event(ctx, p, fv, price)
		events++
		if !forecasted {
			unavailable++
		}
		bt.OnEvent(ev)
	}
	if skipped > 0 {
		r.l.Warn("feature rows without a candle close skipped",
			applogger.String("symbol", p.Symbol),
			applogger.Int("skipped", skipped),
		)
	}
	if p.Strategy == StrategyEnsemble && events > 0 && unavailable == events {
		r.l.Warn("no forecast available for any event, run holds throughout",
			applogger.String("symbol", p.Symbol),
			applogger.String("interval", p.Interval),
			applogger.String("horizon", p.Horizon),
			applogger.String("forecast_interval", r.forecastInterval(p)),
			applogger.Int("events", events),
		)
	}
	res := bt.Finalize()

	created := r.now().UTC()
	run := &models.SimRun{
		RunID:       r.newID(created),
		Strategy:    p.Strategy,
		Symbol:      p.Symbol,
		Interval:    p.Interval,
		Horizon:     p.Horizon,
		Metrics:     res.Metrics,
		Trades:      res.Trades,
		EquityCurve: res.EquityCurve,
		CreatedAt:   created,
	}
	if err := r.runs.SaveRun(ctx, run); err != nil {
		r.metrics.RecordError("save_run")
		return nil, fmt.Errorf("save run: %w", err)
	}
	r.metrics.RecordSimulation(p.Strategy, p.Symbol, res.Metrics[models.MetricPnL])
	r.metrics.RecordLatency("simulation", time.Since(start).Seconds())
	r.publishCompleted(ctx, run)

	r.l.Info("simulation completed",
		applogger.String("run_id", run.RunID),
		applogger.String("strategy", run.Strategy),
		applogger.String("symbol", run.Symbol),
		applogger.Int("events", len(res.EquityCurve)),
		applogger.Int("trades", len(res.Trades)),
		applogger.Float64("pnl", res.Metrics[models.MetricPnL]),
	)
	return run, nil
}

func (r *SimulationRunner) closesByTime(ctx context.Context, p SimParams) (map[int64]float64, error) {
	candles, err := r.store.GetLatestNCandles(ctx, p.Symbol, r.candleLimit, domrepo.Timeframe(p.Interval))
	if err != nil {
		return nil, fmt.Errorf("load candles: %w", err)
	}
	out := make(map[int64]float64, len(candles))
	for _, c := range candles {
		out[c.Bucket.UTC().UnixMilli()] = c.Close
	}
	return out, nil
}

func (r *SimulationRunner) forecastInterval(p SimParams) string {
	if iv, ok := r.horizonIntervals[p.Horizon]; ok {
		return iv
	}
	return p.Interval
}

// prepareForecastFeatures regenerates the features the forecaster reads when
// they live on a different interval than the simulated one.
func (r *SimulationRunner) prepareForecastFeatures(ctx context.Context, p SimParams) {
	iv := r.forecastInterval(p)
	if iv == p.Interval {
		return
	}
	n, err := r.generator.Generate(ctx, p.Symbol, iv, r.candleLimit)
	if err != nil || n == 0 {
		r.l.Warn("forecast features unavailable",
			applogger.String("symbol", p.Symbol),
			applogger.String("horizon", p.Horizon),
			applogger.String("forecast_interval", iv),
			applogger.Int("rows", n),
			applogger.Error(err),
		)
	}
}

// event builds the backtest event for one feature row. Any forecast failure
// becomes a hold with no prediction; the bool reports whether a forecast was used.
func (r *SimulationRunner) event(ctx context.Context, p SimParams, fv *models.FeatureVector, price float64) (backtest.Event, bool) {
	ev := backtest.Event{Timestamp: fv.Timestamp, Price: price, Signal: models.SignalHold}
	switch p.Strategy {
	case StrategyBaseline:
		if fv.Values[features.Return1] > 0 {
			ev.Signal = models.SignalBuy
		} else {
			ev.Signal = models.SignalSell
		}
		return ev, true
	case StrategyEnsemble:
		res, err := r.forecaster.Predict(ctx, p.Symbol, p.Horizon, fv.Timestamp)
		if err != nil {
			if !domsvc.IsForecastUnavailable(err) {
				r.l.Debug("forecast failed during simulation",
					applogger.String("symbol", p.Symbol),
					applogger.Time("ts", fv.Timestamp),
					applogger.Error(err),
				)
			}
			return ev, false
		}
		pred, conf := res.PredictedReturn, res.Confidence
		ev.PredictedReturn = &pred
		ev.Confidence = &conf
		ev.Signal = r.policy.Decide(&pred, &conf, p.Horizon)
		return ev, true
	}
	return ev, false
}

func (r *SimulationRunner) publishCompleted(ctx context.Context, run *models.SimRun) {
	if r.publisher == nil {
		return
	}
	ev := models.RunCompletedEvent{
		RunID:     run.RunID,
		Strategy:  run.Strategy,
		Symbol:    run.Symbol,
		Interval:  run.Interval,
		Metrics:   run.Metrics,
		Trades:    len(run.Trades),
		CreatedAt: run.CreatedAt,
	}
	if err := r.publisher.PublishRunCompleted(ctx, ev); err != nil {
		r.metrics.RecordError("publish_run")
		r.l.Warn("publish run completed failed", applogger.String("run_id", run.RunID), applogger.Error(err))
	}
}

// GetRun returns a stored run.
func (r *SimulationRunner) GetRun(ctx context.Context, runID string) (*models.SimRun, error) {
	return r.runs.GetRun(ctx, runID)
}

// ListRuns returns the most recent runs first.
func (r *SimulationRunner) ListRuns(ctx context.Context, limit int) ([]models.SimRun, error) {
	return r.runs.ListRuns(ctx, limit)
}
