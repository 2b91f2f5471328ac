package ensemble

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	domsvc "Lenxys/internal/domain/service"
	applogger "Lenxys/pkg/logger"
)

const rmseEpsilon = 1e-6

// DefaultHorizonIntervals maps each forecast horizon to the feature interval it reads.
func DefaultHorizonIntervals() map[string]string {
	return map[string]string{
		"1m":  "1m",
		"5m":  "1m",
		"15m": "1m",
		"1h":  "1h",
		"4h":  "1h",
		"1d":  "1d",
	}
}

// Blender combines registered model predictions into one forecast,
// weighting each model by the inverse of its test RMSE.
type Blender struct {
	features  domrepo.FeatureReader
	registry  domrepo.ModelRegistry
	cache     *ModelCache
	intervals map[string]string
	l         *applogger.Logger
}

// New creates a blender. A nil intervals map uses DefaultHorizonIntervals.
func New(features domrepo.FeatureReader, registry domrepo.ModelRegistry, cache *ModelCache, intervals map[string]string) *Blender {
	if len(intervals) == 0 {
		intervals = DefaultHorizonIntervals()
	}
	return &Blender{
		features:  features,
		registry:  registry,
		cache:     cache,
		intervals: intervals,
		l:         applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (b *Blender) SetLogger(l *applogger.Logger) {
	if l != nil {
		b.l = l
	}
}

// IntervalFor returns the feature interval used for horizon.
func (b *Blender) IntervalFor(horizon string) (string, bool) {
	iv, ok := b.intervals[horizon]
	return iv, ok
}

// Predict returns the ensemble forecast for symbol and horizon using the most
// recent feature vector at or before ts.
func (b *Blender) Predict(ctx context.Context, symbol, horizon string, ts time.Time) (*models.EnsembleResult, error) {
	interval, ok := b.intervals[horizon]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domsvc.ErrUnsupportedHorizon, horizon)
	}

	fv, err := b.features.LatestFeatureVector(ctx, symbol, interval, ts)
	if err != nil {
		return nil, fmt.Errorf("load features %s/%s: %w", symbol, interval, err)
	}
	if fv == nil {
		return nil, fmt.Errorf("%w: %s interval %s at or before %s", domsvc.ErrNoFeatureData, symbol, interval, ts.UTC().Format(time.RFC3339))
	}

	candidates, err := b.registry.ListCandidates(ctx, symbol, horizon)
	if err != nil {
		return nil, fmt.Errorf("list models %s/%s: %w", symbol, horizon, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", domsvc.ErrNoModelsRegistered, symbol, horizon)
	}

	contribs := make([]models.ModelContribution, 0, len(candidates))
	for _, cand := range candidates {
		if cand.ModelID == "" {
			continue
		}
		handle, err := b.cache.GetOrLoad(ctx, cand.ModelID)
		if err != nil {
			if errors.Is(err, domsvc.ErrArtifactNotFound) {
				b.l.Warn("model artifact missing, skipping",
					applogger.String("model_id", cand.ModelID),
					applogger.String("symbol", symbol),
					applogger.String("horizon", horizon))
				continue
			}
			return nil, fmt.Errorf("load model %s: %w", cand.ModelID, err)
		}

		row := selectColumns(fv, cand.FeatureColumns)
		if len(row) == 0 {
			b.l.Debug("no overlapping feature columns",
				applogger.String("model_id", cand.ModelID),
				applogger.Strings("columns", cand.FeatureColumns))
			continue
		}

		pred, err := handle.Predict(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("predict with model %s: %w", cand.ModelID, err)
		}

		rmse := cand.Metrics.TestRMSE()
		contribs = append(contribs, models.ModelContribution{
			ModelID:    cand.ModelID,
			Prediction: pred,
			Weight:     weightFor(rmse),
			RMSE:       copyFloat(rmse),
		})
	}

	if len(contribs) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", domsvc.ErrNoUsablePrediction, symbol, horizon)
	}

	return &models.EnsembleResult{
		Symbol:          symbol,
		Horizon:         horizon,
		Timestamp:       fv.Timestamp,
		PredictedReturn: weightedMean(contribs),
		Confidence:      confidence(contribs),
		Models:          contribs,
	}, nil
}

// selectColumns keeps the model's columns that exist in the vector, NaN filled with 0.
func selectColumns(fv *models.FeatureVector, columns []string) map[string]float64 {
	row := make(map[string]float64, len(columns))
	for _, col := range columns {
		v, ok := fv.Values[col]
		if !ok {
			continue
		}
		if math.IsNaN(v) {
			v = 0
		}
		row[col] = v
	}
	return row
}

func weightFor(rmse *float64) float64 {
	if rmse == nil || *rmse <= 0 || math.IsNaN(*rmse) {
		return 1.0
	}
	return 1.0 / (*rmse + rmseEpsilon)
}

func weightedMean(cs []models.ModelContribution) float64 {
	var num, den float64
	for _, c := range cs {
		num += c.Prediction * c.Weight
		den += c.Weight
	}
	return num / den
}

// confidence is 1/(1+population stdev of predictions), clipped to [0, 1].
func confidence(cs []models.ModelContribution) float64 {
	if len(cs) <= 1 {
		return 1.0
	}
	var mean float64
	for _, c := range cs {
		mean += c.Prediction
	}
	mean /= float64(len(cs))
	var ss float64
	for _, c := range cs {
		d := c.Prediction - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(cs)))
	return math.Max(0, math.Min(1, 1/(1+sd)))
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

var _ domsvc.Forecaster = (*Blender)(nil)
