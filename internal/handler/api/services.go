package api

import (
	"context"
	"time"

	"Lenxys/internal/domain/models"
	"Lenxys/internal/usecase"
)

// ForecastService serves ensemble forecasts.
type ForecastService interface {
	Forecast(ctx context.Context, symbol, horizon string, ts time.Time) (*models.EnsembleResult, error)
	Batch(ctx context.Context, symbols []string, horizon string, ts time.Time) ([]models.ForecastItem, error)
	ExportCSV(ctx context.Context, symbols []string, horizon string, ts time.Time) ([]byte, error)
}

type SimulationService interface {
	Run(ctx context.Context, p usecase.SimParams) (*models.SimRun, error)
	GetRun(ctx context.Context, runID string) (*models.SimRun, error)
	ListRuns(ctx context.Context, limit int) ([]models.SimRun, error)
}

type CandlesService interface {
	GetCandles(ctx context.Context, p usecase.GetCandlesParams) (*usecase.GetCandlesResult, error)
}

type FeatureService interface {
	Generate(ctx context.Context, symbol, interval string, limit int) (int, error)
}

type ReportService interface {
	GenerateDaily(ctx context.Context, date string) (*models.DailyReport, string, error)
}

type ModelService interface {
	List(ctx context.Context, symbol, horizon string) (*models.ModelListing, error)
	Register(ctx context.Context, p usecase.RegisterModelParams) (*models.CandidateModel, error)
}

// ModelCache is the invalidation surface of the loaded model cache.
type ModelCache interface {
	Invalidate(modelID string)
	Reset()
	Len() int
}

var (
	_ ForecastService   = (*usecase.ForecastUseCase)(nil)
	_ SimulationService = (*usecase.SimulationRunner)(nil)
	_ CandlesService    = (*usecase.CandlesUseCase)(nil)
	_ FeatureService    = (*usecase.FeatureGenerator)(nil)
	_ ReportService     = (*usecase.ReportUseCase)(nil)
	_ ModelService      = (*usecase.ModelsUseCase)(nil)
)
