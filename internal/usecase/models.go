package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	artifacts "Lenxys/internal/services/models"
	applogger "Lenxys/pkg/logger"
)

var ErrInvalidModel = errors.New("invalid model")

// ArtifactStore persists linear artifacts by model id.
type ArtifactStore interface {
	List() ([]string, error)
	Save(a *artifacts.LinearArtifact) error
}

// ModelInvalidator drops a loaded model so the next forecast reloads it.
type ModelInvalidator interface {
	Invalidate(modelID string)
}

// RegisterModelParams describes a model to register. An artifact is written
// when Intercept or Coefficients are set.
type RegisterModelParams struct {
	ModelID        string
	Symbol         string
	Horizon        string
	FeatureColumns []string
	TestRMSE       *float64
	Intercept      *float64
	Coefficients   map[string]float64
}

func (p RegisterModelParams) hasArtifact() bool {
	return p.Intercept != nil || len(p.Coefficients) > 0
}

// ModelsUseCase lists and registers ensemble candidates.
type ModelsUseCase struct {
	catalog   domrepo.ModelCatalog
	artifacts ArtifactStore
	cache     ModelInvalidator
	now       func() time.Time
	l         *applogger.Logger
}

func NewModelsUseCase(catalog domrepo.ModelCatalog, store ArtifactStore, cache ModelInvalidator) *ModelsUseCase {
	return &ModelsUseCase{catalog: catalog, artifacts: store, cache: cache, now: time.Now, l: applogger.Nop()}
}

func (uc *ModelsUseCase) SetLogger(l *applogger.Logger) {
	if l != nil {
		uc.l = l
	}
}

// List returns the stored artifacts, plus the registered candidates when both
// symbol and horizon are set.
func (uc *ModelsUseCase) List(ctx context.Context, symbol, horizon string) (*models.ModelListing, error) {
	ids, err := uc.artifacts.List()
	if err != nil {
		return nil, err
	}
	out := &models.ModelListing{Artifacts: ids}
	if symbol == "" || horizon == "" {
		return out, nil
	}
	cands, err := uc.catalog.ListCandidates(ctx, symbol, horizon)
	if err != nil {
		return nil, err
	}
	out.Candidates = cands
	return out, nil
}

// Register writes the artifact (if any) before the registry row, so a listed
// candidate always has something to load. The cached handle is dropped.
func (uc *ModelsUseCase) Register(ctx context.Context, p RegisterModelParams) (*models.CandidateModel, error) {
	for col := range p.Coefficients {
		if !slices.Contains(p.FeatureColumns, col) {
			return nil, fmt.Errorf("%w: coefficient %q is not a feature column", ErrInvalidModel, col)
		}
	}
	if p.hasArtifact() {
		a := &artifacts.LinearArtifact{
			ModelID:      p.ModelID,
			Coefficients: p.Coefficients,
			TrainedAt:    uc.now().UTC(),
		}
		if p.Intercept != nil {
			a.Intercept = *p.Intercept
		}
		if err := uc.artifacts.Save(a); err != nil {
			if errors.Is(err, artifacts.ErrInvalidModelID) {
				return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
			}
			return nil, fmt.Errorf("save artifact: %w", err)
		}
	}

	m := models.CandidateModel{
		ModelID:        p.ModelID,
		Symbol:         p.Symbol,
		Horizon:        p.Horizon,
		FeatureColumns: p.FeatureColumns,
		CreatedAt:      uc.now().UTC(),
	}
	if p.TestRMSE != nil {
		v := *p.TestRMSE
		m.Metrics = &models.ModelMetrics{Test: &models.SplitMetrics{RMSE: &v}}
	}
	if err := uc.catalog.Register(ctx, m); err != nil {
		return nil, err
	}
	if uc.cache != nil {
		uc.cache.Invalidate(p.ModelID)
	}
	uc.l.Info("model registered",
		applogger.String("model_id", m.ModelID),
		applogger.String("symbol", m.Symbol),
		applogger.String("horizon", m.Horizon),
		applogger.Bool("artifact", p.hasArtifact()))
	return &m, nil
}

