package repository

import (
	"context"

	"Lenxys/internal/domain/models"
)

// ModelRegistry lists registered candidate models. Order is preserved.
type ModelRegistry interface {
	ListCandidates(ctx context.Context, symbol, horizon string) ([]models.CandidateModel, error)
}

// ModelCatalog is a ModelRegistry that also accepts new registrations.
type ModelCatalog interface {
	ModelRegistry
	Register(ctx context.Context, m models.CandidateModel) error
}

// ModelHandle is a loaded predictor mapping a feature row to a scalar return.
type ModelHandle interface {
	Predict(ctx context.Context, row map[string]float64) (float64, error)
}

// ModelLoader loads model artifacts by id. It returns an error wrapping
// service.ErrArtifactNotFound when the artifact does not exist.
type ModelLoader interface {
	Load(ctx context.Context, modelID string) (ModelHandle, error)
}
