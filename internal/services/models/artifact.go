package models

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// LinearArtifact is a serialized linear regression over named feature columns.
type LinearArtifact struct {
	ModelID      string             `json:"model_id"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
	TrainedAt    time.Time          `json:"trained_at,omitempty"`

	cols []string
}

// Validate checks the artifact can be evaluated.
func (a *LinearArtifact) Validate() error {
	if a.ModelID == "" {
		return fmt.Errorf("artifact: empty model_id")
	}
	if math.IsNaN(a.Intercept) || math.IsInf(a.Intercept, 0) {
		return fmt.Errorf("artifact %s: intercept is not finite", a.ModelID)
	}
	for col, c := range a.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("artifact %s: coefficient %q is not finite", a.ModelID, col)
		}
	}
	a.cols = sortedColumns(a.Coefficients)
	return nil
}

func sortedColumns(coef map[string]float64) []string {
	cols := make([]string, 0, len(coef))
	for col := range coef {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// Predict evaluates intercept + sum(coef*value), summing columns in name
// order. Columns missing from the row contribute nothing.
func (a *LinearArtifact) Predict(_ context.Context, row map[string]float64) (float64, error) {
	cols := a.cols
	if len(cols) != len(a.Coefficients) {
		cols = sortedColumns(a.Coefficients)
	}
	y := a.Intercept
	for _, col := range cols {
		if v, ok := row[col]; ok {
			y += a.Coefficients[col] * v
		}
	}
	return y, nil
}
