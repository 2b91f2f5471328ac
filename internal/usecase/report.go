package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	"Lenxys/pkg/util"
)

var ErrInvalidDate = errors.New("invalid date")

// ReportUseCase writes daily summaries of the latest simulation runs.
type ReportUseCase struct {
	runs      domrepo.RunStore
	outputDir string
	topN      int
	now       func() time.Time
}

func NewReportUseCase(runs domrepo.RunStore, outputDir string, topN int) *ReportUseCase {
	if topN <= 0 {
		topN = 5
	}
	return &ReportUseCase{runs: runs, outputDir: outputDir, topN: topN, now: time.Now}
}

// GenerateDaily builds the report for date (YYYY-MM-DD, empty means today)
// and writes it to <output_dir>/<date>.json.
func (uc *ReportUseCase) GenerateDaily(ctx context.Context, date string) (*models.DailyReport, string, error) {
	now := uc.now().UTC()
	if date == "" {
		date = now.Format(util.DateLayout)
	} else if _, err := time.Parse(util.DateLayout, date); err != nil {
		return nil, "", fmt.Errorf("%w %q, want YYYY-MM-DD", ErrInvalidDate, date)
	}

	runs, err := uc.runs.ListRuns(ctx, uc.topN)
	if err != nil {
		return nil, "", fmt.Errorf("list runs: %w", err)
	}
	report := &models.DailyReport{
		Date:          date,
		GeneratedAt:   now,
		Summary:       fmt.Sprintf("%d strategies evaluated.", len(runs)),
		TopStrategies: make([]models.StrategySummary, 0, len(runs)),
		Charts:        []string{},
	}
	for _, r := range runs {
		report.TopStrategies = append(report.TopStrategies, models.StrategySummary{
			Strategy: r.Strategy,
			Symbol:   r.Symbol,
			PnL:      r.Metrics[models.MetricPnL],
		})
	}

	if err := os.MkdirAll(uc.outputDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create report dir: %w", err)
	}
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, "", err
	}
	path := filepath.Join(uc.outputDir, date+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return nil, "", fmt.Errorf("write report: %w", err)
	}
	return report, path, nil
}
