package usecase

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Lenxys/internal/domain/models"
)

func TestGenerateDailyReport(t *testing.T) {
	runs := &memRuns{runs: []models.SimRun{
		{RunID: "a", Strategy: StrategyBaseline, Symbol: "BTC", Metrics: map[string]float64{models.MetricPnL: -3}},
		{RunID: "b", Strategy: StrategyEnsemble, Symbol: "ETH", Metrics: map[string]float64{models.MetricPnL: 12.5}},
	}}
	dir := t.TempDir()
	uc := NewReportUseCase(runs, dir, 5)
	uc.now = func() time.Time { return time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC) }

	rep, path, err := uc.GenerateDaily(context.Background(), "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.Date != "2024-02-03" || rep.Summary != "2 strategies evaluated." {
		t.Fatalf("unexpected report %+v", rep)
	}
	if rep.TopStrategies[0].Strategy != StrategyEnsemble || rep.TopStrategies[0].PnL != 12.5 {
		t.Fatalf("latest run should come first: %+v", rep.TopStrategies)
	}
	if path != filepath.Join(dir, "2024-02-03.json") {
		t.Fatalf("unexpected path %s", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var onDisk models.DailyReport
	if err := json.Unmarshal(b, &onDisk); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(onDisk.TopStrategies) != 2 || onDisk.Charts == nil {
		t.Fatalf("unexpected file content %s", b)
	}

	if _, _, err := uc.GenerateDaily(context.Background(), "03/02/2024"); err == nil {
		t.Fatal("expected invalid date error")
	}
}
