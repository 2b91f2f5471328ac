package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	pkgch "Lenxys/pkg/clickhouse"
	applogger "Lenxys/pkg/logger"
)

// CHModelRegistry lists candidate models stored in ClickHouse.
type CHModelRegistry struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHModelRegistry(ch *pkgch.Client, database string) *CHModelRegistry {
	return &CHModelRegistry{db: ch.DB(), table: database + "." + TableModels, l: applogger.Nop()}
}

func (r *CHModelRegistry) SetLogger(l *applogger.Logger) {
	if l != nil {
		r.l = l
	}
}

// ListCandidates returns models for (symbol, horizon) ordered by creation time.
func (r *CHModelRegistry) ListCandidates(ctx context.Context, symbol, horizon string) ([]models.CandidateModel, error) {
	q := fmt.Sprintf(`
        SELECT model_id, symbol, horizon, feature_columns, test_rmse, created_at
        FROM %s FINAL
        WHERE symbol = ? AND horizon = ?
        ORDER BY created_at ASC, model_id ASC
    `, r.table)
	rows, err := r.db.QueryContext(ctx, q, symbol, horizon)
	if err != nil {
		r.l.Error("clickhouse list_models failed",
			applogger.String("symbol", symbol),
			applogger.String("horizon", horizon),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []models.CandidateModel
	for rows.Next() {
		var (
			m    models.CandidateModel
			rmse sql.NullFloat64
		)
		if err := rows.Scan(&m.ModelID, &m.Symbol, &m.Horizon, &m.FeatureColumns, &rmse, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		if rmse.Valid {
			v := rmse.Float64
			m.Metrics = &models.ModelMetrics{Test: &models.SplitMetrics{RMSE: &v}}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Register upserts a model row. A zero CreatedAt is set to now.
func (r *CHModelRegistry) Register(ctx context.Context, m models.CandidateModel) error {
	if m.ModelID == "" {
		return fmt.Errorf("register model: empty model_id")
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	var rmse any
	if v := m.Metrics.TestRMSE(); v != nil {
		rmse = *v
	}
	cols := m.FeatureColumns
	if cols == nil {
		cols = []string{}
	}
	q := fmt.Sprintf("INSERT INTO %s (model_id, symbol, horizon, feature_columns, test_rmse, created_at) VALUES (?, ?, ?, ?, ?, ?)", r.table)
	if _, err := r.db.ExecContext(ctx, q, m.ModelID, m.Symbol, m.Horizon, cols, rmse, m.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("register model: %w", err)
	}
	return nil
}

var _ domrepo.ModelCatalog = (*CHModelRegistry)(nil)
