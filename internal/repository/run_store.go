package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"Lenxys/internal/domain/models"
	domrepo "Lenxys/internal/domain/repository"
	pkgch "Lenxys/pkg/clickhouse"
	applogger "Lenxys/pkg/logger"
)

// CHRunStore persists simulation runs. Nested values are stored as JSON strings.
type CHRunStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHRunStore(ch *pkgch.Client, database string) *CHRunStore {
	return &CHRunStore{db: ch.DB(), table: database + "." + TableSimRuns, l: applogger.Nop()}
}

func (s *CHRunStore) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l
	}
}

func (s *CHRunStore) SaveRun(ctx context.Context, run *models.SimRun) error {
	if run == nil || run.RunID == "" {
		return fmt.Errorf("save run: missing run_id")
	}
	metrics, trades, curve, err := encodeRun(run)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	q := fmt.Sprintf(`INSERT INTO %s (run_id, strategy, symbol, interval, horizon, metrics, trades, equity_curve, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	if _, err := s.db.ExecContext(ctx, q, run.RunID, run.Strategy, run.Symbol, run.Interval, run.Horizon,
		metrics, trades, curve, created.UTC()); err != nil {
		s.l.Error("clickhouse save_run failed", applogger.String("run_id", run.RunID), applogger.Error(err))
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

const runColumns = "run_id, strategy, symbol, interval, horizon, metrics, trades, equity_curve, created_at"

func (s *CHRunStore) GetRun(ctx context.Context, runID string) (*models.SimRun, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE run_id = ? LIMIT 1", runColumns, s.table)
	run, err := scanRun(s.db.QueryRowContext(ctx, q, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (s *CHRunStore) ListRuns(ctx context.Context, limit int) ([]models.SimRun, error) {
	if limit <= 0 {
		limit = 10
	}
	q := fmt.Sprintf("SELECT %s FROM %s FINAL ORDER BY created_at DESC LIMIT ?", runColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]models.SimRun, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(r rowScanner) (*models.SimRun, error) {
	var (
		run                    models.SimRun
		metrics, trades, curve string
	)
	if err := r.Scan(&run.RunID, &run.Strategy, &run.Symbol, &run.Interval, &run.Horizon,
		&metrics, &trades, &curve, &run.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeRun(&run, metrics, trades, curve); err != nil {
		return nil, err
	}
	return &run, nil
}

func encodeRun(run *models.SimRun) (metrics, trades, curve string, err error) {
	m := run.Metrics
	if m == nil {
		m = map[string]float64{}
	}
	t := run.Trades
	if t == nil {
		t = []models.Trade{}
	}
	c := run.EquityCurve
	if c == nil {
		c = []models.EquityPoint{}
	}
	mb, err := json.Marshal(m)
	if err != nil {
		return "", "", "", err
	}
	tb, err := json.Marshal(t)
	if err != nil {
		return "", "", "", err
	}
	cb, err := json.Marshal(c)
	if err != nil {
		return "", "", "", err
	}
	return string(mb), string(tb), string(cb), nil
}

func decodeRun(run *models.SimRun, metrics, trades, curve string) error {
	if err := json.Unmarshal([]byte(metrics), &run.Metrics); err != nil {
		return fmt.Errorf("decode metrics: %w", err)
	}
	if err := json.Unmarshal([]byte(trades), &run.Trades); err != nil {
		return fmt.Errorf("decode trades: %w", err)
	}
	if err := json.Unmarshal([]byte(curve), &run.EquityCurve); err != nil {
		return fmt.Errorf("decode equity curve: %w", err)
	}
	return nil
}

var _ domrepo.RunStore = (*CHRunStore)(nil)
