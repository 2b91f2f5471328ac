package repository

import "fmt"

// Table names, unqualified.
const (
	TableOHLCV    = "ohlcv"
	TableFeatures = "features"
	TableModels   = "models"
	TableSimRuns  = "sim_runs"
)

// Schema returns the idempotent DDL for database db.
func Schema(db string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			symbol   LowCardinality(String),
			interval LowCardinality(String),
			bucket   DateTime64(3, 'UTC'),
			open     Float64,
			high     Float64,
			low      Float64,
			close    Float64,
			volume   Float64
		) ENGINE = ReplacingMergeTree
		ORDER BY (symbol, interval, bucket)`, db, TableOHLCV),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			symbol     LowCardinality(String),
			interval   LowCardinality(String),
			ts         DateTime64(3, 'UTC'),
			names      Array(String),
			values     Array(Float64),
			updated_at DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY (symbol, interval, ts)`, db, TableFeatures),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			model_id        String,
			symbol          LowCardinality(String),
			horizon         LowCardinality(String),
			feature_columns Array(String),
			test_rmse       Nullable(Float64),
			created_at      DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(created_at)
		ORDER BY (symbol, horizon, model_id)`, db, TableModels),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			run_id       String,
			strategy     LowCardinality(String),
			symbol       LowCardinality(String),
			interval     LowCardinality(String),
			horizon      LowCardinality(String),
			metrics      String,
			trades       String,
			equity_curve String,
			created_at   DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(created_at)
		ORDER BY run_id`, db, TableSimRuns),
	}
}
