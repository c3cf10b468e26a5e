package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements creates the analysis schema
// 멱등(idempotent): 매 기동 시 실행 가능
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS analysis`,

	`CREATE TABLE IF NOT EXISTS analysis.reports (
		report_id               TEXT PRIMARY KEY,
		target_symbol           TEXT NOT NULL,
		peer_count              INTEGER NOT NULL,
		failure_count           INTEGER NOT NULL,
		report_data             JSONB NOT NULL,
		config_hash             TEXT NOT NULL DEFAULT '',
		processing_time_seconds DOUBLE PRECISION NOT NULL,
		created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_symbol_created
		ON analysis.reports (target_symbol, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS analysis.metric_snapshots (
		symbol         TEXT NOT NULL,
		as_of_date     DATE NOT NULL,
		market_cap     DOUBLE PRECISION,
		pe_ratio       DOUBLE PRECISION,
		revenue        DOUBLE PRECISION,
		revenue_growth DOUBLE PRECISION,
		roe            DOUBLE PRECISION,
		debt_to_equity DOUBLE PRECISION,
		sector         TEXT,
		industry       TEXT,
		country        TEXT,
		raw            JSONB,
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (symbol, as_of_date)
	)`,

	`CREATE TABLE IF NOT EXISTS analysis.peer_relationships (
		target_symbol TEXT NOT NULL,
		peer_symbol   TEXT NOT NULL,
		similarity    DOUBLE PRECISION NOT NULL,
		weighted      DOUBLE PRECISION NOT NULL,
		tier          TEXT NOT NULL,
		source        TEXT NOT NULL,
		peer_data     JSONB NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (target_symbol, peer_symbol)
	)`,
}

// EnsureSchema creates the analysis schema and tables if missing
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
