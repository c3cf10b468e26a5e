package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/pkg/database"
)

// ReportRepository implements contracts.ReportStore
// ⭐ SSOT: 분석 리포트 저장/조회는 여기서만
type ReportRepository struct {
	db *database.DB
}

var _ contracts.ReportStore = (*ReportRepository)(nil)

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// SaveReport stores the report, its metric snapshots and peer relationships
// in one transaction
func (r *ReportRepository) SaveReport(ctx context.Context, report *contracts.AnalysisReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	err = r.db.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO analysis.reports (
				report_id, target_symbol, peer_count, failure_count,
				report_data, config_hash, processing_time_seconds, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (report_id) DO UPDATE SET
				report_data = EXCLUDED.report_data,
				config_hash = EXCLUDED.config_hash,
				processing_time_seconds = EXCLUDED.processing_time_seconds
		`
		_, err := tx.Exec(ctx, query,
			report.ReportID,
			report.TargetSymbol,
			len(report.Peers),
			len(report.Failures),
			data,
			report.ConfigHash,
			report.ProcessingTime.Seconds(),
			report.GeneratedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert report: %w", err)
		}

		asOf := report.GeneratedAt.UTC().Truncate(24 * time.Hour)
		for _, rec := range report.Records {
			row, ok := snapshotOf(rec)
			if !ok {
				continue
			}
			if err := r.saveSnapshot(ctx, tx, asOf, row); err != nil {
				return fmt.Errorf("failed to save snapshot for %s: %w", rec.Symbol, err)
			}
		}

		// 최신 피어 세트로 교체
		target := contracts.NormalizeSymbol(report.TargetSymbol)
		if _, err := tx.Exec(ctx, `DELETE FROM analysis.peer_relationships WHERE target_symbol = $1`, target); err != nil {
			return fmt.Errorf("failed to clear peers: %w", err)
		}
		for _, peer := range report.Peers {
			if err := r.savePeer(ctx, tx, target, peer); err != nil {
				return fmt.Errorf("failed to save peer %s: %w", peer.Symbol(), err)
			}
		}
		return nil
	})
	return err
}

// GetReport loads a report by id
func (r *ReportRepository) GetReport(ctx context.Context, reportID string) (*contracts.AnalysisReport, error) {
	var data []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT report_data FROM analysis.reports WHERE report_id = $1`, reportID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", reportID, contracts.ErrReportNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report contracts.AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// ListReports returns the newest report summaries, optionally for one symbol
func (r *ReportRepository) ListReports(ctx context.Context, symbol string, limit int) ([]contracts.ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT report_id, target_symbol, peer_count, failure_count,
		       config_hash, processing_time_seconds, created_at
		FROM analysis.reports
		WHERE ($1::text = '' OR target_symbol = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, contracts.NormalizeSymbol(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var out []contracts.ReportSummary
	for rows.Next() {
		var s contracts.ReportSummary
		if err := rows.Scan(
			&s.ReportID,
			&s.TargetSymbol,
			&s.PeerCount,
			&s.FailureCount,
			&s.ConfigHash,
			&s.ProcessingTime,
			&s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// DeleteReportsBefore removes reports created before cutoff
func (r *ReportRepository) DeleteReportsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM analysis.reports WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reports: %w", err)
	}
	return tag.RowsAffected(), nil
}

// LatestPeers returns the most recently stored peer set for a target
// Ordered by weighted score, best first.
func (r *ReportRepository) LatestPeers(ctx context.Context, target string) ([]contracts.PeerCandidate, error) {
	query := `
		SELECT peer_data
		FROM analysis.peer_relationships
		WHERE target_symbol = $1
		ORDER BY weighted DESC, peer_symbol
	`
	rows, err := r.db.Pool.Query(ctx, query, contracts.NormalizeSymbol(target))
	if err != nil {
		return nil, fmt.Errorf("failed to query peers: %w", err)
	}
	defer rows.Close()

	var out []contracts.PeerCandidate
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var c contracts.PeerCandidate
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal peer: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

func (r *ReportRepository) saveSnapshot(ctx context.Context, tx pgx.Tx, asOf time.Time, s snapshot) error {
	query := `
		INSERT INTO analysis.metric_snapshots (
			symbol, as_of_date, market_cap, pe_ratio, revenue, revenue_growth,
			roe, debt_to_equity, sector, industry, country, raw, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		ON CONFLICT (symbol, as_of_date) DO UPDATE SET
			market_cap = EXCLUDED.market_cap,
			pe_ratio = EXCLUDED.pe_ratio,
			revenue = EXCLUDED.revenue,
			revenue_growth = EXCLUDED.revenue_growth,
			roe = EXCLUDED.roe,
			debt_to_equity = EXCLUDED.debt_to_equity,
			sector = EXCLUDED.sector,
			industry = EXCLUDED.industry,
			country = EXCLUDED.country,
			raw = EXCLUDED.raw,
			updated_at = NOW()
	`
	_, err := tx.Exec(ctx, query,
		s.Symbol, asOf,
		s.MarketCap, s.PERatio, s.Revenue, s.RevenueGrowth,
		s.ROE, s.DebtToEquity,
		s.Sector, s.Industry, s.Country, s.Raw,
	)
	return err
}

func (r *ReportRepository) savePeer(ctx context.Context, tx pgx.Tx, target string, c contracts.PeerCandidate) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO analysis.peer_relationships (
			target_symbol, peer_symbol, similarity, weighted, tier, source, peer_data, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (target_symbol, peer_symbol) DO UPDATE SET
			similarity = EXCLUDED.similarity,
			weighted = EXCLUDED.weighted,
			tier = EXCLUDED.tier,
			source = EXCLUDED.source,
			peer_data = EXCLUDED.peer_data,
			updated_at = NOW()
	`
	_, err = tx.Exec(ctx, query,
		contracts.NormalizeSymbol(target),
		c.Profile.NormalizedSymbol(),
		c.Score.Combined,
		c.WeightedScore,
		string(c.Relationship),
		string(c.Source),
		data,
	)
	return err
}
