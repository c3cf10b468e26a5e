package contracts

import (
	"context"
	"time"
)

// FinancialFetcher supplies raw financials for one entity
// ⭐ SSOT: 재무 데이터 수집 인터페이스
// Implementations return an error rather than partial data.
type FinancialFetcher interface {
	Fetch(ctx context.Context, symbol string) (*RawFinancials, error)
}

// CandidateSearcher screens the provider universe for candidate peers
type CandidateSearcher interface {
	SearchCandidates(ctx context.Context, query CandidateQuery) ([]EntityProfile, error)
}

// ProfileSource looks up a single company profile
type ProfileSource interface {
	Profile(ctx context.Context, symbol string) (*EntityProfile, error)
}

// ReportStore persists finished analysis reports
// Stored peer sets are read back only as a discovery fallback.
type ReportStore interface {
	SaveReport(ctx context.Context, report *AnalysisReport) error
	GetReport(ctx context.Context, reportID string) (*AnalysisReport, error)
	ListReports(ctx context.Context, symbol string, limit int) ([]ReportSummary, error)
	DeleteReportsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
