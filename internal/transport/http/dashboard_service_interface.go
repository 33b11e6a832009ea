package http

import (
	"context"

	"labourpulse/internal/analytics"
	"labourpulse/pkg/contracts/domain"
)

// DashboardService is the query surface the handlers depend on. The
// concrete implementation lives in internal/services; tests use mocks.
type DashboardService interface {
	Info(ctx context.Context) (*domain.DatasetInfo, error)
	SampleRows(ctx context.Context, n int) ([]domain.Observation, error)
	OverallTrend(ctx context.Context, sel analytics.Selection) ([]domain.DateMean, error)
	AreaTrend(ctx context.Context, sel analytics.Selection) ([]domain.DateAreaMean, error)
	RegionalTrends(ctx context.Context, sel analytics.Selection) ([]domain.DateRegionMean, error)
	RegionalMeans(ctx context.Context, sel analytics.Selection) ([]domain.RegionMean, error)
	Correlations(ctx context.Context, sel analytics.Selection) ([]domain.RegionCorrelation, error)
	Distribution(ctx context.Context, sel analytics.Selection, bins int) (*domain.Distribution, error)
	ImpactSummary(ctx context.Context) (*domain.ImpactSummary, error)
	RegionImpacts(ctx context.Context, top int) ([]domain.ImpactRecord, error)
	AreaImpacts(ctx context.Context) ([]domain.ImpactRecord, error)
	CovidMonthlyTrend(ctx context.Context) ([]domain.DateMean, error)
	Observations(ctx context.Context, sel analytics.Selection) ([]domain.Observation, error)
}
