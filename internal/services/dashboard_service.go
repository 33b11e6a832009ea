package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"labourpulse/internal/analytics"
	"labourpulse/internal/dataset"
	"labourpulse/internal/infrastructure"
	"labourpulse/pkg/contracts/domain"
)

// DashboardService answers every dashboard query. It is stateless
// apart from the loader's file cache, so all methods are safe for
// concurrent use.
type DashboardService struct {
	loader     *dataset.Loader
	sampleRows int
	logger     *slog.Logger
	metrics    *infrastructure.DashboardMetrics
}

// NewDashboardService creates the dashboard query service. metrics may
// be nil when telemetry is disabled.
func NewDashboardService(loader *dataset.Loader, sampleRows int, logger *slog.Logger, metrics *infrastructure.DashboardMetrics) *DashboardService {
	if sampleRows <= 0 {
		sampleRows = 5
	}
	return &DashboardService{
		loader:     loader,
		sampleRows: sampleRows,
		logger:     logger.With(slog.String("component", "dashboard_service")),
		metrics:    metrics,
	}
}

// load fetches the dataset through the cache and records load metrics.
func (s *DashboardService) load(ctx context.Context) (*domain.Dataset, error) {
	start := time.Now()
	ds, cached, err := s.loader.Load(ctx)

	records := 0
	if ds != nil {
		records = ds.Info.Records
	}
	infrastructure.RecordDatasetLoad(ctx, s.metrics, records, time.Since(start), cached, err)

	if err != nil {
		s.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("path", s.loader.Path()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrDatasetNotLoaded, err)
	}
	return ds, nil
}

// Reload drops the cached dataset and loads the file again. Used by
// the file watcher when the source changes on disk.
func (s *DashboardService) Reload(ctx context.Context) (*domain.DatasetInfo, error) {
	s.loader.Invalidate()
	ds, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	info := ds.Info
	return &info, nil
}

// Info returns the dataset summary shown in the dashboard header.
func (s *DashboardService) Info(ctx context.Context) (*domain.DatasetInfo, error) {
	ds, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	info := ds.Info
	return &info, nil
}

// SampleRows returns the first n observations for the raw-data preview.
// n <= 0 falls back to the configured default.
func (s *DashboardService) SampleRows(ctx context.Context, n int) ([]domain.Observation, error) {
	ds, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if n <= 0 {
		n = s.sampleRows
	}
	if n > len(ds.Observations) {
		n = len(ds.Observations)
	}

	out := make([]domain.Observation, n)
	copy(out, ds.Observations[:n])
	return out, nil
}

// validateSelection rejects explicit empty region lists and unknown
// region names. A nil region list means all regions and is always valid.
func (s *DashboardService) validateSelection(ds *domain.Dataset, sel analytics.Selection) error {
	if sel.Regions != nil && len(sel.Regions) == 0 {
		return ErrEmptySelection
	}

	known := make(map[string]struct{}, len(ds.Info.Regions))
	for _, region := range ds.Info.Regions {
		known[region] = struct{}{}
	}
	for _, region := range sel.Regions {
		if _, ok := known[region]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRegion, region)
		}
	}
	return nil
}

// filtered loads the dataset, validates the selection, and applies it.
func (s *DashboardService) filtered(ctx context.Context, sel analytics.Selection) ([]domain.Observation, error) {
	ds, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateSelection(ds, sel); err != nil {
		return nil, err
	}
	return analytics.Filter(ds.Observations, sel), nil
}

// OverallTrend returns the mean unemployment rate per date for the selection.
func (s *DashboardService) OverallTrend(ctx context.Context, sel analytics.Selection) ([]domain.DateMean, error) {
	start := time.Now()
	observations, err := s.filtered(ctx, sel)
	if err != nil {
		infrastructure.RecordQueryMetrics(ctx, s.metrics, "overall_trend", time.Since(start), err)
		return nil, err
	}
	rows := analytics.GroupMeanByDate(observations)
	infrastructure.RecordQueryMetrics(ctx, s.metrics, "overall_trend", time.Since(start), nil)
	return rows, nil
}

// AreaTrend returns the mean rate per date split by rural and urban areas.
func (s *DashboardService) AreaTrend(ctx context.Context, sel analytics.Selection) ([]domain.DateAreaMean, error) {
	start := time.Now()
	observations, err := s.filtered(ctx, sel)
	if err != nil {
		infrastructure.RecordQueryMetrics(ctx, s.metrics, "area_trend", time.Since(start), err)
		return nil, err
	}
	rows := analytics.GroupMeanByDateArea(observations)
	infrastructure.RecordQueryMetrics(ctx, s.metrics, "area_trend", time.Since(start), nil)
	return rows, nil
}

// RegionalTrends returns the mean rate per date for each selected region.
func (s *DashboardService) RegionalTrends(ctx context.Context, sel analytics.Selection) ([]domain.DateRegionMean, error) {
	start := time.Now()
	observations, err := s.filtered(ctx, sel)
	if err != nil {
		infrastructure.RecordQueryMetrics(ctx, s.metrics, "regional_trends", time.Since(start), err)
		return nil, err
	}
	rows := analytics.GroupMeanByDateRegion(observations)
	infrastructure.RecordQueryMetrics(ctx, s.metrics, "regional_trends", time.Since(start), nil)
	return rows, nil
}

// RegionalMeans returns each selected region's mean rate over the window,
// ordered highest first for the bar chart.
func (s *DashboardService) RegionalMeans(ctx context.Context, sel analytics.Selection) ([]domain.RegionMean, error) {
	start := time.Now()
	observations, err := s.filtered(ctx, sel)
	if err != nil {
		infrastructure.RecordQueryMetrics(ctx, s.metrics, "regional_means", time.Since(start), err)
		return nil, err
	}
	rows := analytics.GroupMeanByRegion(observations)
	infrastructure.RecordQueryMetrics(ctx, s.metrics, "regional_means", time.Since(start), nil)
	return rows, nil
}

// Correlations returns per-region Pearson correlations for the selection.
func (s *DashboardService) Correlations(ctx context.Context, sel analytics.Selection) ([]domain.RegionCorrelation, error) {
	start := time.Now()
	observations, err := s.filtered(ctx, sel)
	if err != nil {
		infrastructure.RecordQueryMetrics(ctx, s.metrics, "correlations", time.Since(start), err)
		return nil, err
	}
	rows := analytics.Correlations(observations)
	infrastructure.RecordQueryMetrics(ctx, s.metrics, "correlations", time.Since(start), nil)
	return rows, nil
}

// Distribution returns the rate histogram and per-area box statistics.
// An empty selection result is an error: there is nothing to plot.
func (s *DashboardService) Distribution(ctx context.Context, sel analytics.Selection, bins int) (*domain.Distribution, error) {
	start := time.Now()
	observations, err := s.filtered(ctx, sel)
	if err != nil {
		infrastructure.RecordQueryMetrics(ctx, s.metrics, "distribution", time.Since(start), err)
		return nil, err
	}
	if len(observations) == 0 {
		infrastructure.RecordQueryMetrics(ctx, s.metrics, "distribution", time.Since(start), ErrNoObservations)
		return nil, ErrNoObservations
	}
	dist := analytics.Distribution(observations, bins)
	infrastructure.RecordQueryMetrics(ctx, s.metrics, "distribution", time.Since(start), nil)
	return dist, nil
}

// ImpactSummary returns the nationwide Covid before/after comparison.
// Impact figures always cover the full dataset, not a selection.
func (s *DashboardService) ImpactSummary(ctx context.Context) (*domain.ImpactSummary, error) {
	start := time.Now()
	ds, err := s.load(ctx)
	if err != nil {
		infrastructure.RecordQueryMetrics(ctx, s.metrics, "impact_summary", time.Since(start), err)
		return nil, err
	}
	summary := analytics.OverallImpact(ds.Observations)
	infrastructure.RecordQueryMetrics(ctx, s.metrics, "impact_summary", time.Since(start), nil)
	return &summary, nil
}

// RegionImpacts returns per-region Covid impact records. top > 0 keeps
// only the regions with the largest signed change.
func (s *DashboardService) RegionImpacts(ctx context.Context, top int) ([]domain.ImpactRecord, error) {
	start := time.Now()
	ds, err := s.load(ctx)
	if err != nil {
		infrastructure.RecordQueryMetrics(ctx, s.metrics, "region_impacts", time.Since(start), err)
		return nil, err
	}
	records := analytics.RegionImpacts(ds.Observations)
	if top > 0 {
		records = analytics.TopRegions(records, top)
	}
	infrastructure.RecordQueryMetrics(ctx, s.metrics, "region_impacts", time.Since(start), nil)
	return records, nil
}

// AreaImpacts returns the Covid impact comparison per area.
func (s *DashboardService) AreaImpacts(ctx context.Context) ([]domain.ImpactRecord, error) {
	start := time.Now()
	ds, err := s.load(ctx)
	if err != nil {
		infrastructure.RecordQueryMetrics(ctx, s.metrics, "area_impacts", time.Since(start), err)
		return nil, err
	}
	records := analytics.AreaImpacts(ds.Observations)
	infrastructure.RecordQueryMetrics(ctx, s.metrics, "area_impacts", time.Since(start), nil)
	return records, nil
}

// CovidMonthlyTrend returns the monthly mean rate across H1 2020.
func (s *DashboardService) CovidMonthlyTrend(ctx context.Context) ([]domain.DateMean, error) {
	start := time.Now()
	ds, err := s.load(ctx)
	if err != nil {
		infrastructure.RecordQueryMetrics(ctx, s.metrics, "covid_monthly_trend", time.Since(start), err)
		return nil, err
	}
	rows := analytics.CovidMonthly(ds.Observations)
	infrastructure.RecordQueryMetrics(ctx, s.metrics, "covid_monthly_trend", time.Since(start), nil)
	return rows, nil
}

// Observations returns the raw observations matching a selection. The
// export handlers use this to build downloadable reports.
func (s *DashboardService) Observations(ctx context.Context, sel analytics.Selection) ([]domain.Observation, error) {
	return s.filtered(ctx, sel)
}
