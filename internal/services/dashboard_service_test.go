package services

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labourpulse/internal/analytics"
	"labourpulse/internal/dataset"
	"labourpulse/pkg/contracts/domain"
)

const serviceCSVHeader = "Region,Date,Frequency,Estimated Unemployment Rate (%),Estimated Employed,Estimated Labour Participation Rate (%),Area\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeServiceCSV(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unemployment.csv")
	require.NoError(t, os.WriteFile(path, []byte(serviceCSVHeader+rows), 0o644))
	return path
}

func newTestService(t *testing.T, rows string) *DashboardService {
	t.Helper()
	path := writeServiceCSV(t, rows)
	loader := dataset.NewLoader(path, discardLogger())
	return NewDashboardService(loader, 2, discardLogger(), nil)
}

const serviceRows = "Alpha,31-05-2019,Monthly,4.00,1000,40.00,Rural\n" +
	"Alpha,31-01-2020,Monthly,6.00,900,41.00,Rural\n" +
	"Alpha,30-04-2020,Monthly,20.00,700,38.00,Rural\n" +
	"Beta,31-05-2019,Monthly,8.00,2000,42.00,Urban\n" +
	"Beta,30-04-2020,Monthly,10.00,1800,43.00,Urban\n"

func TestDashboardServiceInfo(t *testing.T) {
	svc := newTestService(t, serviceRows)

	info, err := svc.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, info.Records)
	assert.Equal(t, []string{"Alpha", "Beta"}, info.Regions)
	assert.Equal(t, time.Date(2019, 5, 31, 0, 0, 0, 0, time.UTC), info.From)
	assert.Equal(t, time.Date(2020, 4, 30, 0, 0, 0, 0, time.UTC), info.To)
}

func TestDashboardServiceInfoMissingFile(t *testing.T) {
	loader := dataset.NewLoader(filepath.Join(t.TempDir(), "absent.csv"), discardLogger())
	svc := NewDashboardService(loader, 2, discardLogger(), nil)

	_, err := svc.Info(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatasetNotLoaded)
}

func TestDashboardServiceSampleRows(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{name: "explicit count", n: 3, want: 3},
		{name: "default when zero", n: 0, want: 2},
		{name: "default when negative", n: -1, want: 2},
		{name: "clamped to dataset size", n: 100, want: 5},
	}

	svc := newTestService(t, serviceRows)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := svc.SampleRows(context.Background(), tt.n)
			require.NoError(t, err)
			assert.Len(t, rows, tt.want)
			if len(rows) > 0 {
				assert.Equal(t, "Alpha", rows[0].Region)
			}
		})
	}
}

func TestDashboardServiceSelectionValidation(t *testing.T) {
	tests := []struct {
		name    string
		sel     analytics.Selection
		wantErr error
	}{
		{
			name: "nil regions means all",
			sel:  analytics.Selection{},
		},
		{
			name:    "explicit empty selection",
			sel:     analytics.Selection{Regions: []string{}},
			wantErr: ErrEmptySelection,
		},
		{
			name:    "unknown region",
			sel:     analytics.Selection{Regions: []string{"Atlantis"}},
			wantErr: ErrUnknownRegion,
		},
		{
			name: "known regions",
			sel:  analytics.Selection{Regions: []string{"Alpha", "Beta"}},
		},
	}

	svc := newTestService(t, serviceRows)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.OverallTrend(context.Background(), tt.sel)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDashboardServiceOverallTrend(t *testing.T) {
	svc := newTestService(t, serviceRows)

	rows, err := svc.OverallTrend(context.Background(), analytics.Selection{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// 2019-05-31 averages Alpha 4.00 and Beta 8.00.
	assert.Equal(t, time.Date(2019, 5, 31, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.InDelta(t, 6.0, rows[0].MeanRate, 1e-9)
	assert.Equal(t, 2, rows[0].Count)
}

func TestDashboardServiceOverallTrendSingleRegion(t *testing.T) {
	svc := newTestService(t, serviceRows)

	rows, err := svc.OverallTrend(context.Background(), analytics.Selection{Regions: []string{"Beta"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.InDelta(t, 8.0, rows[0].MeanRate, 1e-9)
	assert.InDelta(t, 10.0, rows[1].MeanRate, 1e-9)
}

func TestDashboardServiceRegionalMeansOrder(t *testing.T) {
	svc := newTestService(t, serviceRows)

	rows, err := svc.RegionalMeans(context.Background(), analytics.Selection{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Alpha mean 10.00 outranks Beta mean 9.00.
	assert.Equal(t, "Alpha", rows[0].Region)
	assert.Equal(t, "Beta", rows[1].Region)
	assert.GreaterOrEqual(t, rows[0].MeanRate, rows[1].MeanRate)
}

func TestDashboardServiceCorrelations(t *testing.T) {
	svc := newTestService(t, serviceRows)

	rows, err := svc.Correlations(context.Background(), analytics.Selection{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Alpha", rows[0].Region)
	assert.Equal(t, 3, rows[0].Samples)
	assert.True(t, rows[0].WithEmployment.IsDefined())

	// Beta has two samples, enough for a defined correlation.
	assert.Equal(t, "Beta", rows[1].Region)
	assert.Equal(t, 2, rows[1].Samples)
}

func TestDashboardServiceDistribution(t *testing.T) {
	svc := newTestService(t, serviceRows)

	dist, err := svc.Distribution(context.Background(), analytics.Selection{}, 10)
	require.NoError(t, err)
	require.NotNil(t, dist)

	total := 0
	for _, bin := range dist.Bins {
		total += bin.Count
	}
	assert.Equal(t, 5, total)
	require.Len(t, dist.Boxes, 2)
	assert.Equal(t, domain.AreaRural, dist.Boxes[0].Area)
	assert.Equal(t, domain.AreaUrban, dist.Boxes[1].Area)
}

func TestDashboardServiceDistributionEmptyWindow(t *testing.T) {
	svc := newTestService(t, serviceRows)

	sel := analytics.Selection{
		From: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	_, err := svc.Distribution(context.Background(), sel, 10)
	assert.ErrorIs(t, err, ErrNoObservations)
}

func TestDashboardServiceImpactSummary(t *testing.T) {
	svc := newTestService(t, serviceRows)

	summary, err := svc.ImpactSummary(context.Background())
	require.NoError(t, err)

	// Pre window holds 4.00 and 8.00; post window holds 20.00 and 10.00.
	assert.InDelta(t, 6.0, summary.PreMean, 1e-9)
	assert.InDelta(t, 15.0, summary.PostMean, 1e-9)
	assert.Equal(t, "6.00%", summary.PreMeanDisplay)
	assert.Equal(t, "15.00%", summary.PostMeanDisplay)
	assert.Equal(t, "Alpha", summary.MostAffected.Label)
}

func TestDashboardServiceRegionImpacts(t *testing.T) {
	svc := newTestService(t, serviceRows)

	t.Run("all regions", func(t *testing.T) {
		records, err := svc.RegionImpacts(context.Background(), 0)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Alpha", records[0].Label)
		assert.Equal(t, "Beta", records[1].Label)
	})

	t.Run("top one", func(t *testing.T) {
		records, err := svc.RegionImpacts(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		// Alpha climbs 15 points, the largest change.
		assert.Equal(t, "Alpha", records[0].Label)
	})
}

func TestDashboardServiceAreaImpacts(t *testing.T) {
	svc := newTestService(t, serviceRows)

	records, err := svc.AreaImpacts(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Rural", records[0].Label)
	assert.Equal(t, "Urban", records[1].Label)
	assert.InDelta(t, 15.0, records[0].AbsoluteChange, 1e-9)
}

func TestDashboardServiceCovidMonthlyTrend(t *testing.T) {
	svc := newTestService(t, serviceRows)

	rows, err := svc.CovidMonthlyTrend(context.Background())
	require.NoError(t, err)

	// Only the 2020 observations fall inside the trend window.
	require.Len(t, rows, 2)
	assert.Equal(t, time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, time.Date(2020, 4, 30, 0, 0, 0, 0, time.UTC), rows[1].Date)
}

func TestDashboardServiceObservations(t *testing.T) {
	svc := newTestService(t, serviceRows)

	obs, err := svc.Observations(context.Background(), analytics.Selection{Regions: []string{"Beta"}})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	for _, o := range obs {
		assert.Equal(t, "Beta", o.Region)
	}
}

func TestDashboardServiceReload(t *testing.T) {
	path := writeServiceCSV(t, serviceRows)
	loader := dataset.NewLoader(path, discardLogger())
	svc := NewDashboardService(loader, 2, discardLogger(), nil)

	info, err := svc.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, info.Records)

	extra := serviceRows + "Gamma,31-05-2020,Monthly,12.00,500,39.00,Rural\n"
	require.NoError(t, os.WriteFile(path, []byte(serviceCSVHeader+extra), 0o644))

	reloaded, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, reloaded.Records)
	assert.Contains(t, reloaded.Regions, "Gamma")
}
