package dataset

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

	"labourpulse/pkg/contracts/domain"
)

const sampleHeader = "Region, Date, Frequency, Estimated Unemployment Rate (%), Estimated Employed, Estimated Labour Participation Rate (%),Area\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unemployment.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestLoader(path string) *Loader {
	return NewLoader(path, slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func TestLoadParsesObservations(t *testing.T) {
	path := writeCSV(t, sampleHeader+
		"Andhra Pradesh, 31-05-2019, Monthly, 3.65, 11999139, 43.24,Rural\n"+
		"Tripura, 30/06/2020, Monthly, 17.41, 1086721, 40.03,Urban\n")

	ds, cached, err := newTestLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, ds.Observations, 2)

	first := ds.Observations[0]
	assert.Equal(t, "Andhra Pradesh", first.Region)
	assert.Equal(t, domain.AreaRural, first.Area)
	assert.Equal(t, time.Date(2019, 5, 31, 0, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, 2019, first.Year)
	assert.Equal(t, 5, first.Month)
	assert.Equal(t, "May", first.MonthName)
	assert.InDelta(t, 3.65, first.UnemploymentRate, 1e-9)
	assert.InDelta(t, 11999139, first.EmployedCount, 1e-9)
	assert.InDelta(t, 43.24, first.ParticipationRate, 1e-9)

	// Slash-separated dates parse the same way
	second := ds.Observations[1]
	assert.Equal(t, time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC), second.Date)
	assert.Equal(t, "Jun", second.MonthName) // abbreviated, not "June"
	assert.Equal(t, domain.AreaUrban, second.Area)
}

func TestLoadStripsBOMAndWhitespace(t *testing.T) {
	path := writeCSV(t, "\ufeff"+sampleHeader+
		"  Kerala  ,  31-05-2019 , Monthly ,  9.51 , 11999139 , 40.0 , Rural \n")

	ds, _, err := newTestLoader(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ds.Observations, 1)
	assert.Equal(t, "Kerala", ds.Observations[0].Region)
	assert.Equal(t, domain.AreaRural, ds.Observations[0].Area)
}

func TestLoadSkipsBlankRows(t *testing.T) {
	path := writeCSV(t, sampleHeader+
		"Kerala, 31-05-2019, Monthly, 9.51, 11999139, 40.0,Rural\n"+
		", , , , , ,\n"+
		"Goa, 30-06-2019, Monthly, 4.7, 288744, 41.2,Urban\n")

	ds, _, err := newTestLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Observations, 2)
}

func TestLoadFailsFast(t *testing.T) {
	tests := []struct {
		name       string
		row        string
		wantColumn string
	}{
		{
			name:       "bad date",
			row:        "Kerala, 2019-05-31, Monthly, 9.51, 11999139, 40.0,Rural",
			wantColumn: colDate,
		},
		{
			name:       "bad rate",
			row:        "Kerala, 31-05-2019, Monthly, n/a, 11999139, 40.0,Rural",
			wantColumn: colUnemploymentRate,
		},
		{
			name:       "bad area",
			row:        "Kerala, 31-05-2019, Monthly, 9.51, 11999139, 40.0,Suburban",
			wantColumn: colArea,
		},
		{
			name:       "empty region",
			row:        ", 31-05-2019, Monthly, 9.51, 11999139, 40.0,Rural",
			wantColumn: colRegion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, sampleHeader+tt.row+"\n")
			_, _, err := newTestLoader(path).Load(context.Background())
			require.Error(t, err)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, 2, loadErr.Row)
			assert.Equal(t, tt.wantColumn, loadErr.Column)
		})
	}
}

func TestLoadMissingColumns(t *testing.T) {
	path := writeCSV(t, "Region,Date\nKerala,31-05-2019\n")

	_, _, err := newTestLoader(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := newTestLoader(filepath.Join(t.TempDir(), "absent.csv")).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat dataset file")
}

func TestLoadEmptyDataset(t *testing.T) {
	path := writeCSV(t, sampleHeader)
	_, _, err := newTestLoader(path).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data rows")
}

func TestLoadCaching(t *testing.T) {
	path := writeCSV(t, sampleHeader+
		"Kerala, 31-05-2019, Monthly, 9.51, 11999139, 40.0,Rural\n")
	loader := newTestLoader(path)
	ctx := context.Background()

	first, cached, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.False(t, cached)

	second, cached, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Same(t, first, second)

	// A changed file invalidates the cache
	newContent := sampleHeader +
		"Kerala, 31-05-2019, Monthly, 9.51, 11999139, 40.0,Rural\n" +
		"Goa, 30-06-2019, Monthly, 4.7, 288744, 41.2,Urban\n"
	require.NoError(t, os.WriteFile(path, []byte(newContent), 0o644))
	// Some filesystems have coarse mtime resolution; force a distinct mtime.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	third, cached, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, third.Observations, 2)
}

func TestLoaderInvalidate(t *testing.T) {
	path := writeCSV(t, sampleHeader+
		"Kerala, 31-05-2019, Monthly, 9.51, 11999139, 40.0,Rural\n")
	loader := newTestLoader(path)
	ctx := context.Background()

	_, _, err := loader.Load(ctx)
	require.NoError(t, err)

	loader.Invalidate()
	_, cached, err := loader.Load(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestDatasetInfo(t *testing.T) {
	path := writeCSV(t, sampleHeader+
		"Tripura, 30-06-2020, Monthly, 17.41, 1086721, 40.03,Urban\n"+
		"Kerala, 31-05-2019, Monthly, 9.51, 11999139, 40.0,Rural\n"+
		"Kerala, 30-06-2019, Monthly, 9.1, 11998000, 40.1,Urban\n")

	ds, _, err := newTestLoader(path).Load(context.Background())
	require.NoError(t, err)

	info := ds.Info
	assert.Equal(t, 3, info.Records)
	assert.Equal(t, time.Date(2019, 5, 31, 0, 0, 0, 0, time.UTC), info.From)
	assert.Equal(t, time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC), info.To)
	assert.Equal(t, []string{"Kerala", "Tripura"}, info.Regions)
	assert.Equal(t, []domain.Area{domain.AreaRural, domain.AreaUrban}, info.Areas)
	assert.False(t, info.LoadedAt.IsZero())
}
