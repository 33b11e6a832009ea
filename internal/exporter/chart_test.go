package exporter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labourpulse/pkg/contracts/domain"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderTrendChart(t *testing.T) {
	trend := []domain.DateMean{
		{Date: time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), MeanRate: 6},
		{Date: time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC), MeanRate: 7.5},
		{Date: time.Date(2020, 4, 30, 0, 0, 0, 0, time.UTC), MeanRate: 20},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderTrendChart(&buf, "National Trend", trend))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic), "output should be a PNG")
}

func TestRenderTrendChartTooFewPoints(t *testing.T) {
	var buf bytes.Buffer
	err := RenderTrendChart(&buf, "National Trend", []domain.DateMean{
		{Date: time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC), MeanRate: 6},
	})
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestRenderRegionalMeansChart(t *testing.T) {
	means := []domain.RegionMean{
		{Region: "Alpha", MeanRate: 10},
		{Region: "Beta", MeanRate: 9},
		{Region: "Gamma", MeanRate: 4.5},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderRegionalMeansChart(&buf, means))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderRegionalMeansChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderRegionalMeansChart(&buf, nil))
}

func TestRenderImpactChart(t *testing.T) {
	records := []domain.ImpactRecord{
		{Label: "Rural", PreMean: 5, PostMean: 20},
		{Label: "Urban", PreMean: 8, PostMean: 10},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderImpactChart(&buf, "Covid Impact by Area", records))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderImpactChartEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, RenderImpactChart(&buf, "Covid Impact", nil))
}
