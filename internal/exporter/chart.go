package exporter

import (
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"labourpulse/pkg/contracts/domain"
)

const (
	chartWidth  = 1024
	chartHeight = 512
)

// RenderTrendChart renders the national trend line as a PNG. go-chart
// needs at least two points to draw a line series.
func RenderTrendChart(out io.Writer, title string, trend []domain.DateMean) error {
	if len(trend) < 2 {
		return fmt.Errorf("trend chart needs at least 2 points, got %d", len(trend))
	}

	times := make([]time.Time, len(trend))
	rates := make([]float64, len(trend))
	for i, row := range trend {
		times[i] = row.Date
		rates[i] = row.MeanRate
	}

	graph := chart.Chart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 32}},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01"),
		},
		YAxis: chart.YAxis{Name: "Unemployment Rate (%)"},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Mean rate",
				XValues: times,
				YValues: rates,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, out); err != nil {
		return fmt.Errorf("failed to render trend chart: %w", err)
	}
	return nil
}

// RenderRegionalMeansChart renders the per-region mean rates as a PNG
// bar chart, keeping the mean-descending input order.
func RenderRegionalMeansChart(out io.Writer, means []domain.RegionMean) error {
	if len(means) == 0 {
		return fmt.Errorf("regional means chart needs at least 1 region")
	}

	bars := make([]chart.Value, len(means))
	for i, row := range means {
		bars[i] = chart.Value{Label: row.Region, Value: row.MeanRate}
	}

	graph := chart.BarChart{
		Title:      "Mean Unemployment Rate by Region",
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   40,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 48}},
		Bars:       bars,
	}

	if err := graph.Render(chart.PNG, out); err != nil {
		return fmt.Errorf("failed to render regional means chart: %w", err)
	}
	return nil
}

// RenderImpactChart renders pre vs post Covid means per label as a PNG
// bar chart with paired bars.
func RenderImpactChart(out io.Writer, title string, records []domain.ImpactRecord) error {
	if len(records) == 0 {
		return fmt.Errorf("impact chart needs at least 1 record")
	}

	bars := make([]chart.Value, 0, 2*len(records))
	for _, r := range records {
		bars = append(bars,
			chart.Value{Label: r.Label + " pre", Value: r.PreMean},
			chart.Value{Label: r.Label + " post", Value: r.PostMean},
		)
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   30,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 48}},
		Bars:       bars,
	}

	if err := graph.Render(chart.PNG, out); err != nil {
		return fmt.Errorf("failed to render impact chart: %w", err)
	}
	return nil
}
