package analytics

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"labourpulse/pkg/contracts/domain"
)

// DefaultHistogramBins is the bucket count of the rate distribution chart.
const DefaultHistogramBins = 30

// Histogram buckets the unemployment rates into bins equal-width bins
// spanning [min, max]. The last bin includes the maximum. bins <= 0
// falls back to DefaultHistogramBins.
func Histogram(observations []domain.Observation, bins int) []domain.HistogramBin {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	if len(observations) == 0 {
		return nil
	}

	rates := make([]float64, len(observations))
	for i, obs := range observations {
		rates[i] = obs.UnemploymentRate
	}

	min := floats.Min(rates)
	max := floats.Max(rates)

	if min == max {
		return []domain.HistogramBin{{Low: min, High: max, Count: len(rates)}}
	}

	width := (max - min) / float64(bins)
	out := make([]domain.HistogramBin, bins)
	for i := range out {
		out[i].Low = min + float64(i)*width
		out[i].High = min + float64(i+1)*width
	}
	out[bins-1].High = max

	for _, v := range rates {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		out[idx].Count++
	}

	return out
}

// BoxStatsByArea computes five-number summaries of the unemployment
// rate per area, ordered Rural, Urban, Both. Areas without
// observations are omitted.
func BoxStatsByArea(observations []domain.Observation) []domain.BoxStats {
	groups := make(map[domain.Area][]float64)
	for _, obs := range observations {
		groups[obs.Area] = append(groups[obs.Area], obs.UnemploymentRate)
	}

	var out []domain.BoxStats
	for _, area := range []domain.Area{domain.AreaRural, domain.AreaUrban, domain.AreaBoth} {
		rates, ok := groups[area]
		if !ok {
			continue
		}
		sort.Float64s(rates)
		out = append(out, domain.BoxStats{
			Area:   area,
			Min:    rates[0],
			Q1:     stat.Quantile(0.25, stat.Empirical, rates, nil),
			Median: stat.Quantile(0.5, stat.Empirical, rates, nil),
			Q3:     stat.Quantile(0.75, stat.Empirical, rates, nil),
			Max:    rates[len(rates)-1],
			Count:  len(rates),
		})
	}
	return out
}

// Distribution bundles the histogram and box statistics for a selection.
func Distribution(observations []domain.Observation, bins int) *domain.Distribution {
	return &domain.Distribution{
		Bins:  Histogram(observations, bins),
		Boxes: BoxStatsByArea(observations),
	}
}
