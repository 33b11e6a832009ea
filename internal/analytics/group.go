package analytics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"labourpulse/pkg/contracts/domain"
)

// GroupMeanByDate averages the unemployment rate per date. Results are
// sorted chronologically; dates with no observations are absent.
func GroupMeanByDate(observations []domain.Observation) []domain.DateMean {
	groups := make(map[time.Time][]float64)
	for _, obs := range observations {
		groups[obs.Date] = append(groups[obs.Date], obs.UnemploymentRate)
	}

	out := make([]domain.DateMean, 0, len(groups))
	for date, rates := range groups {
		out = append(out, domain.DateMean{
			Date:     date,
			MeanRate: stat.Mean(rates, nil),
			Count:    len(rates),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// GroupMeanByDateArea averages per (date, area), sorted by date then area.
func GroupMeanByDateArea(observations []domain.Observation) []domain.DateAreaMean {
	type key struct {
		date time.Time
		area domain.Area
	}
	groups := make(map[key][]float64)
	for _, obs := range observations {
		k := key{date: obs.Date, area: obs.Area}
		groups[k] = append(groups[k], obs.UnemploymentRate)
	}

	out := make([]domain.DateAreaMean, 0, len(groups))
	for k, rates := range groups {
		out = append(out, domain.DateAreaMean{
			Date:     k.date,
			Area:     k.area,
			MeanRate: stat.Mean(rates, nil),
			Count:    len(rates),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Area < out[j].Area
	})
	return out
}

// GroupMeanByDateRegion averages per (date, region), sorted by date then region.
func GroupMeanByDateRegion(observations []domain.Observation) []domain.DateRegionMean {
	type key struct {
		date   time.Time
		region string
	}
	groups := make(map[key][]float64)
	for _, obs := range observations {
		k := key{date: obs.Date, region: obs.Region}
		groups[k] = append(groups[k], obs.UnemploymentRate)
	}

	out := make([]domain.DateRegionMean, 0, len(groups))
	for k, rates := range groups {
		out = append(out, domain.DateRegionMean{
			Date:     k.date,
			Region:   k.region,
			MeanRate: stat.Mean(rates, nil),
			Count:    len(rates),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Region < out[j].Region
	})
	return out
}

// GroupMeanByRegion averages per region, sorted by mean rate descending
// with alphabetical tie-break, matching the regional bar chart order.
func GroupMeanByRegion(observations []domain.Observation) []domain.RegionMean {
	groups := make(map[string][]float64)
	for _, obs := range observations {
		groups[obs.Region] = append(groups[obs.Region], obs.UnemploymentRate)
	}

	out := make([]domain.RegionMean, 0, len(groups))
	for region, rates := range groups {
		out = append(out, domain.RegionMean{
			Region:   region,
			MeanRate: stat.Mean(rates, nil),
			Count:    len(rates),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanRate != out[j].MeanRate {
			return out[i].MeanRate > out[j].MeanRate
		}
		return out[i].Region < out[j].Region
	})
	return out
}

// GroupMeanByRegionArea averages per (region, area), sorted by region then area.
func GroupMeanByRegionArea(observations []domain.Observation) []domain.RegionAreaMean {
	type key struct {
		region string
		area   domain.Area
	}
	groups := make(map[key][]float64)
	for _, obs := range observations {
		k := key{region: obs.Region, area: obs.Area}
		groups[k] = append(groups[k], obs.UnemploymentRate)
	}

	out := make([]domain.RegionAreaMean, 0, len(groups))
	for k, rates := range groups {
		out = append(out, domain.RegionAreaMean{
			Region:   k.region,
			Area:     k.area,
			MeanRate: stat.Mean(rates, nil),
			Count:    len(rates),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Area < out[j].Area
	})
	return out
}
