package analytics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"labourpulse/pkg/contracts/domain"
)

// Covid comparison windows. The cutoff is March 2020; the trend window
// covers the first half of 2020.
var (
	PreCovidStart   = time.Date(2019, time.May, 1, 0, 0, 0, 0, time.UTC)
	PreCovidEnd     = time.Date(2020, time.February, 29, 0, 0, 0, 0, time.UTC)
	PostCovidStart  = time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	PostCovidEnd    = time.Date(2020, time.June, 30, 0, 0, 0, 0, time.UTC)
	CovidTrendStart = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	CovidTrendEnd   = PostCovidEnd
)

// OverallImpact compares nationwide mean unemployment before and after
// the Covid cutoff and names the single most affected region, the one
// with the maximum signed change. Ties go to the alphabetically first
// region.
func OverallImpact(observations []domain.Observation) domain.ImpactSummary {
	pre := ratesInWindow(observations, PreCovidStart, PreCovidEnd)
	post := ratesInWindow(observations, PostCovidStart, PostCovidEnd)

	preMean := meanOrZero(pre)
	postMean := meanOrZero(post)
	pctChange := percentChange(preMean, postMean)

	summary := domain.ImpactSummary{
		PreMean:              preMean,
		PostMean:             postMean,
		PercentChange:        pctChange,
		PreMeanDisplay:       domain.FormatRate(preMean),
		PostMeanDisplay:      domain.FormatRate(postMean),
		PercentChangeDisplay: domain.FormatRate(pctChange),
	}

	if regions := RegionImpacts(observations); len(regions) > 0 {
		summary.MostAffected = mostAffected(regions)
	}

	return summary
}

// RegionImpacts computes the per-region before/after comparison,
// alphabetically ordered. Regions with no observations in either
// window are omitted: their comparison is undefined.
func RegionImpacts(observations []domain.Observation) []domain.ImpactRecord {
	return impactsByLabel(observations, func(obs domain.Observation) string { return obs.Region })
}

// AreaImpacts computes the before/after comparison per area.
func AreaImpacts(observations []domain.Observation) []domain.ImpactRecord {
	return impactsByLabel(observations, func(obs domain.Observation) string { return string(obs.Area) })
}

// CovidMonthly is the monthly mean unemployment trend across the first
// half of 2020.
func CovidMonthly(observations []domain.Observation) []domain.DateMean {
	window := Filter(observations, Selection{From: CovidTrendStart, To: CovidTrendEnd})
	return GroupMeanByDate(window)
}

// TopRegions returns the n regions with the largest change, descending
// by signed change so the steepest rises rank first, ties broken
// alphabetically. n <= 0 or n beyond the record count returns
// everything.
func TopRegions(records []domain.ImpactRecord, n int) []domain.ImpactRecord {
	out := make([]domain.ImpactRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool {
		if out[i].AbsoluteChange != out[j].AbsoluteChange {
			return out[i].AbsoluteChange > out[j].AbsoluteChange
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func impactsByLabel(observations []domain.Observation, labelOf func(domain.Observation) string) []domain.ImpactRecord {
	pre := make(map[string][]float64)
	post := make(map[string][]float64)

	for _, obs := range observations {
		label := labelOf(obs)
		switch {
		case inWindow(obs.Date, PreCovidStart, PreCovidEnd):
			pre[label] = append(pre[label], obs.UnemploymentRate)
		case inWindow(obs.Date, PostCovidStart, PostCovidEnd):
			post[label] = append(post[label], obs.UnemploymentRate)
		}
	}

	out := make([]domain.ImpactRecord, 0, len(pre))
	for label, preRates := range pre {
		postRates, ok := post[label]
		if !ok {
			continue
		}
		preMean := stat.Mean(preRates, nil)
		postMean := stat.Mean(postRates, nil)
		out = append(out, domain.ImpactRecord{
			Label:          label,
			PreMean:        preMean,
			PostMean:       postMean,
			AbsoluteChange: postMean - preMean,
			PercentChange:  percentChange(preMean, postMean),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// mostAffected picks the record with the maximum signed change, so a
// region whose rate fell never outranks one whose rate rose. Records
// arrive alphabetically sorted, so a strict comparison keeps the
// alphabetically first label on ties.
func mostAffected(records []domain.ImpactRecord) domain.ImpactRecord {
	best := records[0]
	for _, rec := range records[1:] {
		if rec.AbsoluteChange > best.AbsoluteChange {
			best = rec
		}
	}
	return best
}

// percentChange is (post-pre)/pre*100, defined as 0 when the pre-window
// mean is not positive.
func percentChange(preMean, postMean float64) float64 {
	if preMean <= 0 {
		return 0
	}
	return (postMean - preMean) / preMean * 100
}

func ratesInWindow(observations []domain.Observation, from, to time.Time) []float64 {
	var rates []float64
	for _, obs := range observations {
		if inWindow(obs.Date, from, to) {
			rates = append(rates, obs.UnemploymentRate)
		}
	}
	return rates
}

func inWindow(date, from, to time.Time) bool {
	return !date.Before(from) && !date.After(to)
}

func meanOrZero(rates []float64) float64 {
	if len(rates) == 0 {
		return 0
	}
	return stat.Mean(rates, nil)
}
