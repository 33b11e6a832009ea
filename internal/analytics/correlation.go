package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"labourpulse/pkg/contracts/domain"
)

// Correlations computes, per region, the Pearson correlation of the
// unemployment rate against employed count and against participation
// rate. Regions are sorted alphabetically. With fewer than two samples,
// or a constant series, the coefficient is undefined and reported as
// NaN (rendered as null in JSON).
func Correlations(observations []domain.Observation) []domain.RegionCorrelation {
	type series struct {
		rate          []float64
		employed      []float64
		participation []float64
	}

	groups := make(map[string]*series)
	for _, obs := range observations {
		s := groups[obs.Region]
		if s == nil {
			s = &series{}
			groups[obs.Region] = s
		}
		s.rate = append(s.rate, obs.UnemploymentRate)
		s.employed = append(s.employed, obs.EmployedCount)
		s.participation = append(s.participation, obs.ParticipationRate)
	}

	out := make([]domain.RegionCorrelation, 0, len(groups))
	for region, s := range groups {
		out = append(out, domain.RegionCorrelation{
			Region:            region,
			WithEmployment:    pearson(s.rate, s.employed),
			WithParticipation: pearson(s.rate, s.participation),
			Samples:           len(s.rate),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

func pearson(x, y []float64) domain.Corr {
	if len(x) < 2 {
		return domain.Corr(math.NaN())
	}
	return domain.Corr(stat.Correlation(x, y, nil))
}
