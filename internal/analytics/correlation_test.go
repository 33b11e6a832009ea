package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labourpulse/pkg/contracts/domain"
)

func TestCorrelationsPerfectLinear(t *testing.T) {
	// Employment falls exactly as unemployment rises: correlation -1.
	// Participation rises with unemployment: correlation +1.
	data := []domain.Observation{
		obs("Kerala", domain.AreaRural, day(2019, time.May, 31), 5.0, 1000, 40),
		obs("Kerala", domain.AreaRural, day(2019, time.June, 30), 10.0, 900, 41),
		obs("Kerala", domain.AreaRural, day(2019, time.July, 31), 15.0, 800, 42),
	}

	result := Correlations(data)
	require.Len(t, result, 1)

	rc := result[0]
	assert.Equal(t, "Kerala", rc.Region)
	assert.Equal(t, 3, rc.Samples)
	assert.InDelta(t, -1.0, float64(rc.WithEmployment), 1e-9)
	assert.InDelta(t, 1.0, float64(rc.WithParticipation), 1e-9)
}

func TestCorrelationsUndefined(t *testing.T) {
	t.Run("single sample", func(t *testing.T) {
		data := []domain.Observation{
			obs("Sikkim", domain.AreaRural, day(2019, time.May, 31), 5.0, 1000, 40),
		}
		result := Correlations(data)
		require.Len(t, result, 1)
		assert.False(t, result[0].WithEmployment.IsDefined())
		assert.False(t, result[0].WithParticipation.IsDefined())
	})

	t.Run("constant series", func(t *testing.T) {
		data := []domain.Observation{
			obs("Sikkim", domain.AreaRural, day(2019, time.May, 31), 5.0, 1000, 40),
			obs("Sikkim", domain.AreaRural, day(2019, time.June, 30), 5.0, 900, 41),
		}
		result := Correlations(data)
		require.Len(t, result, 1)
		assert.False(t, result[0].WithEmployment.IsDefined())
	})
}

func TestCorrelationsSortedByRegion(t *testing.T) {
	data := append(fixture(),
		obs("Assam", domain.AreaRural, day(2019, time.May, 31), 6.0, 500, 44),
	)

	result := Correlations(data)
	require.Len(t, result, 3)
	assert.Equal(t, "Assam", result[0].Region)
	assert.Equal(t, "Goa", result[1].Region)
	assert.Equal(t, "Kerala", result[2].Region)
}

func TestCorrelationsScaleInvariant(t *testing.T) {
	// Pearson correlation is invariant under positive affine scaling.
	base := []domain.Observation{
		obs("Kerala", domain.AreaRural, day(2019, time.May, 31), 5.0, 1000, 40),
		obs("Kerala", domain.AreaRural, day(2019, time.June, 30), 8.0, 870, 41),
		obs("Kerala", domain.AreaRural, day(2019, time.July, 31), 6.5, 940, 39),
	}
	scaled := make([]domain.Observation, len(base))
	for i, o := range base {
		o.EmployedCount = o.EmployedCount*3 + 100
		scaled[i] = o
	}

	r1 := Correlations(base)
	r2 := Correlations(scaled)
	assert.InDelta(t, float64(r1[0].WithEmployment), float64(r2[0].WithEmployment), 1e-9)
}

func TestCorrelationsSymmetric(t *testing.T) {
	// Pearson correlation does not depend on which series comes first.
	rate := []float64{5.0, 8.0, 6.5, 9.2, 7.1}
	employed := []float64{1000, 870, 940, 810, 905}

	assert.InDelta(t, float64(pearson(rate, employed)), float64(pearson(employed, rate)), 1e-12)
}

func TestCorrelationsEmpty(t *testing.T) {
	assert.Empty(t, Correlations(nil))
}
