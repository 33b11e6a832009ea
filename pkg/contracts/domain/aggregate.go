package domain

import (
	"encoding/json"
	"math"
	"time"
)

// DateMean is the mean unemployment rate across all rows sharing a date.
type DateMean struct {
	Date     time.Time `json:"date"`
	MeanRate float64   `json:"mean_rate"`
	Count    int       `json:"count"`
}

// DateAreaMean is the mean rate for one (date, area) group.
type DateAreaMean struct {
	Date     time.Time `json:"date"`
	Area     Area      `json:"area"`
	MeanRate float64   `json:"mean_rate"`
	Count    int       `json:"count"`
}

// DateRegionMean is the mean rate for one (date, region) group.
type DateRegionMean struct {
	Date     time.Time `json:"date"`
	Region   string    `json:"region"`
	MeanRate float64   `json:"mean_rate"`
	Count    int       `json:"count"`
}

// RegionMean is the mean rate for one region over the selected window.
type RegionMean struct {
	Region   string  `json:"region"`
	MeanRate float64 `json:"mean_rate"`
	Count    int     `json:"count"`
}

// RegionAreaMean is the mean rate for one (region, area) group.
type RegionAreaMean struct {
	Region   string  `json:"region"`
	Area     Area    `json:"area"`
	MeanRate float64 `json:"mean_rate"`
	Count    int     `json:"count"`
}

// Corr is a Pearson correlation coefficient. It marshals NaN, the
// undefined-correlation sentinel, as JSON null instead of breaking the
// encoder.
type Corr float64

// IsDefined reports whether the coefficient could be computed.
func (c Corr) IsDefined() bool {
	return !math.IsNaN(float64(c))
}

func (c Corr) MarshalJSON() ([]byte, error) {
	if !c.IsDefined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(c))
}

func (c *Corr) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Corr(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Corr(v)
	return nil
}

// RegionCorrelation holds per-region Pearson correlations of the
// unemployment rate against the other two measures.
type RegionCorrelation struct {
	Region            string `json:"region"`
	WithEmployment    Corr   `json:"with_employment"`
	WithParticipation Corr   `json:"with_participation"`
	Samples           int    `json:"samples"`
}

// HistogramBin is one bucket of the rate distribution histogram.
// High is exclusive except for the last bin, which includes the maximum.
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// BoxStats are five-number summary statistics for one area's rates.
type BoxStats struct {
	Area   Area    `json:"area"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// Distribution bundles the histogram and per-area box statistics for
// the selected observations.
type Distribution struct {
	Bins  []HistogramBin `json:"bins"`
	Boxes []BoxStats     `json:"boxes"`
}
