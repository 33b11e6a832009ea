package domain

// ImpactRecord compares mean unemployment before and after the Covid
// cutoff for one label (a region or an area).
type ImpactRecord struct {
	Label          string  `json:"label"`
	PreMean        float64 `json:"pre_mean"`
	PostMean       float64 `json:"post_mean"`
	AbsoluteChange float64 `json:"absolute_change"`
	PercentChange  float64 `json:"percent_change"`
}

// ImpactSummary is the nationwide before/after comparison plus the
// single most affected region. Display fields carry the values already
// formatted for headline metrics.
type ImpactSummary struct {
	PreMean              float64      `json:"pre_mean"`
	PostMean             float64      `json:"post_mean"`
	PercentChange        float64      `json:"percent_change"`
	PreMeanDisplay       string       `json:"pre_mean_display"`
	PostMeanDisplay      string       `json:"post_mean_display"`
	PercentChangeDisplay string       `json:"percent_change_display"`
	MostAffected         ImpactRecord `json:"most_affected"`
}
