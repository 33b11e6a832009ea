package domain

import (
	"fmt"
	"time"
)

// Area classifies an observation as rural, urban, or the combined series.
type Area string

const (
	AreaRural Area = "Rural"
	AreaUrban Area = "Urban"
	AreaBoth  Area = "Both"
)

// ParseArea normalizes a raw area value. The combined series accepts
// "Both" as well as an empty string.
func ParseArea(s string) (Area, error) {
	switch s {
	case string(AreaRural):
		return AreaRural, nil
	case string(AreaUrban):
		return AreaUrban, nil
	case string(AreaBoth), "":
		return AreaBoth, nil
	default:
		return "", fmt.Errorf("unknown area %q", s)
	}
}

// Observation is a single monthly unemployment record for one region
// and area. Year, Month, and MonthName are derived from Date at load
// time so downstream grouping never re-parses the date.
type Observation struct {
	Region            string    `json:"region"`
	Area              Area      `json:"area"`
	Date              time.Time `json:"date"`
	Year              int       `json:"year"`
	Month             int       `json:"month"`
	MonthName         string    `json:"month_name"`
	UnemploymentRate  float64   `json:"unemployment_rate"`
	EmployedCount     float64   `json:"employed_count"`
	ParticipationRate float64   `json:"labour_participation_rate"`
}

// Dataset is an immutable, fully parsed data file plus its summary.
type Dataset struct {
	Observations []Observation `json:"observations"`
	Info         DatasetInfo   `json:"info"`
}

// DatasetInfo summarizes a loaded dataset for the dashboard header.
type DatasetInfo struct {
	Records  int       `json:"records"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Regions  []string  `json:"regions"`
	Areas    []Area    `json:"areas"`
	LoadedAt time.Time `json:"loaded_at"`
}

// FormatRate renders a percentage value the way the dashboard headline
// metrics display it.
func FormatRate(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}
