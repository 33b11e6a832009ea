// Package analytics computes the aggregates, correlations, and Covid
// impact figures served by the dashboard. All functions are pure: they
// take observation slices and return freshly allocated results in a
// deterministic order.
package analytics

import (
	"time"

	"labourpulse/pkg/contracts/domain"
)

// Selection narrows a dataset to regions, a date window, and an area.
// A nil or empty Regions slice means all regions. Zero From/To leave
// that side of the window open. Area Both matches every observation.
type Selection struct {
	Regions []string
	From    time.Time
	To      time.Time
	Area    domain.Area
}

// Matches reports whether a single observation passes the selection.
func (s Selection) Matches(obs domain.Observation) bool {
	if len(s.Regions) > 0 && !containsRegion(s.Regions, obs.Region) {
		return false
	}
	if !s.From.IsZero() && obs.Date.Before(s.From) {
		return false
	}
	if !s.To.IsZero() && obs.Date.After(s.To) {
		return false
	}
	if s.Area != "" && s.Area != domain.AreaBoth && obs.Area != s.Area {
		return false
	}
	return true
}

// Filter returns the observations matching the selection, preserving
// input order. An inverted date window (To before From) matches nothing.
func Filter(observations []domain.Observation, sel Selection) []domain.Observation {
	out := make([]domain.Observation, 0, len(observations))
	for _, obs := range observations {
		if sel.Matches(obs) {
			out = append(out, obs)
		}
	}
	return out
}

func containsRegion(regions []string, region string) bool {
	for _, r := range regions {
		if r == region {
			return true
		}
	}
	return false
}
