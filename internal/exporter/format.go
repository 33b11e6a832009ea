package exporter

import (
	"fmt"
	"time"

	"labourpulse/pkg/contracts/domain"
)

// ObservationHeaders is the column order for observation exports.
var ObservationHeaders = []string{
	"Region", "Date", "Area",
	"Unemployment Rate (%)", "Employed", "Participation Rate (%)",
}

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	// Values like 13.4 must appear as 13.40 for consistency
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

// formatDate formats a date for CSV output
func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// ObservationRecord converts an observation to a CSV record matching
// ObservationHeaders.
func ObservationRecord(o domain.Observation) []string {
	return []string{
		o.Region,
		formatDate(o.Date),
		string(o.Area),
		formatFloat(o.UnemploymentRate),
		formatInt(int64(o.EmployedCount)),
		formatFloat(o.ParticipationRate),
	}
}
