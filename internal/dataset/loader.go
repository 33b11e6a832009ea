// Package dataset loads and caches the unemployment observations CSV.
//
// The loader is strict: apart from fully blank rows, which are skipped,
// any cell that cannot be parsed fails the whole load with a LoadError
// naming the row and column. A half-loaded dataset would silently skew
// every mean computed from it.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"labourpulse/pkg/contracts/domain"
)

// Canonical column headers of the source file. Header cells are matched
// after trimming, first exactly, then case-insensitively.
const (
	colRegion            = "Region"
	colDate              = "Date"
	colFrequency         = "Frequency"
	colUnemploymentRate  = "Estimated Unemployment Rate (%)"
	colEmployed          = "Estimated Employed"
	colParticipationRate = "Estimated Labour Participation Rate (%)"
	colArea              = "Area"
)

// Dates come day-first, with either separator.
var dateLayouts = []string{"02-01-2006", "02/01/2006"}

// LoadError reports the exact cell that failed to parse.
type LoadError struct {
	Path   string
	Row    int // 1-based, header is row 1
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("load %s: row %d, column %q: %v", e.Path, e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("load %s: row %d: %v", e.Path, e.Row, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	dataset *domain.Dataset
}

// Loader reads the observations CSV and caches the parsed dataset,
// keyed by the file's modification time and size. Safe for concurrent
// use.
type Loader struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	cached *cacheEntry
}

// NewLoader creates a loader for the given CSV file.
func NewLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{
		path:   path,
		logger: logger.With(slog.String("component", "dataset_loader")),
	}
}

// Path returns the source file path.
func (l *Loader) Path() string {
	return l.path
}

// Load returns the parsed dataset, reloading the file only when its
// modification time or size changed since the last load. The second
// return value reports whether the cached copy was served.
func (l *Loader) Load(ctx context.Context) (*domain.Dataset, bool, error) {
	info, err := os.Stat(l.path)
	if err != nil {
		return nil, false, fmt.Errorf("stat dataset file: %w", err)
	}

	l.mu.RLock()
	if c := l.cached; c != nil && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		l.mu.RUnlock()
		return c.dataset, true, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Another goroutine may have refreshed the cache while we waited.
	if c := l.cached; c != nil && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.dataset, true, nil
	}

	start := time.Now()
	ds, err := l.parse(ctx)
	if err != nil {
		return nil, false, err
	}

	l.cached = &cacheEntry{
		modTime: info.ModTime(),
		size:    info.Size(),
		dataset: ds,
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.String("path", l.path),
		slog.Int("records", ds.Info.Records),
		slog.Int("regions", len(ds.Info.Regions)),
		slog.Duration("duration", time.Since(start)),
	)

	return ds, false, nil
}

// Invalidate drops the cached dataset so the next Load re-reads the file.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

func (l *Loader) parse(ctx context.Context) (*domain.Dataset, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &LoadError{Path: l.path, Row: 1, Err: fmt.Errorf("read header: %w", err)}
	}

	cols, err := findColumnIndices(header)
	if err != nil {
		return nil, &LoadError{Path: l.path, Row: 1, Err: err}
	}

	var observations []domain.Observation
	row := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &LoadError{Path: l.path, Row: row + 1, Err: err}
		}
		row++

		if isBlankRow(record) {
			continue
		}

		obs, colName, err := parseRecord(record, cols)
		if err != nil {
			return nil, &LoadError{Path: l.path, Row: row, Column: colName, Err: err}
		}
		observations = append(observations, obs)
	}

	if len(observations) == 0 {
		return nil, &LoadError{Path: l.path, Row: 1, Err: fmt.Errorf("no data rows")}
	}

	return &domain.Dataset{
		Observations: observations,
		Info:         summarize(observations),
	}, nil
}

// columnIndices maps the needed columns to their positions in the header.
type columnIndices struct {
	region        int
	date          int
	rate          int
	employed      int
	participation int
	area          int
}

// findColumnIndices resolves column positions, tolerating padded headers
// and a UTF-8 BOM on the first cell. Exact names win over
// case-insensitive matches.
func findColumnIndices(header []string) (columnIndices, error) {
	cols := columnIndices{region: -1, date: -1, rate: -1, employed: -1, participation: -1, area: -1}

	for i, raw := range header {
		name := strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))
		switch name {
		case colRegion:
			cols.region = i
		case colDate:
			cols.date = i
		case colUnemploymentRate:
			cols.rate = i
		case colEmployed:
			cols.employed = i
		case colParticipationRate:
			cols.participation = i
		case colArea:
			cols.area = i
		}
	}

	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		switch name {
		case strings.ToLower(colRegion):
			if cols.region == -1 {
				cols.region = i
			}
		case strings.ToLower(colDate):
			if cols.date == -1 {
				cols.date = i
			}
		case strings.ToLower(colUnemploymentRate):
			if cols.rate == -1 {
				cols.rate = i
			}
		case strings.ToLower(colEmployed):
			if cols.employed == -1 {
				cols.employed = i
			}
		case strings.ToLower(colParticipationRate):
			if cols.participation == -1 {
				cols.participation = i
			}
		case strings.ToLower(colArea):
			if cols.area == -1 {
				cols.area = i
			}
		}
	}

	missing := []string{}
	for _, c := range []struct {
		idx  int
		name string
	}{
		{cols.region, colRegion},
		{cols.date, colDate},
		{cols.rate, colUnemploymentRate},
		{cols.employed, colEmployed},
		{cols.participation, colParticipationRate},
		{cols.area, colArea},
	} {
		if c.idx == -1 {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	return cols, nil
}

func isBlankRow(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func parseRecord(record []string, cols columnIndices) (domain.Observation, string, error) {
	var obs domain.Observation

	field := func(idx int) string {
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	region := field(cols.region)
	if region == "" {
		return obs, colRegion, fmt.Errorf("empty region")
	}

	date, err := parseDate(field(cols.date))
	if err != nil {
		return obs, colDate, err
	}

	rate, err := strconv.ParseFloat(field(cols.rate), 64)
	if err != nil {
		return obs, colUnemploymentRate, err
	}

	employed, err := strconv.ParseFloat(field(cols.employed), 64)
	if err != nil {
		return obs, colEmployed, err
	}

	participation, err := strconv.ParseFloat(field(cols.participation), 64)
	if err != nil {
		return obs, colParticipationRate, err
	}

	area, err := domain.ParseArea(field(cols.area))
	if err != nil {
		return obs, colArea, err
	}

	obs = domain.Observation{
		Region:            region,
		Area:              area,
		Date:              date,
		Year:              date.Year(),
		Month:             int(date.Month()),
		MonthName:         date.Format("Jan"),
		UnemploymentRate:  rate,
		EmployedCount:     employed,
		ParticipationRate: participation,
	}
	return obs, "", nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want DD-MM-YYYY or DD/MM/YYYY", value)
}

func summarize(observations []domain.Observation) domain.DatasetInfo {
	info := domain.DatasetInfo{
		Records:  len(observations),
		LoadedAt: time.Now().UTC(),
	}

	regionSet := make(map[string]struct{})
	areaSet := make(map[domain.Area]struct{})

	for i, obs := range observations {
		if i == 0 || obs.Date.Before(info.From) {
			info.From = obs.Date
		}
		if i == 0 || obs.Date.After(info.To) {
			info.To = obs.Date
		}
		regionSet[obs.Region] = struct{}{}
		areaSet[obs.Area] = struct{}{}
	}

	info.Regions = sortedRegions(regionSet)

	for _, area := range []domain.Area{domain.AreaRural, domain.AreaUrban, domain.AreaBoth} {
		if _, ok := areaSet[area]; ok {
			info.Areas = append(info.Areas, area)
		}
	}

	return info
}

func sortedRegions(set map[string]struct{}) []string {
	regions := make([]string, 0, len(set))
	for region := range set {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions
}
