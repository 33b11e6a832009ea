package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	apierrors "labourpulse/internal/errors"
	"labourpulse/pkg/contracts/domain"
)

// Sheet names of the generated workbook.
const (
	sheetOverview     = "Overview"
	sheetTrend        = "Trend"
	sheetRegions      = "Regions"
	sheetImpact       = "Impact"
	sheetCorrelations = "Correlations"
)

// WorkbookData carries everything the Excel report renders.
type WorkbookData struct {
	Info          domain.DatasetInfo
	Trend         []domain.DateMean
	RegionMeans   []domain.RegionMean
	Summary       domain.ImpactSummary
	RegionImpacts []domain.ImpactRecord
	AreaImpacts   []domain.ImpactRecord
	Correlations  []domain.RegionCorrelation
}

// ExcelWriter builds the multi-sheet analysis workbook.
type ExcelWriter struct {
	reportsDir string
	logger     *slog.Logger
}

// NewExcelWriter creates a new Excel writer instance
func NewExcelWriter(reportsDir string, logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{reportsDir: reportsDir, logger: logger}
}

// BuildWorkbook assembles the analysis workbook in memory. Callers own
// the returned file and must Close it.
func (w *ExcelWriter) BuildWorkbook(data WorkbookData) (*excelize.File, error) {
	f := excelize.NewFile()

	f.SetSheetName("Sheet1", sheetOverview)
	if err := w.writeOverview(f, data); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write overview sheet: %w", err)
	}
	if err := w.writeTrend(f, data.Trend); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write trend sheet: %w", err)
	}
	if err := w.writeRegions(f, data.RegionMeans); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write regions sheet: %w", err)
	}
	if err := w.writeImpact(f, data); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write impact sheet: %w", err)
	}
	if err := w.writeCorrelations(f, data.Correlations); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write correlations sheet: %w", err)
	}

	return f, nil
}

// WriteWorkbook writes the analysis workbook to filePath. Relative
// paths land under the reports directory.
func (w *ExcelWriter) WriteWorkbook(filePath string, data WorkbookData) error {
	fullPath := filePath
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(w.reportsDir, filePath)
	}

	w.logger.Info("writing Excel workbook",
		slog.String("full_path", fullPath),
		slog.Int("records", data.Info.Records))

	f, err := w.BuildWorkbook(data)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(fullPath); err != nil {
		return apierrors.NewExportError("failed to save workbook", err).WithContext("path", fullPath)
	}
	return nil
}

func (w *ExcelWriter) writeOverview(f *excelize.File, data WorkbookData) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Records", data.Info.Records},
		{"From", data.Info.From.Format("2006-01-02")},
		{"To", data.Info.To.Format("2006-01-02")},
		{"Regions", len(data.Info.Regions)},
		{"Pre-Covid Mean", data.Summary.PreMeanDisplay},
		{"Post-Covid Mean", data.Summary.PostMeanDisplay},
		{"Change", data.Summary.PercentChangeDisplay},
		{"Most Affected Region", data.Summary.MostAffected.Label},
		{"Generated At", time.Now().UTC().Format(time.RFC3339)},
	}
	return writeRows(f, sheetOverview, rows)
}

func (w *ExcelWriter) writeTrend(f *excelize.File, trend []domain.DateMean) error {
	if _, err := f.NewSheet(sheetTrend); err != nil {
		return err
	}
	rows := [][]interface{}{{"Date", "Mean Unemployment Rate (%)", "Observations"}}
	for _, row := range trend {
		rows = append(rows, []interface{}{row.Date.Format("2006-01-02"), row.MeanRate, row.Count})
	}
	return writeRows(f, sheetTrend, rows)
}

func (w *ExcelWriter) writeRegions(f *excelize.File, means []domain.RegionMean) error {
	if _, err := f.NewSheet(sheetRegions); err != nil {
		return err
	}
	rows := [][]interface{}{{"Region", "Mean Unemployment Rate (%)", "Observations"}}
	for _, row := range means {
		rows = append(rows, []interface{}{row.Region, row.MeanRate, row.Count})
	}
	return writeRows(f, sheetRegions, rows)
}

func (w *ExcelWriter) writeImpact(f *excelize.File, data WorkbookData) error {
	if _, err := f.NewSheet(sheetImpact); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Scope", "Label", "Pre-Covid Mean (%)", "Post-Covid Mean (%)", "Change (points)", "Change (%)"},
	}
	for _, r := range data.RegionImpacts {
		rows = append(rows, []interface{}{"Region", r.Label, r.PreMean, r.PostMean, r.AbsoluteChange, r.PercentChange})
	}
	for _, r := range data.AreaImpacts {
		rows = append(rows, []interface{}{"Area", r.Label, r.PreMean, r.PostMean, r.AbsoluteChange, r.PercentChange})
	}
	return writeRows(f, sheetImpact, rows)
}

func (w *ExcelWriter) writeCorrelations(f *excelize.File, correlations []domain.RegionCorrelation) error {
	if _, err := f.NewSheet(sheetCorrelations); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Region", "Rate vs Employment", "Rate vs Participation", "Samples"},
	}
	for _, c := range correlations {
		rows = append(rows, []interface{}{
			c.Region,
			corrCell(c.WithEmployment),
			corrCell(c.WithParticipation),
			c.Samples,
		})
	}
	return writeRows(f, sheetCorrelations, rows)
}

// corrCell renders undefined correlations as "n/a" instead of NaN,
// which excelize cannot store.
func corrCell(c domain.Corr) interface{} {
	if !c.IsDefined() {
		return "n/a"
	}
	return float64(c)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
