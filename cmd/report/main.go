package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"labourpulse/internal/analytics"
	"labourpulse/internal/config"
	"labourpulse/internal/dataset"
	"labourpulse/internal/exporter"
	"labourpulse/internal/services"
)

func main() {
	sourceFile := flag.String("source", "", "path to the unemployment CSV (defaults to the configured source file)")
	outputDir := flag.String("out", "", "output directory for report artifacts (defaults to the configured reports directory)")
	topRegions := flag.Int("top", 0, "limit the region impact table to the N largest changes (0 keeps all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if *sourceFile == "" {
		*sourceFile = cfg.Data.SourceFile
	}
	if *outputDir == "" {
		*outputDir = cfg.Data.ReportsDir
	}

	if _, err := os.Stat(*sourceFile); os.IsNotExist(err) {
		slog.Error("Source CSV not found",
			"path", *sourceFile,
			"hint", "point -source at the unemployment dataset")
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		slog.Error("Failed to create output directory", "path", *outputDir, "error", err)
		os.Exit(1)
	}

	logger := slog.Default()
	ctx := context.Background()

	loader := dataset.NewLoader(*sourceFile, logger)
	service := services.NewDashboardService(loader, cfg.Data.SampleRows, logger, nil)

	start := time.Now()
	slog.Info("Loading dataset", "path", *sourceFile)

	info, err := service.Info(ctx)
	if err != nil {
		slog.Error("Failed to load dataset", "error", err)
		os.Exit(1)
	}

	slog.Info("Dataset loaded",
		"records", info.Records,
		"regions", len(info.Regions),
		"from", info.From.Format("2006-01-02"),
		"to", info.To.Format("2006-01-02"))

	data, err := collectReportData(ctx, service, *topRegions)
	if err != nil {
		slog.Error("Failed to compute report data", "error", err)
		os.Exit(1)
	}

	if err := writeArtifacts(ctx, service, data, *outputDir, logger); err != nil {
		slog.Error("Failed to write report artifacts", "error", err)
		os.Exit(1)
	}

	slog.Info("Report complete",
		"output_dir", *outputDir,
		"duration", time.Since(start).String())
}

// collectReportData runs the full-dataset aggregations the artifacts
// are rendered from.
func collectReportData(ctx context.Context, service *services.DashboardService, top int) (exporter.WorkbookData, error) {
	var data exporter.WorkbookData
	all := analytics.Selection{}

	info, err := service.Info(ctx)
	if err != nil {
		return data, fmt.Errorf("dataset info: %w", err)
	}
	data.Info = *info

	if data.Trend, err = service.OverallTrend(ctx, all); err != nil {
		return data, fmt.Errorf("overall trend: %w", err)
	}
	if data.RegionMeans, err = service.RegionalMeans(ctx, all); err != nil {
		return data, fmt.Errorf("regional means: %w", err)
	}
	if data.Correlations, err = service.Correlations(ctx, all); err != nil {
		return data, fmt.Errorf("correlations: %w", err)
	}

	summary, err := service.ImpactSummary(ctx)
	if err != nil {
		return data, fmt.Errorf("impact summary: %w", err)
	}
	data.Summary = *summary

	if data.RegionImpacts, err = service.RegionImpacts(ctx, top); err != nil {
		return data, fmt.Errorf("region impacts: %w", err)
	}
	if data.AreaImpacts, err = service.AreaImpacts(ctx); err != nil {
		return data, fmt.Errorf("area impacts: %w", err)
	}

	return data, nil
}

// writeArtifacts renders the CSV, Excel and PNG outputs concurrently.
func writeArtifacts(ctx context.Context, service *services.DashboardService, data exporter.WorkbookData, outputDir string, logger *slog.Logger) error {
	csvWriter := exporter.NewCSVWriter(outputDir, logger)
	excelWriter := exporter.NewExcelWriter(outputDir, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		observations, err := service.Observations(ctx, analytics.Selection{})
		if err != nil {
			return fmt.Errorf("observations: %w", err)
		}
		return csvWriter.WriteObservations("observations.csv", observations)
	})

	g.Go(func() error {
		return csvWriter.WriteImpactRecords("region_impacts.csv", "Region", data.RegionImpacts)
	})

	g.Go(func() error {
		return csvWriter.WriteImpactRecords("area_impacts.csv", "Area", data.AreaImpacts)
	})

	g.Go(func() error {
		return excelWriter.WriteWorkbook("dashboard.xlsx", data)
	})

	g.Go(func() error {
		return writePNG(filepath.Join(outputDir, "trend.png"), func(out io.Writer) error {
			return exporter.RenderTrendChart(out, "Mean Unemployment Rate", data.Trend)
		})
	})

	g.Go(func() error {
		return writePNG(filepath.Join(outputDir, "regional_means.png"), func(out io.Writer) error {
			return exporter.RenderRegionalMeansChart(out, data.RegionMeans)
		})
	})

	g.Go(func() error {
		return writePNG(filepath.Join(outputDir, "region_impacts.png"), func(out io.Writer) error {
			return exporter.RenderImpactChart(out, "Covid Impact by Region", data.RegionImpacts)
		})
	})

	return g.Wait()
}

// writePNG renders a chart into filePath, dropping partial output on
// render failure.
func writePNG(filePath string, render func(io.Writer) error) error {
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filePath, err)
	}

	if err := render(f); err != nil {
		f.Close()
		os.Remove(filePath)
		return fmt.Errorf("failed to render %s: %w", filepath.Base(filePath), err)
	}

	return f.Close()
}
