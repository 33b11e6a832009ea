// Package exporter generates downloadable artifacts from analysis results.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility. StreamObservations
// writes the same format straight to an io.Writer so the HTTP download
// handler can stream into the response body.
//
// ExcelWriter: Builds the multi-sheet analysis workbook (overview,
// trend, regional means, Covid impact, correlations) with excelize.
//
// Chart renderers: RenderTrendChart, RenderRegionalMeansChart, and
// RenderImpactChart produce PNG charts with go-chart.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(cfg.Data.ReportsDir, logger)
//	err := writer.WriteObservations("observations.csv", observations)
//
//	xlsx := exporter.NewExcelWriter(cfg.Data.ReportsDir, logger)
//	err = xlsx.WriteWorkbook("analysis.xlsx", workbookData)
package exporter
