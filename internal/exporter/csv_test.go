package exporter

import (
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labourpulse/pkg/contracts/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleObservations() []domain.Observation {
	return []domain.Observation{
		{
			Region:            "Alpha",
			Area:              domain.AreaRural,
			Date:              time.Date(2019, 5, 31, 0, 0, 0, 0, time.UTC),
			UnemploymentRate:  4,
			EmployedCount:     1000,
			ParticipationRate: 40,
		},
		{
			Region:            "Beta",
			Area:              domain.AreaUrban,
			Date:              time.Date(2020, 4, 30, 0, 0, 0, 0, time.UTC),
			UnemploymentRate:  10.5,
			EmployedCount:     1800,
			ParticipationRate: 43,
		},
	}
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimPrefix(string(raw), "\xEF\xBB\xBF")
	records, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteObservations(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, testLogger())

	require.NoError(t, writer.WriteObservations("observations.csv", sampleObservations()))

	path := filepath.Join(dir, "observations.csv")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, utf8BOM), "file should start with UTF-8 BOM")

	records := readCSVFile(t, path)
	require.Len(t, records, 3)
	assert.Equal(t, ObservationHeaders, records[0])
	assert.Equal(t, []string{"Alpha", "2019-05-31", "Rural", "4.00", "1000", "40.00"}, records[1])
	assert.Equal(t, []string{"Beta", "2020-04-30", "Urban", "10.50", "1800", "43.00"}, records[2])
}

func TestWriteCSVNestedPath(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, testLogger())

	err := writer.WriteCSV(filepath.Join("monthly", "report.csv"), WriteOptions{
		Headers: []string{"a", "b"},
		Records: [][]string{{"1", "2"}},
	})
	require.NoError(t, err)

	records := readCSVFile(t, filepath.Join(dir, "monthly", "report.csv"))
	require.Len(t, records, 2)
	assert.Equal(t, []string{"1", "2"}, records[1])
}

func TestWriteCSVAppend(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, testLogger())

	require.NoError(t, writer.WriteCSV("log.csv", WriteOptions{
		Headers: []string{"region", "rate"},
		Records: [][]string{{"Alpha", "4.00"}},
	}))
	require.NoError(t, writer.WriteCSV("log.csv", WriteOptions{
		Records: [][]string{{"Beta", "8.00"}},
		Append:  true,
	}))

	records := readCSVFile(t, filepath.Join(dir, "log.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Beta", "8.00"}, records[2])
}

func TestWriteImpactRecords(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, testLogger())

	records := []domain.ImpactRecord{
		{Label: "Alpha", PreMean: 5, PostMean: 20, AbsoluteChange: 15, PercentChange: 300},
	}
	require.NoError(t, writer.WriteImpactRecords("impact.csv", "Region", records))

	rows := readCSVFile(t, filepath.Join(dir, "impact.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "Region", rows[0][0])
	assert.Equal(t, []string{"Alpha", "5.00", "20.00", "15.00", "300.00"}, rows[1])
}

func TestStreamObservations(t *testing.T) {
	t.Run("with BOM", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, StreamObservations(&buf, sampleObservations(), true))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	})

	t.Run("without BOM", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, StreamObservations(&buf, sampleObservations(), false))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, ObservationHeaders, records[0])
	})

	t.Run("empty observations still writes headers", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, StreamObservations(&buf, nil, false))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 1)
	})
}

func TestStreamWriter(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, testLogger())

	stream, err := writer.CreateStreamWriter("stream.csv", []string{"region", "rate"})
	require.NoError(t, err)

	require.NoError(t, stream.WriteRecord([]string{"Alpha", "4.00"}))
	require.NoError(t, stream.WriteRecord([]string{"Beta", "8.00"}))
	require.NoError(t, stream.Close())

	records := readCSVFile(t, filepath.Join(dir, "stream.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"region", "rate"}, records[0])
	assert.Equal(t, []string{"Beta", "8.00"}, records[2])
}

func TestResolvePathAbsolute(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(filepath.Join(dir, "reports"), testLogger())

	abs := filepath.Join(dir, "elsewhere", "out.csv")
	require.NoError(t, writer.WriteCSV(abs, WriteOptions{Headers: []string{"a"}}))

	_, err := os.Stat(abs)
	assert.NoError(t, err)
}
