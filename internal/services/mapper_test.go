package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/labflowhq/labflow/internal/models"
)

// fakeProcessor returns canned per-requisition results.
type fakeProcessor struct {
	results []models.ProcessedRequisition
	err     error
}

func (f *fakeProcessor) Process(ctx context.Context, pdfPath string) ([]models.ProcessedRequisition, error) {
	return f.results, f.err
}

// recordingWriter captures requested template names and writes real files so
// the mapper's existence checks hold.
type recordingWriter struct {
	dir   string
	names []string
	fail  bool
}

func (w *recordingWriter) Write(name string, rows []models.SampleRow, declared int) (string, error) {
	if w.fail {
		return "", fmt.Errorf("simulated template failure")
	}
	w.names = append(w.names, name)
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte("xlsx"), 0644); err != nil {
		return "", err
	}
	return path, nil
}

func rowsWithMarker(ids ...string) []models.SampleRow {
	var rows []models.SampleRow
	for _, id := range ids {
		rows = append(rows, models.SampleRow{models.MarkerField: id, "matrix": "water"})
	}
	return rows
}

func newTestMapper(t *testing.T, proc requisitionProcessor) (*Mapper, *recordingWriter, string) {
	t.Helper()
	dir := t.TempDir()
	writer := &recordingWriter{dir: dir}
	m := NewMapper(dir, proc, writer)
	// Summary readback is exercised in the excel package tests; here the
	// fallback path keeps the fake templates simple.
	m.readSummary = func(string) (int, int, error) { return 0, 0, fmt.Errorf("no summary") }
	return m, writer, dir
}

func TestMapToFilesSingleRequisitionUsesBaseName(t *testing.T) {
	proc := &fakeProcessor{results: []models.ProcessedRequisition{
		{Rows: rowsWithMarker("S-1", "S-2"), Declared: 2},
	}}
	m, writer, _ := newTestMapper(t, proc)

	created, stats, _, err := m.MapToFiles(context.Background(), "/in/report.pdf")
	if err != nil {
		t.Fatalf("MapToFiles: %v", err)
	}
	if len(writer.names) != 1 || writer.names[0] != "report.xlsx" {
		t.Fatalf("template names = %v, want [report.xlsx]", writer.names)
	}
	if len(created) != 1 {
		t.Fatalf("created = %v", created)
	}
	if stats.Requisitions != 1 || stats.TotalSamples != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestMapToFilesMultipleRequisitionsAreSuffixed(t *testing.T) {
	proc := &fakeProcessor{results: []models.ProcessedRequisition{
		{Rows: rowsWithMarker("S-1"), Declared: 1},
		{Rows: rowsWithMarker("S-2"), Declared: 1},
	}}
	m, writer, _ := newTestMapper(t, proc)

	if _, _, _, err := m.MapToFiles(context.Background(), "report.pdf"); err != nil {
		t.Fatalf("MapToFiles: %v", err)
	}
	want := []string{"report_req1.xlsx", "report_req2.xlsx"}
	if len(writer.names) != 2 || writer.names[0] != want[0] || writer.names[1] != want[1] {
		t.Fatalf("template names = %v, want %v", writer.names, want)
	}
}

func TestMapToFilesDropsRowsWithoutMarker(t *testing.T) {
	proc := &fakeProcessor{results: []models.ProcessedRequisition{
		{
			Rows: []models.SampleRow{
				{models.MarkerField: "S-1"},
				{"matrix": "soil"}, // no marker: dropped
				{models.MarkerField: "  "},
			},
			Declared: 3,
		},
	}}
	m, _, _ := newTestMapper(t, proc)

	_, stats, _, err := m.MapToFiles(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("MapToFiles: %v", err)
	}
	if stats.TotalSamples != 1 {
		t.Fatalf("total samples = %d, want 1 (markerless rows dropped)", stats.TotalSamples)
	}
}

func TestMapToFilesDropsRequisitionLeftEmpty(t *testing.T) {
	proc := &fakeProcessor{results: []models.ProcessedRequisition{
		{Rows: []models.SampleRow{{"matrix": "soil"}}, Declared: 1},
		{Rows: rowsWithMarker("S-1"), Declared: 1},
	}}
	m, writer, _ := newTestMapper(t, proc)

	created, stats, _, err := m.MapToFiles(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("MapToFiles: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created = %v, want one file", created)
	}
	// Naming still reflects the requisition's original position.
	if writer.names[0] != "report_req2.xlsx" {
		t.Fatalf("surviving template = %v", writer.names)
	}
	if stats.Requisitions != 2 {
		t.Fatalf("requisition count should reflect the split result, got %d", stats.Requisitions)
	}
}

func TestMapToFilesWriterFailureSkipsSilently(t *testing.T) {
	proc := &fakeProcessor{results: []models.ProcessedRequisition{
		{Rows: rowsWithMarker("S-1"), Declared: 1},
	}}
	m, writer, _ := newTestMapper(t, proc)
	writer.fail = true

	created, stats, _, err := m.MapToFiles(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("write failure must not fail the file: %v", err)
	}
	if len(created) != 0 || len(stats.Details) != 0 {
		t.Fatalf("failed write should leave no trace: created=%v details=%v", created, stats.Details)
	}
}

func TestMapToFilesFallsBackToOwnCounts(t *testing.T) {
	proc := &fakeProcessor{results: []models.ProcessedRequisition{
		{Rows: rowsWithMarker("S-1", "S-2"), Declared: 5},
	}}
	m, _, _ := newTestMapper(t, proc)

	_, stats, _, err := m.MapToFiles(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("MapToFiles: %v", err)
	}
	d := stats.Details[0]
	if d.Processed != 2 || d.Expected != 5 || d.Difference != -3 {
		t.Fatalf("fallback detail = %+v", d)
	}
}

func TestMapToFilesUsesSummaryCellWhenReadable(t *testing.T) {
	proc := &fakeProcessor{results: []models.ProcessedRequisition{
		{Rows: rowsWithMarker("S-1"), Declared: 1},
	}}
	m, _, _ := newTestMapper(t, proc)
	m.readSummary = func(string) (int, int, error) { return 7, 9, nil }

	_, stats, _, err := m.MapToFiles(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("MapToFiles: %v", err)
	}
	d := stats.Details[0]
	if d.Processed != 7 || d.Expected != 9 || d.Difference != -2 {
		t.Fatalf("summary cell should win: %+v", d)
	}
}

func TestMapToFilesCollectsDebugArtifacts(t *testing.T) {
	proc := &fakeProcessor{results: []models.ProcessedRequisition{
		{Rows: rowsWithMarker("S-1"), Declared: 1},
	}}
	m, _, dir := newTestMapper(t, proc)

	for _, name := range []string{"report_ocr.txt", "export.csv", "run_summary.txt", "unrelated.bin"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	_, _, debug, err := m.MapToFiles(context.Background(), "report.pdf")
	if err != nil {
		t.Fatalf("MapToFiles: %v", err)
	}
	got := make(map[string]bool)
	for _, p := range debug {
		got[filepath.Base(p)] = true
	}
	for _, want := range []string{"report_ocr.txt", "export.csv", "run_summary.txt"} {
		if !got[want] {
			t.Fatalf("debug artifacts missing %s: %v", want, debug)
		}
	}
	if got["unrelated.bin"] {
		t.Fatalf("glob picked up unrelated file: %v", debug)
	}
}

func TestMapToFilesProcessorFailurePropagates(t *testing.T) {
	m, _, _ := newTestMapper(t, &fakeProcessor{err: fmt.Errorf("unreadable pdf")})
	if _, _, _, err := m.MapToFiles(context.Background(), "broken.pdf"); err == nil {
		t.Fatal("processor failure must propagate as a per-file error")
	}
}
