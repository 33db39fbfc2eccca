package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/labflowhq/labflow/internal/excel"
	"github.com/labflowhq/labflow/internal/models"
)

// requisitionProcessor is the orchestration dependency of the mapper.
type requisitionProcessor interface {
	Process(ctx context.Context, pdfPath string) ([]models.ProcessedRequisition, error)
}

// templateWriter renders one requisition into a spreadsheet file. An empty
// returned path means the write was skipped.
type templateWriter interface {
	Write(name string, rows []models.SampleRow, declared int) (string, error)
}

// debugGlobs are the auxiliary artifacts picked up from the output
// directory for the archive's debug folder.
var debugGlobs = []string{"*_ocr.txt", "*.csv", "*summary*.txt"}

// Mapper maps a processed report onto per-requisition template files and
// reconciles the written counts against the declared ones.
type Mapper struct {
	outputDir   string
	processor   requisitionProcessor
	writer      templateWriter
	readSummary func(path string) (processed, expected int, err error)
}

// NewMapper wires the mapping stage.
func NewMapper(outputDir string, processor requisitionProcessor, writer templateWriter) *Mapper {
	return &Mapper{
		outputDir:   outputDir,
		processor:   processor,
		writer:      writer,
		readSummary: excel.ReadSummary,
	}
}

// MapToFiles processes the PDF and writes one template per requisition that
// still has well-formed rows after filtering. It returns the created file
// paths, the per-PDF stats record and the matching debug artifacts.
func (m *Mapper) MapToFiles(ctx context.Context, pdfPath string) ([]string, models.FileStats, []string, error) {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	logCtx := slog.With("pdf", filepath.Base(pdfPath))

	results, err := m.processor.Process(ctx, pdfPath)
	if err != nil {
		return nil, models.FileStats{}, nil, err
	}

	stats := models.FileStats{
		Source:       base,
		Requisitions: len(results),
	}

	var created []string
	for i, res := range results {
		rows := filterRows(res.Rows)
		if len(rows) == 0 {
			logCtx.Warn("Dropping requisition with no valid sample mappings.", "requisition", i+1)
			continue
		}

		name := templateName(base, i+1, len(results))
		path, err := m.writer.Write(name, rows, res.Declared)
		if err != nil {
			logCtx.Error("Template write failed, skipping requisition.", "requisition", i+1, "error", err)
			continue
		}
		if path == "" {
			continue
		}
		created = append(created, path)

		processed, expected, err := m.readSummary(path)
		if err != nil {
			// Fall back to our own counts when the summary cell is absent
			// or unparsable.
			processed = len(rows)
			expected = res.Declared
			if expected < 0 {
				expected = len(rows)
			}
		}

		stats.TotalSamples += len(rows)
		stats.Details = append(stats.Details, models.RequisitionDetail{
			File:       filepath.Base(path),
			Processed:  processed,
			Expected:   expected,
			Difference: processed - expected,
		})
	}

	debugFiles, err := m.collectDebugArtifacts()
	if err != nil {
		logCtx.Warn("Failed to collect debug artifacts.", "error", err)
	}
	return created, stats, debugFiles, nil
}

// filterRows keeps only well-formed mapping entries, i.e. rows carrying the
// sample marker field.
func filterRows(rows []models.SampleRow) []models.SampleRow {
	var kept []models.SampleRow
	for _, row := range rows {
		if strings.TrimSpace(row[models.MarkerField]) != "" {
			kept = append(kept, row)
		}
	}
	return kept
}

// templateName derives the output file name: the base name alone for a
// single-requisition report, an indexed suffix otherwise.
func templateName(base string, index, total int) string {
	if total == 1 {
		return base + ".xlsx"
	}
	return fmt.Sprintf("%s_req%d.xlsx", base, index)
}

func (m *Mapper) collectDebugArtifacts() ([]string, error) {
	var files []string
	for _, pattern := range debugGlobs {
		matches, err := filepath.Glob(filepath.Join(m.outputDir, pattern))
		if err != nil {
			return files, err
		}
		files = append(files, matches...)
	}
	return files, nil
}
