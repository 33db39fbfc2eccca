// Package excel renders validated sample rows into spreadsheet templates
// and reads the reconciliation summary back out of written files.
package excel

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/labflowhq/labflow/internal/models"
)

const (
	// SheetName is the single data sheet of every written template.
	SheetName = "Samples"
	// SummaryCell holds the "processed/expected" reconciliation text on the
	// first sheet.
	SummaryCell  = "B2"
	summaryLabel = "processed/expected"

	headerRow    = 4
	firstDataRow = 5
)

var summaryRe = regexp.MustCompile(`^\s*(\d+)\s*/\s*(\d+)\s*$`)

// TemplateWriter writes one .xlsx file per requisition into the output
// directory.
type TemplateWriter struct {
	outDir string
}

// NewTemplateWriter creates a writer rooted at outDir. The directory must
// already exist.
func NewTemplateWriter(outDir string) *TemplateWriter {
	return &TemplateWriter{outDir: outDir}
}

// Write renders the rows into a template named name and returns the written
// file path. declared is the requisition's declared sample count, -1 when
// the report stated none.
func (w *TemplateWriter) Write(name string, rows []models.SampleRow, declared int) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}

	expected := declared
	if expected < 0 {
		expected = len(rows)
	}
	if err := f.SetCellValue(SheetName, "A2", summaryLabel); err != nil {
		return "", fmt.Errorf("write summary label: %w", err)
	}
	if err := f.SetCellValue(SheetName, SummaryCell, fmt.Sprintf("%d/%d", len(rows), expected)); err != nil {
		return "", fmt.Errorf("write summary cell: %w", err)
	}

	headers := headerFields(rows)
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return "", fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return "", fmt.Errorf("write header %s: %w", h, err)
		}
	}

	for i, row := range rows {
		for col, h := range headers {
			value, ok := row[h]
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, firstDataRow+i)
			if err != nil {
				return "", fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				return "", fmt.Errorf("write row %d field %s: %w", i+1, h, err)
			}
		}
	}

	path := filepath.Join(w.outDir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save template %s: %w", path, err)
	}
	return path, nil
}

// headerFields returns the union of row field names in first-seen order,
// with the sample marker always in the first column.
func headerFields(rows []models.SampleRow) []string {
	headers := []string{models.MarkerField}
	seen := map[string]bool{models.MarkerField: true}
	for _, row := range rows {
		for _, f := range row.OrderedFields() {
			if !seen[f] {
				seen[f] = true
				headers = append(headers, f)
			}
		}
	}
	return headers
}

// ReadSummary re-opens a written template and parses the summary cell into
// its processed/expected pair. A missing or unparsable cell is an error;
// callers fall back to their own counts.
func ReadSummary(path string) (processed, expected int, err error) {
	if _, err := os.Stat(path); err != nil {
		return 0, 0, fmt.Errorf("stat template %s: %w", path, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open template %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, 0, fmt.Errorf("template %s has no sheets", path)
	}
	value, err := f.GetCellValue(sheets[0], SummaryCell)
	if err != nil {
		return 0, 0, fmt.Errorf("read summary cell: %w", err)
	}

	m := summaryRe.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, fmt.Errorf("summary cell %q does not match processed/expected", value)
	}
	processed, _ = strconv.Atoi(m[1])
	expected, _ = strconv.Atoi(m[2])
	return processed, expected, nil
}
