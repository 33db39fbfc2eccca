package models

import (
	"image"
	"sort"
)

// MarkerField is the declared-sample marker a row must carry to count as a
// well-formed sample mapping. Rows without it are dropped before the
// template is written.
const MarkerField = "sample_id"

// SampleRow holds one lab sample's extracted field values, keyed by field
// name (e.g. reception date, sample marker). Rows have no identity beyond
// their position inside the requisition.
type SampleRow map[string]string

// OrderedFields returns the row's field names sorted, for deterministic
// template output.
func (r SampleRow) OrderedFields() []string {
	fields := make([]string, 0, len(r))
	for f := range r {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Requisition is one lab-submission batch parsed out of a report: an
// ordered sequence of sample rows plus the sample count the report itself
// declares.
type Requisition struct {
	// Index is the 1-based position of the requisition within its report.
	Index int
	Rows  []SampleRow
	// Declared is the sample count stated by the report, or -1 when the
	// report does not state one.
	Declared int
}

// ProcessedRequisition is the standardized per-requisition outcome handed
// to the template writer. A failed or empty requisition yields Rows of
// length zero rather than an error.
type ProcessedRequisition struct {
	Rows     []SampleRow
	Declared int
}

// PageImage is a single rasterized PDF page. Index is the zero-based page
// index; the rasterizer preserves page order.
type PageImage struct {
	Index int
	Image image.Image
}

// RequisitionDetail records the reconciled counts for one written template.
type RequisitionDetail struct {
	File       string `json:"file"`
	Processed  int    `json:"processed"`
	Expected   int    `json:"expected"`
	Difference int    `json:"difference"`
}

// FileStats summarizes the processing of one source PDF.
type FileStats struct {
	Source       string              `json:"source"`
	Requisitions int                 `json:"requisitions"`
	TotalSamples int                 `json:"totalSamples"`
	Details      []RequisitionDetail `json:"details"`
}

// BatchSummary aggregates a whole run across source PDFs.
type BatchSummary struct {
	Files        int         `json:"files"`
	Failed       int         `json:"failed"`
	Requisitions int         `json:"requisitions"`
	TotalSamples int         `json:"totalSamples"`
	Stats        []FileStats `json:"stats"`
}
