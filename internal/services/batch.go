package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/labflowhq/labflow/internal/archive"
	"github.com/labflowhq/labflow/internal/models"
)

// fileMapper is the per-PDF stage of the batch.
type fileMapper interface {
	MapToFiles(ctx context.Context, pdfPath string) ([]string, models.FileStats, []string, error)
}

// Batch runs the whole pipeline over a set of uploaded PDFs, one file fully
// completing before the next starts, and bundles everything produced into a
// single downloadable archive.
type Batch struct {
	mapper fileMapper
}

// NewBatch wires the batch runner.
func NewBatch(mapper fileMapper) *Batch {
	return &Batch{mapper: mapper}
}

// Run processes every PDF and returns the archive bytes, the archive name
// and the aggregated summary. expectedHint is a caller-supplied requisition
// count used for display only; it is never enforced. A failed file is
// recorded and the batch continues.
func (b *Batch) Run(ctx context.Context, pdfPaths []string, expectedHint int) ([]byte, string, models.BatchSummary, error) {
	var (
		excelFiles []string
		debugFiles []string
		summary    models.BatchSummary
		report     strings.Builder
	)

	if expectedHint > 0 {
		fmt.Fprintf(&report, "expected requisitions (hint): %d\n\n", expectedHint)
	}

	for _, path := range pdfPaths {
		name := filepath.Base(path)
		summary.Files++

		created, stats, debug, err := b.mapper.MapToFiles(ctx, path)
		if err != nil {
			slog.Error("Report processing failed.", "pdf", name, "error", err)
			summary.Failed++
			fmt.Fprintf(&report, "%s: FAILED (%v)\n", name, err)
			continue
		}

		excelFiles = append(excelFiles, created...)
		debugFiles = mergePaths(debugFiles, debug)
		summary.Requisitions += stats.Requisitions
		summary.TotalSamples += stats.TotalSamples
		summary.Stats = append(summary.Stats, stats)

		fmt.Fprintf(&report, "%s: %d requisitions, %d samples\n", name, stats.Requisitions, stats.TotalSamples)
		for _, d := range stats.Details {
			fmt.Fprintf(&report, "  %s: processed %d, expected %d, difference %d\n",
				d.File, d.Processed, d.Expected, d.Difference)
		}
	}

	zipBytes, zipName, err := archive.Build(excelFiles, debugFiles, report.String())
	if err != nil {
		return nil, "", summary, fmt.Errorf("build archive: %w", err)
	}

	slog.Info("Batch complete.",
		"files", summary.Files,
		"failed", summary.Failed,
		"requisitions", summary.Requisitions,
		"samples", summary.TotalSamples,
		"archive", zipName,
	)
	return zipBytes, zipName, summary, nil
}

// mergePaths appends the new paths that are not already present, keeping
// debug artifacts unique across files in the same output directory.
func mergePaths(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, p := range existing {
		seen[p] = true
	}
	for _, p := range incoming {
		if !seen[p] {
			seen[p] = true
			existing = append(existing, p)
		}
	}
	return existing
}
