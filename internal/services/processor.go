package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/labflowhq/labflow/internal/models"
	"github.com/labflowhq/labflow/internal/ocr"
	"github.com/labflowhq/labflow/internal/pdfx"
)

// requisitionWorkers caps the per-requisition pool; the effective size is
// min(requisitionWorkers, requisition count).
const requisitionWorkers = 4

// ProcessorConfig holds the processing stage configuration.
type ProcessorConfig struct {
	// OutputDir receives the OCR debug text files.
	OutputDir string
}

// Processor extracts a report's text, splits it into requisitions and
// packages each one in parallel. One bad requisition never aborts the rest;
// it degrades to an empty result.
type Processor struct {
	config     ProcessorConfig
	dispatcher *ocr.Dispatcher
	splitter   Splitter

	// seams for tests; default to the real PDF layer
	open    func(path string) (pdfx.Document, error)
	inspect func(path string) (int, error)
}

// NewProcessor wires the processing stage.
func NewProcessor(config ProcessorConfig, dispatcher *ocr.Dispatcher, splitter Splitter) (*Processor, error) {
	if config.OutputDir == "" {
		return nil, fmt.Errorf("output directory must be set")
	}
	if splitter == nil {
		return nil, fmt.Errorf("splitter must be provided")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Processor{
		config:     config,
		dispatcher: dispatcher,
		splitter:   splitter,
		open:       pdfx.Open,
		inspect:    pdfx.Inspect,
	}, nil
}

// Process runs the full per-PDF pipeline and returns one standardized
// result per requisition the splitter found.
func (p *Processor) Process(ctx context.Context, pdfPath string) ([]models.ProcessedRequisition, error) {
	start := time.Now()
	logCtx := slog.With("pdf", filepath.Base(pdfPath))
	logCtx.Info("Processing report.")

	pageCount, err := p.inspect(pdfPath)
	if err != nil {
		return nil, err
	}
	logCtx = logCtx.With("pages", pageCount)

	text, err := p.extractText(ctx, logCtx, pdfPath)
	if err != nil {
		return nil, err
	}
	p.writeDebugText(logCtx, pdfPath, text)

	reqs, err := p.splitter.Split(text)
	if err != nil {
		return nil, fmt.Errorf("split requisitions: %w", err)
	}
	if len(reqs) == 0 {
		logCtx.Warn("No requisitions found in report.")
		return []models.ProcessedRequisition{}, nil
	}

	results := make([]models.ProcessedRequisition, len(reqs))
	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(min(requisitionWorkers, len(reqs)))
	for i, req := range reqs {
		eg.Go(func() error {
			results[i] = p.processRequisition(logCtx, req)
			return nil
		})
	}
	_ = eg.Wait()

	totalRows := 0
	for _, r := range results {
		totalRows += len(r.Rows)
	}
	logCtx.Info("Report processed.",
		"requisitions", len(reqs),
		"rows", totalRows,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	return results, nil
}

// processRequisition validates and packages one requisition. Count
// mismatches are informational only.
func (p *Processor) processRequisition(logCtx *slog.Logger, req models.Requisition) models.ProcessedRequisition {
	reqLog := logCtx.With("requisition", req.Index)

	if len(req.Rows) == 0 {
		reqLog.Warn("Requisition has no sample rows.")
		return models.ProcessedRequisition{Rows: []models.SampleRow{}, Declared: req.Declared}
	}
	if req.Declared >= 0 && req.Declared != len(req.Rows) {
		reqLog.Warn("Sample count mismatch.", "declared", req.Declared, "produced", len(req.Rows))
	}
	return models.ProcessedRequisition{Rows: req.Rows, Declared: req.Declared}
}

// extractText returns the report's full text: embedded text when the
// document carries any, OCR over rasterized pages otherwise.
func (p *Processor) extractText(ctx context.Context, logCtx *slog.Logger, pdfPath string) (string, error) {
	doc, err := p.open(pdfPath)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	if pdfx.HasText(doc) {
		logCtx.Info("Embedded text detected, skipping OCR.")
		return pdfx.ExtractText(doc)
	}

	pages, err := pdfx.RasterizePages(doc)
	if err != nil {
		return "", err
	}
	logCtx.Info("No embedded text, dispatching pages to OCR.", "pages", len(pages))

	pageTexts := p.dispatcher.Dispatch(ctx, pages)
	failed := 0
	for _, pt := range pageTexts {
		if pt.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		logCtx.Warn("Some pages failed OCR; continuing with partial text.", "failedPages", failed)
	}
	return ocr.CombineText(pageTexts), nil
}

// writeDebugText stores the raw extracted text next to the templates for
// inspection. Failure to write it is not fatal.
func (p *Processor) writeDebugText(logCtx *slog.Logger, pdfPath, text string) {
	base := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	debugPath := filepath.Join(p.config.OutputDir, base+"_ocr.txt")
	if err := os.WriteFile(debugPath, []byte(text), 0644); err != nil {
		logCtx.Warn("Failed to write OCR debug file.", "path", debugPath, "error", err)
		return
	}
	logCtx.Info("Wrote OCR debug file.", "path", debugPath)
}
