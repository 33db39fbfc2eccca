package services

import (
	"fmt"

	"github.com/labflowhq/labflow/internal/config"
	"github.com/labflowhq/labflow/internal/excel"
	"github.com/labflowhq/labflow/internal/ocr"
	"github.com/labflowhq/labflow/internal/ocr/tesseract"
)

// NewPipeline assembles the full batch pipeline from configuration: OCR
// dispatcher (remote engine only when both endpoint and key are set, local
// Tesseract otherwise), reference splitter, processor, template writer and
// mapper.
func NewPipeline(cfg *config.Config) (*Batch, error) {
	outDir, err := config.EnsureOutputDir(cfg)
	if err != nil {
		return nil, err
	}

	var remote ocr.Engine
	if cfg.OCR.RemoteConfigured() {
		remote = ocr.NewRemoteEngine(cfg.OCR.Endpoint, cfg.OCR.AccessKey)
	}
	dispatcher := ocr.NewDispatcher(remote, tesseract.New(), ocr.NewCache(ocr.DefaultCacheSize), cfg.OCR.Language)

	processor, err := NewProcessor(ProcessorConfig{OutputDir: outDir}, dispatcher, NewTextSplitter())
	if err != nil {
		return nil, fmt.Errorf("build processor: %w", err)
	}

	mapper := NewMapper(outDir, processor, excel.NewTemplateWriter(outDir))
	return NewBatch(mapper), nil
}
