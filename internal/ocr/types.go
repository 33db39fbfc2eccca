// Package ocr turns rasterized report pages into text, either through a
// hosted read API or a local Tesseract engine.
package ocr

import (
	"context"
	"strings"
)

// Input is a single encoded page image submitted for recognition.
type Input struct {
	// PageIndex is the zero-based index of the page the image came from.
	PageIndex int
	// Image is the JPEG-encoded page raster.
	Image []byte
	// Language is a Tesseract language hint; remote engines ignore it.
	Language string
}

// Line is one recognized text line within a block.
type Line struct {
	Text string `json:"text"`
}

// ReadResult groups the recognized lines of one detected page/block.
type ReadResult struct {
	Page  int    `json:"page"`
	Lines []Line `json:"lines"`
}

// AnalyzeResult is the wrapper the read API keys its results under.
type AnalyzeResult struct {
	ReadResults []ReadResult `json:"readResults"`
}

// Result is the raw recognition response for one input. Responses arriving
// without the wrapper are normalized into this shape before use.
type Result struct {
	Status        string        `json:"status,omitempty"`
	AnalyzeResult AnalyzeResult `json:"analyzeResult"`
}

// PlainText concatenates all recognized lines, newline separated.
func (r Result) PlainText() string {
	var b strings.Builder
	for _, rr := range r.AnalyzeResult.ReadResults {
		for _, line := range rr.Lines {
			if line.Text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(line.Text)
		}
	}
	return b.String()
}

// Engine is the OCR provider contract: one image in, one result out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}
