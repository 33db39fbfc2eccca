// Package tesseract provides the local OCR fallback. It is kept in its own
// package so that the cgo dependency stays out of the dispatcher.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/labflowhq/labflow/internal/ocr"
)

// Engine recognizes page images through a local Tesseract installation.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed engine.
func New() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs Tesseract over one encoded page image and shapes the plain
// text into the common result structure.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	select {
	case <-ctx.Done():
		return ocr.Result{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("set image for page %d: %w", in.PageIndex+1, err)
	}
	if in.Language != "" {
		if err := c.SetLanguage(in.Language); err != nil {
			return ocr.Result{}, fmt.Errorf("set language %q: %w", in.Language, err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize page %d: %w", in.PageIndex+1, err)
	}

	return wrapPlainText(in.PageIndex, text), nil
}

// wrapPlainText converts raw engine output into the normalized result shape
// used by the remote endpoint, one line per recognized text line.
func wrapPlainText(pageIndex int, text string) ocr.Result {
	var lines []ocr.Line
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, ocr.Line{Text: l})
	}
	return ocr.Result{
		AnalyzeResult: ocr.AnalyzeResult{
			ReadResults: []ocr.ReadResult{{Page: pageIndex + 1, Lines: lines}},
		},
	}
}
