// Package pdfx wraps PDF access for the pipeline: validation and page
// counting via pdfcpu, text extraction and rasterization via MuPDF.
package pdfx

import (
	"fmt"
	"image"
	"strings"

	fitz "github.com/gen2brain/go-fitz"

	"github.com/labflowhq/labflow/internal/models"
)

// RasterDPI is the fixed resolution used when pages are rendered for OCR.
const RasterDPI = 200

// Document is the subset of an opened PDF the pipeline needs. Page indices
// are zero-based throughout.
type Document interface {
	NumPage() int
	Text(page int) (string, error)
	ImageDPI(page int, dpi float64) (image.Image, error)
	Close() error
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d fitzDocument) NumPage() int { return d.doc.NumPage() }

func (d fitzDocument) Text(page int) (string, error) { return d.doc.Text(page) }

func (d fitzDocument) ImageDPI(page int, dpi float64) (image.Image, error) {
	return d.doc.ImageDPI(page, dpi)
}

func (d fitzDocument) Close() error { return d.doc.Close() }

// Open opens a PDF for reading. The caller owns the returned document and
// must Close it.
func Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return fitzDocument{doc: doc}, nil
}

// HasText reports whether any page of the document yields non-whitespace
// embedded text. It is used to choose between direct extraction and OCR.
func HasText(doc Document) bool {
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			return true
		}
	}
	return false
}

// ExtractText returns the embedded text of all pages concatenated in page
// order, separated by form feeds. A page that fails to extract fails the
// whole document.
func ExtractText(doc Document) (string, error) {
	var b strings.Builder
	pages := doc.NumPage()
	for i := 0; i < pages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", fmt.Errorf("extract text from page %d: %w", i+1, err)
		}
		b.WriteString(text)
		if i < pages-1 {
			b.WriteString("\f")
		}
	}
	return b.String(), nil
}

// RasterizePages renders every page at RasterDPI, in page order.
func RasterizePages(doc Document) ([]models.PageImage, error) {
	pages := make([]models.PageImage, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, RasterDPI)
		if err != nil {
			return nil, fmt.Errorf("rasterize page %d: %w", i+1, err)
		}
		pages = append(pages, models.PageImage{Index: i, Image: img})
	}
	return pages, nil
}

// DetectText opens the document read-only and reports text presence.
func DetectText(path string) (bool, error) {
	doc, err := Open(path)
	if err != nil {
		return false, err
	}
	defer doc.Close()
	return HasText(doc), nil
}
