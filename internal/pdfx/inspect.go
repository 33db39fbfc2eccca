package pdfx

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Inspect validates the document with relaxed validation and returns its
// page count. An unreadable or malformed PDF is a fatal error for the file.
func Inspect(path string) (int, error) {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, cfg); err != nil {
		return 0, fmt.Errorf("validate pdf %s: %w", path, err)
	}
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("count pages of %s: %w", path, err)
	}
	if pageCount == 0 {
		return 0, fmt.Errorf("pdf %s has no pages", path)
	}
	return pageCount, nil
}
