// Package handler implements the HTTP handlers of the labflow server.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/labflowhq/labflow/internal/models"
)

// Pipeline is the batch-processing dependency of the handler.
type Pipeline interface {
	Run(ctx context.Context, pdfPaths []string, expectedHint int) ([]byte, string, models.BatchSummary, error)
}

// ProcessHandler accepts uploaded lab report PDFs and responds with the
// result archive.
type ProcessHandler struct {
	pipeline Pipeline
}

// NewProcessHandler creates the handler.
func NewProcessHandler(pipeline Pipeline) *ProcessHandler {
	return &ProcessHandler{pipeline: pipeline}
}

// Process handles POST /api/v1/process: multipart "files" PDFs plus an
// optional "expected" requisition-count hint. The response body is the ZIP
// archive with the per-requisition templates, debug artifacts and summary.
func (h *ProcessHandler) Process(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form required"})
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one PDF file is required"})
		return
	}

	expectedHint := 0
	if v := c.PostForm("expected"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			expectedHint = n
		}
	}

	tempDir, err := os.MkdirTemp("", "labflow-upload-*")
	if err != nil {
		slog.Error("Failed to create upload staging dir.", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to stage uploads"})
		return
	}
	defer os.RemoveAll(tempDir)

	var pdfPaths []string
	for i, upload := range uploads {
		name := filepath.Base(upload.Filename)
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is not a PDF", name)})
			return
		}
		dst := filepath.Join(tempDir, fmt.Sprintf("%02d_%s", i, name))
		if err := c.SaveUploadedFile(upload, dst); err != nil {
			slog.Error("Failed to save upload.", "file", name, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save upload"})
			return
		}
		pdfPaths = append(pdfPaths, dst)
	}

	zipBytes, zipName, summary, err := h.pipeline.Run(c.Request.Context(), pdfPaths, expectedHint)
	if err != nil {
		slog.Error("Batch run failed.", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", zipName))
	c.Header("X-Labflow-Files", strconv.Itoa(summary.Files))
	c.Header("X-Labflow-Failed", strconv.Itoa(summary.Failed))
	c.Data(http.StatusOK, "application/zip", zipBytes)
}
