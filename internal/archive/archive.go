// Package archive bundles the run's output into one downloadable ZIP.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Build writes all existing spreadsheet files at the archive root, all
// existing debug files under debug/, and an always-present summary.txt.
// Listed paths that no longer exist are silently skipped.
func Build(excelFiles, debugFiles []string, summary string) ([]byte, string, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, path := range excelFiles {
		if err := addFile(zw, path, filepath.Base(path)); err != nil {
			return nil, "", err
		}
	}
	for _, path := range debugFiles {
		if err := addFile(zw, path, "debug/"+filepath.Base(path)); err != nil {
			return nil, "", err
		}
	}

	w, err := zw.Create("summary.txt")
	if err != nil {
		return nil, "", fmt.Errorf("create summary entry: %w", err)
	}
	if _, err := w.Write([]byte(summary)); err != nil {
		return nil, "", fmt.Errorf("write summary entry: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), Name(), nil
}

// addFile copies one file into the archive; a missing source is skipped.
func addFile(zw *zip.Writer, path, entryName string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	w, err := zw.Create(entryName)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", entryName, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", entryName, err)
	}
	return nil
}

// Name generates the archive file name from the working directory base, a
// UTC timestamp and a short random id, unique across concurrent runs.
func Name() string {
	base := "labflow"
	if wd, err := os.Getwd(); err == nil {
		if b := filepath.Base(wd); b != "" && b != string(filepath.Separator) {
			base = b
		}
	}
	stamp := time.Now().UTC().Format("20060102T150405")
	id := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("labflow_%s_%s_%s.zip", base, stamp, id)
}
