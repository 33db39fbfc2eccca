// Command labflow processes lab report PDFs from the command line and
// writes the resulting archive to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/labflowhq/labflow/internal/config"
	"github.com/labflowhq/labflow/internal/services"
)

var (
	configPath = flag.String("config", "", "path to config.toml (optional)")
	outDir     = flag.String("out", ".", "directory the result archive is written to")
	expected   = flag.Int("expected", 0, "expected requisition count hint (display only)")
)

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: labflow [flags] report.pdf [report2.pdf ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration.", "error", err)
		os.Exit(1)
	}

	batch, err := services.NewPipeline(cfg)
	if err != nil {
		slog.Error("Failed to build pipeline.", "error", err)
		os.Exit(1)
	}

	zipBytes, zipName, summary, err := batch.Run(context.Background(), flag.Args(), *expected)
	if err != nil {
		slog.Error("Batch failed.", "error", err)
		os.Exit(1)
	}

	zipPath := filepath.Join(*outDir, zipName)
	if err := os.WriteFile(zipPath, zipBytes, 0644); err != nil {
		slog.Error("Failed to write archive.", "path", zipPath, "error", err)
		os.Exit(1)
	}

	fmt.Printf("processed %d file(s), %d failed, %d requisitions, %d samples\n",
		summary.Files, summary.Failed, summary.Requisitions, summary.TotalSamples)
	fmt.Printf("archive: %s\n", zipPath)
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
