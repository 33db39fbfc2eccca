// Command labflow-server runs the HTTP upload surface in front of the
// processing pipeline.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/labflowhq/labflow/internal/config"
	"github.com/labflowhq/labflow/internal/server"
	"github.com/labflowhq/labflow/internal/services"
)

var configPath = flag.String("config", "", "path to config.toml (optional)")

func main() {
	flag.Parse()

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

	srv := server.New(cfg, batch)
	slog.Info("labflow server listening.", "port", cfg.Server.Port)
	if err := srv.Run(); err != nil {
		slog.Error("Server stopped.", "error", err)
		os.Exit(1)
	}
}
