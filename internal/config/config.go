package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Config carries everything the pipeline needs. It is built once at startup
// and passed to constructors; components never read the process environment
// themselves.
type Config struct {
	OCR    OCRConfig    `toml:"ocr"`
	Output OutputConfig `toml:"output"`
	Server ServerConfig `toml:"server"`
}

// OCRConfig selects the OCR backend. The remote endpoint is used only when
// both Endpoint and AccessKey are set; otherwise the local Tesseract engine
// handles every page.
type OCRConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	Language  string `toml:"language"`
}

// OutputConfig locates the directory where templates and debug artifacts
// are written. The directory is ephemeral working space, not a store.
type OutputConfig struct {
	Dir string `toml:"dir"`
}

// ServerConfig configures the optional HTTP surface.
type ServerConfig struct {
	Port   int    `toml:"port"`
	APIKey string `toml:"api_key"`
}

// RemoteConfigured reports whether the remote OCR endpoint should be used.
func (c OCRConfig) RemoteConfigured() bool {
	return c.Endpoint != "" && c.AccessKey != ""
}

// GetEnv reads an environment variable or returns a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		OCR: OCRConfig{
			Language: "eng",
		},
		Output: OutputConfig{
			Dir: filepath.Join(os.TempDir(), "labflow"),
		},
		Server: ServerConfig{
			Port: 8088,
		},
	}
}

// Load builds the configuration in three layers: defaults, an optional
// config.toml, then environment variables. An empty path skips the file
// layer unless LABFLOW_CONFIG points at one.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = GetEnv("LABFLOW_CONFIG", "")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.Output.Dir == "" {
		return nil, fmt.Errorf("output directory must not be empty")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.OCR.Endpoint = GetEnv("LABFLOW_OCR_ENDPOINT", cfg.OCR.Endpoint)
	cfg.OCR.AccessKey = GetEnv("LABFLOW_OCR_KEY", cfg.OCR.AccessKey)
	cfg.OCR.Language = GetEnv("LABFLOW_OCR_LANGUAGE", cfg.OCR.Language)
	cfg.Output.Dir = GetEnv("LABFLOW_OUTPUT_DIR", cfg.Output.Dir)
	cfg.Server.APIKey = GetEnv("LABFLOW_API_KEY", cfg.Server.APIKey)
	if v := GetEnv("LABFLOW_PORT", ""); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.Server.Port = port
		}
	}
}

// EnsureOutputDir creates the output directory if it does not exist yet and
// returns its path.
func EnsureOutputDir(cfg *Config) (string, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", cfg.Output.Dir, err)
	}
	return cfg.Output.Dir, nil
}
