// Package config loads DuneBlend settings from an optional duneblend.yaml
// file, overlaid with DUNEBLEND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/anttttti/DuneBlend/pkg/core"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "duneblend.yaml"

// Adapter names accepted by Config.Adapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
	AdapterRemote = "remote"
)

// Config holds every setting of the CLI and server.
type Config struct {
	Adapter      string        `yaml:"adapter"       env:"DUNEBLEND_ADAPTER"`
	BlendsDir    string        `yaml:"blends_dir"    env:"DUNEBLEND_BLENDS_DIR"`
	Database     string        `yaml:"database"      env:"DUNEBLEND_DATABASE"`
	RemoteURL    string        `yaml:"remote_url"    env:"DUNEBLEND_REMOTE_URL"`
	Resources    string        `yaml:"resources"     env:"DUNEBLEND_RESOURCES"`
	StaticDir    string        `yaml:"static_dir"    env:"DUNEBLEND_STATIC_DIR"`
	DownloadsDir string        `yaml:"downloads_dir" env:"DUNEBLEND_DOWNLOADS_DIR"`
	Addr         string        `yaml:"addr"          env:"DUNEBLEND_ADDR"`
	CORSOrigin   string        `yaml:"cors_origin"   env:"DUNEBLEND_CORS_ORIGIN"`
	ReadOnly     bool          `yaml:"read_only"     env:"DUNEBLEND_READ_ONLY"`
	Versioning   bool          `yaml:"versioning"    env:"DUNEBLEND_VERSIONING"`
	Protected    []string      `yaml:"protected"     env:"DUNEBLEND_PROTECTED"     envSeparator:","`
	LogLevel     string        `yaml:"log_level"     env:"DUNEBLEND_LOG_LEVEL"`
	Timeout      time.Duration `yaml:"timeout"       env:"DUNEBLEND_TIMEOUT"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	home, _ := os.UserHomeDir()
	downloads := "Downloads"
	if home != "" {
		downloads = home + string(os.PathSeparator) + "Downloads"
	}
	return Config{
		Adapter:      AdapterFS,
		BlendsDir:    "blends",
		Database:     "duneblend.db",
		Resources:    "resources.json",
		StaticDir:    "static",
		DownloadsDir: downloads,
		Addr:         "localhost:8000",
		CORSOrigin:   "*",
		Protected:    append([]string(nil), core.DefaultProtected...),
		LogLevel:     "info",
		Timeout:      10 * time.Second,
	}
}

// Load builds the configuration: defaults, then the YAML file at path (a
// missing file is fine unless required), then environment variables.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && !required:
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := decodeYAML(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func decodeYAML(data []byte, cfg *Config) error {
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterFS, AdapterSQLite:
	case AdapterRemote:
		if c.RemoteURL == "" {
			return errors.New("remote adapter requires remote_url")
		}
	default:
		return fmt.Errorf("unknown adapter %q", c.Adapter)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
