package config

import (
	"errors"
	"fmt"
	"os"
	"passwordCrackerEngine/internal/core/domain"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Log formats. FormatAuto picks text on a terminal and JSON otherwise.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

type Config struct {
	Workers          int                     `yaml:"workers"`
	BufferSize       int                     `yaml:"buffer_size"`
	Mode             domain.DistributionMode `yaml:"mode"`
	GracePeriod      time.Duration           `yaml:"grace_period"`
	ProgressInterval time.Duration           `yaml:"progress_interval"`
	Log              LogConfig               `yaml:"log"`
	Store            StoreConfig             `yaml:"store"`
	Status           StatusConfig            `yaml:"status"`
	Metrics          MetricsConfig           `yaml:"metrics"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type StatusConfig struct {
	// Addr is where the status API listens; empty disables it.
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	SampleInterval time.Duration `yaml:"sample_interval"`
	// ReportPath receives one JSON line per finished run; empty disables it.
	ReportPath string `yaml:"report_path"`
}

// Dir is where the config file and the session store live by default.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cracker"
	}
	return filepath.Join(home, ".cracker")
}

func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func DefaultConfig() Config {
	return Config{
		Workers:          runtime.NumCPU(),
		BufferSize:       200,
		Mode:             domain.ModeQueue,
		GracePeriod:      5 * time.Second,
		ProgressInterval: time.Second,
		Log: LogConfig{
			Level:  "info",
			Format: FormatAuto,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join(Dir(), "sessions.db"),
		},
		Metrics: MetricsConfig{
			SampleInterval: time.Second,
		},
	}
}

// Load reads the YAML config at path over the defaults. An empty path means
// the default location, which is created with default values on first use.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := createDefault(path); err != nil {
				return cfg, err
			}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read the config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", domain.ErrInvalidWorkers, c.Workers)
	}
	if c.BufferSize < 1 {
		return fmt.Errorf("buffer_size must be at least 1, got %d", c.BufferSize)
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("unknown mode %q (want %s or %s)", c.Mode, domain.ModeQueue, domain.ModeBroadcast)
	}
	if c.GracePeriod <= 0 {
		return fmt.Errorf("grace_period must be positive, got %s", c.GracePeriod)
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverBadger:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Log.Format {
	case FormatAuto, FormatText, FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func (c Config) RunSettings() domain.RunSettings {
	return domain.RunSettings{
		Workers:          c.Workers,
		BufferSize:       c.BufferSize,
		Mode:             c.Mode,
		GracePeriod:      c.GracePeriod,
		ProgressInterval: c.ProgressInterval,
	}
}

// GetDSN is the go-sqlite3 connection string for the store path.
func (c StoreConfig) GetDSN() string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", c.Path)
}
