package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"

	"github.com/bavix/bletrack/internal/devices"
	"github.com/bavix/bletrack/internal/recency"
	"github.com/bavix/bletrack/internal/scanner"
	"github.com/bavix/bletrack/internal/store"
)

// DefaultPath is where the run command looks for its configuration.
const DefaultPath = "/etc/bletrack/config.yaml"

const (
	defaultAppName      = "bletrack"
	defaultPollInterval = 45 * time.Second
	defaultLogLevel     = "info"
	defaultLogFormat    = "json"

	// minPollInterval keeps a zero or tiny interval from spinning the tick loop.
	minPollInterval = time.Second
)

var (
	errScannerPathEmpty      = errors.New("scanner.path cannot be empty")
	errScanDurationPositive  = errors.New("scanner.duration must be positive")
	errPollIntervalTooShort  = errors.New("poll_interval must be at least 1s")
	errStorePathEmpty        = errors.New("store.path cannot be empty")
	errRecountIntervalNonPos = errors.New("recount_interval must be positive")
	errRecencyWindowNonPos   = errors.New("recency.window must be positive")
	errRecencyCapacityNonPos = errors.New("recency.capacity must be positive")
	errUnknownLogFormat      = errors.New("log.format must be json or console")
)

// ScannerConfig configures the bettercap session runner.
type ScannerConfig struct {
	Path     string        `yaml:"path,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
}

// StoreConfig configures the device ledger file.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// RecencyConfig configures the "currently nearby" window.
type RecencyConfig struct {
	Window   time.Duration `yaml:"window,omitempty"`
	Capacity int           `yaml:"capacity,omitempty"`
}

// ReportConfig configures where cycle summaries go besides the log.
type ReportConfig struct {
	// StatusFile, when set, receives the latest status as JSON.
	StatusFile string `yaml:"status_file,omitempty"`
}

// MetricsConfig configures prometheus exposition.
type MetricsConfig struct {
	// Textfile, when set, is rewritten after every cycle in node_exporter textfile format.
	Textfile string `yaml:"textfile,omitempty"`
}

// LogConfig defines logging configuration.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Config is the main application configuration.
type Config struct {
	AppName         string        `yaml:"app_name,omitempty"`
	Scanner         ScannerConfig `yaml:"scanner,omitempty"`
	PollInterval    time.Duration `yaml:"poll_interval,omitempty"`
	Store           StoreConfig   `yaml:"store,omitempty"`
	RecountInterval time.Duration `yaml:"recount_interval,omitempty"`
	Recency         RecencyConfig `yaml:"recency,omitempty"`
	Report          ReportConfig  `yaml:"report,omitempty"`
	Metrics         MetricsConfig `yaml:"metrics,omitempty"`
	Log             LogConfig     `yaml:"log,omitempty"`

	Path string `yaml:"-"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path) //nolint:gosec // config file path comes from the operator
	if err != nil {
		return nil, err
	}

	return Parse(b, path)
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		cfg.Path = path

		return cfg, nil
	}

	return cfg, err
}

// Parse decodes YAML content, applies defaults and validates the result.
func Parse(b []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Path = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AppName == "" {
		c.AppName = defaultAppName
	}

	if c.Scanner.Path == "" {
		c.Scanner.Path = scanner.DefaultPath
	}

	if c.Scanner.Duration == 0 {
		c.Scanner.Duration = scanner.DefaultDuration
	}

	if c.PollInterval == 0 {
		c.PollInterval = defaultPollInterval
	}

	if c.Store.Path == "" {
		c.Store.Path = store.DefaultPath
	}

	if c.RecountInterval == 0 {
		c.RecountInterval = devices.DefaultRecountInterval
	}

	if c.Recency.Window == 0 {
		c.Recency.Window = recency.DefaultWindow
	}

	if c.Recency.Capacity == 0 {
		c.Recency.Capacity = recency.DefaultCapacity
	}

	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}

	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
}

// Validate checks the configuration for values the tracker cannot run with.
//
//nolint:cyclop
func (c *Config) Validate() error {
	switch {
	case c.Scanner.Path == "":
		return errScannerPathEmpty
	case c.Scanner.Duration <= 0:
		return errScanDurationPositive
	case c.PollInterval < minPollInterval:
		return fmt.Errorf("%w: %s", errPollIntervalTooShort, c.PollInterval)
	case c.Store.Path == "":
		return errStorePathEmpty
	case c.RecountInterval <= 0:
		return errRecountIntervalNonPos
	case c.Recency.Window <= 0:
		return errRecencyWindowNonPos
	case c.Recency.Capacity <= 0:
		return errRecencyCapacityNonPos
	case c.Log.Format != "json" && c.Log.Format != "console":
		return fmt.Errorf("%w: %q", errUnknownLogFormat, c.Log.Format)
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	return out, nil
}
