// Package config loads datasetgen settings.
//
// Priority, lowest first: built-in defaults, an optional YAML file, a .env
// file, then DATASETGEN_* environment variables.
//
//	cfg, err := config.Load("datasetgen.yaml")
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/mhpenta/datasetgen"
)

// EnvPrefix prefixes every environment variable, e.g. DATASETGEN_SERVER_ADDR.
const EnvPrefix = "DATASETGEN"

// Config is the complete service configuration.
type Config struct {
	Server ServerConfig `yaml:"server" envconfig:"SERVER"`
	Gemini GeminiConfig `yaml:"gemini" envconfig:"GEMINI"`
	Export ExportConfig `yaml:"export" envconfig:"EXPORT"`
	Log    LogConfig    `yaml:"log" envconfig:"LOG"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	MetricsEnabled  bool          `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// GeminiConfig configures the image services.
type GeminiConfig struct {
	// APIKey falls back to API_KEY, then GEMINI_API_KEY
	APIKey          string        `yaml:"api_key" envconfig:"API_KEY"`
	GenerationModel string        `yaml:"generation_model" envconfig:"GENERATION_MODEL"`
	VariationModel  string        `yaml:"variation_model" envconfig:"VARIATION_MODEL"`
	WaitOnRateLimit bool          `yaml:"wait_on_rate_limit" envconfig:"WAIT_ON_RATE_LIMIT"`
	MaxWait         time.Duration `yaml:"max_wait" envconfig:"MAX_WAIT"`
}

// ExportConfig configures where exported images go.
type ExportConfig struct {
	Dir   string        `yaml:"dir" envconfig:"DIR"`
	Delay time.Duration `yaml:"delay" envconfig:"DELAY"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// debug, info, warn, error
	Level string `yaml:"level" envconfig:"LEVEL"`
	// json or console
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MetricsEnabled:  true,
		},
		Gemini: GeminiConfig{
			WaitOnRateLimit: true,
			MaxWait:         2 * time.Minute,
		},
		Export: ExportConfig{
			Dir:   "dataset",
			Delay: datasetgen.DefaultExportDelay,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. path may be empty; a missing .env file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = firstEnv("API_KEY", "GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server timeouts must not be negative"))
	}
	if c.Gemini.MaxWait < 0 {
		errs = append(errs, errors.New("gemini.max_wait must not be negative"))
	}
	if c.Export.Delay < 0 {
		errs = append(errs, errors.New("export.delay must not be negative"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or console", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
