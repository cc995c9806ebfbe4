package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full licverify configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxUploadBytes caps the size of a /batch request body.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	// CORSOrigins lists allowed origins. Empty or ["*"] allows any origin.
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
}

// DataConfig locates the verification table and scratch space.
type DataConfig struct {
	// TablePath is the workbook loaded once at startup.
	TablePath string `yaml:"table_path"`
	// Sheet selects a worksheet by name; empty means the first sheet.
	Sheet string `yaml:"sheet,omitempty"`
	// SpoolDir holds per-request result files; empty means os.TempDir().
	SpoolDir string `yaml:"spool_dir,omitempty"`
}

// LoggingConfig sets the default log level and handler format.
// Command-line verbosity flags take precedence over Level.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled        bool              `yaml:"enabled"`
	Endpoint       string            `yaml:"endpoint"`
	Protocol       string            `yaml:"protocol"`
	Insecure       bool              `yaml:"insecure"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	ServiceName    string            `yaml:"service_name"`
	ServiceVersion string            `yaml:"service_version"`
	SampleRate     float64           `yaml:"sample_rate"`
}

// Validate checks that the configuration is valid and ready to use
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, fmt.Errorf("server.addr is required"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be positive, got: %d", c.Server.MaxUploadBytes))
	}
	if c.Data.TablePath == "" {
		errs = append(errs, fmt.Errorf("data.table_path is required"))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of debug, info, warn, error, got: %s", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be 'text' or 'json', got: %s", c.Logging.Format))
	}

	switch c.Telemetry.Protocol {
	case "", "grpc", "http":
	default:
		errs = append(errs, fmt.Errorf("telemetry.protocol must be 'grpc' or 'http', got: %s", c.Telemetry.Protocol))
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_rate must be between 0 and 1, got: %v", c.Telemetry.SampleRate))
	}

	return errors.Join(errs...)
}

// MergeConfigs merges configs in order of increasing precedence.
// Later configs override earlier ones. Non-zero fields override;
// telemetry.enabled can only be switched on by a higher tier.
func MergeConfigs(configs ...*Config) *Config {
	result := &Config{}

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}

		mergeServer(&result.Server, cfg.Server)

		if cfg.Data.TablePath != "" {
			result.Data.TablePath = cfg.Data.TablePath
		}
		if cfg.Data.Sheet != "" {
			result.Data.Sheet = cfg.Data.Sheet
		}
		if cfg.Data.SpoolDir != "" {
			result.Data.SpoolDir = cfg.Data.SpoolDir
		}

		if cfg.Logging.Level != "" {
			result.Logging.Level = cfg.Logging.Level
		}
		if cfg.Logging.Format != "" {
			result.Logging.Format = cfg.Logging.Format
		}

		mergeTelemetry(&result.Telemetry, cfg.Telemetry)
	}

	return result
}

func mergeServer(dst *ServerConfig, src ServerConfig) {
	if src.Addr != "" {
		dst.Addr = src.Addr
	}
	if src.ReadTimeout != 0 {
		dst.ReadTimeout = src.ReadTimeout
	}
	if src.WriteTimeout != 0 {
		dst.WriteTimeout = src.WriteTimeout
	}
	if src.IdleTimeout != 0 {
		dst.IdleTimeout = src.IdleTimeout
	}
	if src.ShutdownTimeout != 0 {
		dst.ShutdownTimeout = src.ShutdownTimeout
	}
	if src.MaxUploadBytes != 0 {
		dst.MaxUploadBytes = src.MaxUploadBytes
	}
	// CORSOrigins: if specified, override completely
	if len(src.CORSOrigins) > 0 {
		dst.CORSOrigins = src.CORSOrigins
	}
}

func mergeTelemetry(dst *TelemetryConfig, src TelemetryConfig) {
	if src.Enabled {
		dst.Enabled = true
	}
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.Protocol != "" {
		dst.Protocol = src.Protocol
	}
	if src.Insecure {
		dst.Insecure = true
	}
	if len(src.Headers) > 0 {
		dst.Headers = src.Headers
	}
	if src.ServiceName != "" {
		dst.ServiceName = src.ServiceName
	}
	if src.ServiceVersion != "" {
		dst.ServiceVersion = src.ServiceVersion
	}
	if src.SampleRate != 0 {
		dst.SampleRate = src.SampleRate
	}
}

// LoadFromFile reads a YAML config file. Returns nil, nil if the file doesn't exist.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadTiered loads system defaults, then machine config, then project config,
// and merges them in order of increasing precedence.
func LoadTiered(machinePath, projectPath string) (*Config, error) {
	system := SystemDefaults()

	machine, err := LoadFromFile(machinePath)
	if err != nil {
		return nil, fmt.Errorf("loading machine config: %w", err)
	}

	project, err := LoadFromFile(projectPath)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return MergeConfigs(system, machine, project), nil
}
