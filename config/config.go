package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fermi-controls/extapi-acsys/backend"
	"github.com/fermi-controls/extapi-acsys/errors"
	"github.com/fermi-controls/extapi-acsys/gateway/graphql"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "EXTAPI"

// Config represents the complete service configuration
type Config struct {
	Server   graphql.Config `json:"server"`
	Backends backend.Config `json:"backends"`
	Metrics  MetricsConfig  `json:"metrics"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	// Enabled starts the metrics server (default: true)
	Enabled bool `json:"enabled"`

	// Port is the metrics listen port (default: 9090)
	Port int `json:"port"`

	// Path is the metrics endpoint path (default: "/metrics")
	Path string `json:"path"`
}

// Validate fills defaults and checks the port range
func (m *MetricsConfig) Validate() error {
	if m.Port == 0 {
		m.Port = 9090
	}
	if m.Port < 1 || m.Port > 65535 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "MetricsConfig", "Validate",
			fmt.Sprintf("port %d out of range", m.Port))
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
	if m.Path[0] != '/' {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "MetricsConfig", "Validate",
			fmt.Sprintf("path %q must start with /", m.Path))
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Server:   graphql.DefaultConfig(),
		Backends: backend.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// Validate validates every section, filling defaults as it goes
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "server section")
	}
	if err := c.Backends.Validate(); err != nil {
		return errors.WrapInvalid(err, "Config", "Validate", "backends section")
	}
	if c.Metrics.Enabled {
		if err := c.Metrics.Validate(); err != nil {
			return errors.WrapInvalid(err, "Config", "Validate", "metrics section")
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Server.CORSOrigins != nil {
		clone.Server.CORSOrigins = append([]string(nil), c.Server.CORSOrigins...)
	}
	return &clone
}

// String renders the configuration as indented JSON
func (c *Config) String() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.WrapInvalid(err, "Config", "SaveToFile", "marshal config")
	}
	if err := safeWriteFile(path, data); err != nil {
		return errors.WrapTransient(err, "Config", "SaveToFile", "write config")
	}
	return nil
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	loader := NewLoader()
	if path != "" {
		loader.AddLayer(path)
	}
	loader.EnableValidation(true)
	return loader.Load()
}

// FromEnv returns the config path named by EXTAPI_CONFIG, if any
func FromEnv() string {
	return os.Getenv(EnvPrefix + "_CONFIG")
}
