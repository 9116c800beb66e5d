package graphql

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/fermi-controls/extapi-acsys/errors"
)

// Config holds configuration for the GraphQL gateway
type Config struct {
	// BindAddress is the HTTP bind address (default: "127.0.0.1:8000")
	BindAddress string `json:"bind_address"`

	// Path is the GraphQL endpoint path (default: "/acsys")
	Path string `json:"path"`

	// SubscriptionPath is the websocket endpoint for subscriptions (default: "/acsys/s").
	// Upgrade requests on Path are accepted as well.
	SubscriptionPath string `json:"subscription_path"`

	// EnablePlayground serves GraphQL Playground at / (default: true)
	EnablePlayground bool `json:"enable_playground"`

	// EnableCORS enables CORS headers (default: true)
	EnableCORS bool `json:"enable_cors"`

	// CORSOrigins lists allowed CORS origins (default: ["*"])
	CORSOrigins []string `json:"cors_origins,omitempty"`

	// TimeoutStr bounds a deviceInfo query (default: "30s")
	TimeoutStr string `json:"timeout,omitempty"`

	// SnapshotTimeoutStr bounds the acceleratorData query (default: "2s")
	SnapshotTimeoutStr string `json:"snapshot_timeout,omitempty"`

	// MaxQueryDepth limits GraphQL query nesting depth (default: 10)
	MaxQueryDepth int `json:"max_query_depth,omitempty"`

	// MaxComplexity limits the number of fields an operation selects (default: 200)
	MaxComplexity int `json:"max_complexity,omitempty"`

	// KeepAliveStr is the websocket keep-alive and ping interval; "0s" disables both (default: "15s")
	KeepAliveStr string `json:"keep_alive,omitempty"`

	timeout         time.Duration
	snapshotTimeout time.Duration
	keepAlive       time.Duration
}

// Validate fills defaults and ensures the configuration is valid
func (c *Config) Validate() error {
	if c.BindAddress == "" {
		c.BindAddress = "127.0.0.1:8000"
	}
	if _, _, err := net.SplitHostPort(c.BindAddress); err != nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("bind_address %q is not host:port", c.BindAddress))
	}

	if c.Path == "" {
		c.Path = "/acsys"
	}
	if c.SubscriptionPath == "" {
		c.SubscriptionPath = strings.TrimSuffix(c.Path, "/") + "/s"
	}
	for _, p := range []string{c.Path, c.SubscriptionPath} {
		if p[0] != '/' {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"path must start with /")
		}
	}
	if c.Path == c.SubscriptionPath {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"subscription_path must differ from path")
	}

	var err error
	if c.timeout, err = parseDuration(c.TimeoutStr, "timeout", 30*time.Second, 100*time.Millisecond, 5*time.Minute); err != nil {
		return err
	}
	if c.snapshotTimeout, err = parseDuration(c.SnapshotTimeoutStr, "snapshot_timeout", 2*time.Second, 10*time.Millisecond, time.Minute); err != nil {
		return err
	}
	if c.keepAlive, err = parseDuration(c.KeepAliveStr, "keep_alive", 15*time.Second, 0, 10*time.Minute); err != nil {
		return err
	}

	if c.MaxQueryDepth == 0 {
		c.MaxQueryDepth = 10
	}
	if c.MaxQueryDepth < 1 || c.MaxQueryDepth > 50 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"max_query_depth must be between 1 and 50")
	}

	if c.MaxComplexity == 0 {
		c.MaxComplexity = 200
	}
	if c.MaxComplexity < 1 || c.MaxComplexity > 10000 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"max_complexity must be between 1 and 10000")
	}

	if c.EnableCORS && len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}

	return nil
}

func parseDuration(s, name string, def, lo, hi time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.WrapInvalid(err, "Config", "Validate",
			fmt.Sprintf("invalid %s format: %s", name, s))
	}
	if d < lo || d > hi {
		return 0, errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("%s must be between %s and %s", name, lo, hi))
	}
	return d, nil
}

// Timeout returns the parsed deviceInfo query timeout
func (c *Config) Timeout() time.Duration {
	return c.timeout
}

// SnapshotTimeout returns the parsed acceleratorData query timeout
func (c *Config) SnapshotTimeout() time.Duration {
	return c.snapshotTimeout
}

// KeepAlive returns the websocket keep-alive interval, zero when disabled
func (c *Config) KeepAlive() time.Duration {
	return c.keepAlive
}

// DefaultConfig returns default GraphQL gateway configuration
func DefaultConfig() Config {
	return Config{
		BindAddress:        "127.0.0.1:8000",
		Path:               "/acsys",
		SubscriptionPath:   "/acsys/s",
		EnablePlayground:   true,
		EnableCORS:         true,
		CORSOrigins:        []string{"*"},
		TimeoutStr:         "30s",
		SnapshotTimeoutStr: "2s",
		MaxQueryDepth:      10,
		MaxComplexity:      200,
		KeepAliveStr:       "15s",
	}
}
