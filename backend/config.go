package backend

import (
	"fmt"
	"net"
	"time"

	"github.com/fermi-controls/extapi-acsys/errors"
)

// Default service endpoints
const (
	DefaultDPMAddress   = "dce46.fnal.gov:50051"
	DefaultDevDBAddress = "clx76.fnal.gov:6802"
	DefaultClockAddress = "clx76.fnal.gov:6803"
)

// Config holds the backend endpoint configuration
type Config struct {
	// DPM is the host:port of the data pool manager
	DPM string `json:"dpm"`

	// DevDB is the host:port of the device database service
	DevDB string `json:"devdb"`

	// Clock is the host:port of the clock event service
	Clock string `json:"clock"`

	// ConnectTimeoutStr bounds each connection attempt (default: "5s")
	ConnectTimeoutStr string `json:"connect_timeout,omitempty"`

	connectTimeout time.Duration
}

// DefaultConfig returns the production endpoints
func DefaultConfig() Config {
	return Config{
		DPM:               DefaultDPMAddress,
		DevDB:             DefaultDevDBAddress,
		Clock:             DefaultClockAddress,
		ConnectTimeoutStr: "5s",
	}
}

// Validate fills defaults and checks that every endpoint is host:port
func (c *Config) Validate() error {
	if c.DPM == "" {
		c.DPM = DefaultDPMAddress
	}
	if c.DevDB == "" {
		c.DevDB = DefaultDevDBAddress
	}
	if c.Clock == "" {
		c.Clock = DefaultClockAddress
	}

	for name, addr := range map[string]string{"dpm": c.DPM, "devdb": c.DevDB, "clock": c.Clock} {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("%s endpoint %q is not host:port", name, addr))
		}
	}

	if c.ConnectTimeoutStr == "" {
		c.connectTimeout = 5 * time.Second
		return nil
	}
	timeout, err := time.ParseDuration(c.ConnectTimeoutStr)
	if err != nil {
		return errors.WrapInvalid(err, "Config", "Validate",
			fmt.Sprintf("invalid connect_timeout format: %s", c.ConnectTimeoutStr))
	}
	if timeout < 100*time.Millisecond || timeout > time.Minute {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"connect_timeout must be between 100ms and 1m")
	}
	c.connectTimeout = timeout
	return nil
}

// ConnectTimeout returns the parsed connect timeout
func (c *Config) ConnectTimeout() time.Duration {
	if c.connectTimeout == 0 {
		return 5 * time.Second
	}
	return c.connectTimeout
}
