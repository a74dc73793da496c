// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the tuning file lives when neither the bootstrap
// file nor NODE_PROXY_CONFIG names one.
const DefaultPath = "/etc/ceph/node-proxy.yml"

// Components lists every health component the daemon knows how to
// collect, in the order they are collected by default.
var Components = []string{"memory", "power", "fans", "network", "processors", "storage", "firmwares"}

// Config is the daemon's tuning configuration.
type Config struct {
	System     SystemConfig     `yaml:"system"`
	Reporter   ReporterConfig   `yaml:"reporter"`
	API        APIConfig        `yaml:"api"`
	Logging    LoggingConfig    `yaml:"logging"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
}

// SystemConfig selects the vendor implementation and drives the
// collection loop.
type SystemConfig struct {
	// Vendor is a registry name: generic, dell, atollon, or anything
	// registered at startup. Unknown names fall back to generic.
	Vendor string `yaml:"vendor"`

	// RefreshInterval is the pause between update cycles.
	RefreshInterval Seconds `yaml:"refresh_interval"`

	// Components restricts collection to a subset of [Components].
	Components []string `yaml:"components"`

	// RequestTimeout bounds each controller request.
	RequestTimeout Seconds `yaml:"request_timeout"`
}

// ReporterConfig drives change detection and delivery.
type ReporterConfig struct {
	CheckInterval      Seconds `yaml:"check_interval"`
	PushDataMaxRetries int     `yaml:"push_data_max_retries"`
	RetryDelay         Seconds `yaml:"retry_delay"`
	HeartbeatInterval  Seconds `yaml:"heartbeat_interval"`
}

// APIConfig configures the command API listener.
type APIConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level Level `yaml:"level"`

	// Format is "auto" (text on a terminal, JSON otherwise), "text",
	// or "json".
	Format string `yaml:"format"`
}

// SupervisorConfig drives the liveness loop's exponential backoff.
type SupervisorConfig struct {
	MinInterval       Seconds `yaml:"min_interval"`
	MaxInterval       Seconds `yaml:"max_interval"`
	BackoffFactor     float64 `yaml:"backoff_factor"`
	HeartbeatInterval Seconds `yaml:"heartbeat_interval"`
}

// Default returns the configuration used for every key the tuning file
// leaves unset.
func Default() *Config {
	return &Config{
		System: SystemConfig{
			Vendor:          "generic",
			RefreshInterval: Seconds(20 * time.Second),
			Components:      slices.Clone(Components),
			RequestTimeout:  Seconds(30 * time.Second),
		},
		Reporter: ReporterConfig{
			CheckInterval:      Seconds(5 * time.Second),
			PushDataMaxRetries: 30,
			RetryDelay:         Seconds(5 * time.Second),
			HeartbeatInterval:  Seconds(300 * time.Second),
		},
		API: APIConfig{Port: 9456},
		Logging: LoggingConfig{
			Level:  LevelInfo,
			Format: "auto",
		},
		Supervisor: SupervisorConfig{
			MinInterval:       Seconds(20 * time.Second),
			MaxInterval:       Seconds(300 * time.Second),
			BackoffFactor:     1.5,
			HeartbeatInterval: Seconds(300 * time.Second),
		},
	}
}

// Error reports an unreadable, unparsable, or invalid configuration
// input. It is fatal at startup.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// LoadFile reads the tuning file at path over [Default]. A missing
// file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	if c.System.Vendor == "" {
		errs = append(errs, errors.New("system.vendor is required"))
	}
	if c.System.RefreshInterval <= 0 {
		errs = append(errs, errors.New("system.refresh_interval must be positive"))
	}
	if c.System.RequestTimeout <= 0 {
		errs = append(errs, errors.New("system.request_timeout must be positive"))
	}
	for _, name := range c.System.Components {
		if !slices.Contains(Components, name) {
			errs = append(errs, fmt.Errorf("system.components: unknown component %q (known: %v)", name, Components))
		}
	}

	if c.Reporter.CheckInterval <= 0 {
		errs = append(errs, errors.New("reporter.check_interval must be positive"))
	}
	if c.Reporter.PushDataMaxRetries < 1 {
		errs = append(errs, errors.New("reporter.push_data_max_retries must be at least 1"))
	}
	if c.Reporter.RetryDelay < 0 {
		errs = append(errs, errors.New("reporter.retry_delay must not be negative"))
	}
	if c.Reporter.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("reporter.heartbeat_interval must be positive"))
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, fmt.Errorf("api.port %d out of range", c.API.Port))
	}

	switch c.Logging.Format {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be one of auto, text, json; got %q", c.Logging.Format))
	}

	s := c.Supervisor
	if s.MinInterval <= 0 {
		errs = append(errs, errors.New("supervisor.min_interval must be positive"))
	}
	if s.MaxInterval < s.MinInterval {
		errs = append(errs, errors.New("supervisor.max_interval must not be below min_interval"))
	}
	if s.BackoffFactor < 1 {
		errs = append(errs, errors.New("supervisor.backoff_factor must be at least 1"))
	}
	if s.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("supervisor.heartbeat_interval must be positive"))
	}

	return errors.Join(errs...)
}
