// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/coinselect/codec"
	"github.com/blinklabs-io/coinselect/selection"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "coinselect.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultApiPort         = 8090
	DefaultMetricsPort     = 12799
	DefaultDataDir         = ".coinselect"

	envPrefix = "coinselect"
)

var ErrInvalidConfig = errors.New("invalid config")

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config yaml.Node `yaml:"config,omitempty"`
}

type Config struct {
	BindAddr        string `yaml:"bindAddr"        split_words:"true"`
	DataDir         string `yaml:"dataDir"         split_words:"true"`
	Codec           string `yaml:"codec"`
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
	TracingEndpoint string `yaml:"tracingEndpoint" split_words:"true"`
	CoinsPerByte    uint64 `yaml:"coinsPerByte"    split_words:"true"`
	ApiPort         uint   `yaml:"apiPort"         split_words:"true"`
	// Zero disables the metrics listener
	MetricsPort   uint `yaml:"metricsPort"   split_words:"true"`
	Journal       bool `yaml:"journal"`
	Tracing       bool `yaml:"tracing"`
	TracingStdout bool `yaml:"tracingStdout" split_words:"true"`
	LogPanics     bool `yaml:"logPanics"     split_words:"true"`
	IncludeStack  bool `yaml:"includeStack"  split_words:"true"`
	Debug         bool `yaml:"debug"`
}

// DefaultConfig returns a config populated with defaults
func DefaultConfig() *Config {
	return &Config{
		BindAddr:        "0.0.0.0",
		DataDir:         DefaultDataDir,
		Codec:           codec.NameLedger,
		ShutdownTimeout: DefaultShutdownTimeout,
		CoinsPerByte:    selection.DefaultCoinsPerByte,
		ApiPort:         DefaultApiPort,
		MetricsPort:     DefaultMetricsPort,
		Journal:         true,
		LogPanics:       true,
	}
}

// ApiListenAddress is the host:port the API server binds
func (c *Config) ApiListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.ApiPort)
}

// MetricsListenAddress is the host:port the metrics server binds
func (c *Config) MetricsListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.MetricsPort)
}

// ShutdownTimeoutDuration parses ShutdownTimeout, falling back to the default
// when unset
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	timeout := c.ShutdownTimeout
	if timeout == "" {
		timeout = DefaultShutdownTimeout
	}
	ret, err := time.ParseDuration(timeout)
	if err != nil {
		return 0, fmt.Errorf("%w: shutdownTimeout: %w", ErrInvalidConfig, err)
	}
	if ret <= 0 {
		return 0, fmt.Errorf(
			"%w: shutdownTimeout must be positive: %s",
			ErrInvalidConfig,
			timeout,
		)
	}
	return ret, nil
}

// Validate checks values that cannot be checked while parsing
func (c *Config) Validate() error {
	if _, err := codec.New(c.Codec); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.CoinsPerByte == 0 {
		return fmt.Errorf("%w: coinsPerByte must be non-zero", ErrInvalidConfig)
	}
	if c.ApiPort > 65535 || c.MetricsPort > 65535 {
		return fmt.Errorf("%w: port out of range", ErrInvalidConfig)
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// findConfigFile returns the first of ~/.coinselect/coinselect.yaml and
// /etc/coinselect/coinselect.yaml that exists
func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".coinselect", "coinselect.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/coinselect/coinselect.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

// LoadConfig builds the config from defaults, then the YAML file, then
// COINSELECT_* environment variables. An empty configFile searches the
// default locations
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		var tempCfg tempConfig
		if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
		if tempCfg.Config.Kind != 0 {
			// Overlay the config section onto the defaults
			if err := tempCfg.Config.Decode(cfg); err != nil {
				return nil, fmt.Errorf("error parsing config section: %w", err)
			}
		} else if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
