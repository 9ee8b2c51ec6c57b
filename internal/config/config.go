// Package config loads service configuration from an optional YAML file
// with environment variable overrides. Flags parsed in main take final
// precedence over both.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for the backtest-lab server.
type Config struct {
	Server  Server  `yaml:"server"`
	OKX     OKX     `yaml:"okx"`
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
}

// Server holds network listener configuration.
type Server struct {
	Addr string `yaml:"addr"`
}

// OKX holds the market data provider endpoint settings.
type OKX struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Storage selects the persistence backends. With UseMemory set, the DSNs
// are ignored and everything runs in-process.
type Storage struct {
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"`
	UseMemory     bool   `yaml:"use_memory"`
}

// Logging configures request logging.
type Logging struct {
	Requests bool `yaml:"requests"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:  Server{Addr: ":8000"},
		OKX:     OKX{BaseURL: "https://www.okx.com", Timeout: 30 * time.Second},
		Storage: Storage{UseMemory: true},
		Logging: Logging{Requests: true},
	}
}

// Load reads the YAML configuration file at path over the defaults, then
// applies environment variable overrides. An empty path yields defaults
// plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides file values from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("BACKTEST_LAB_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("OKX_BASE_URL"); v != "" {
		c.OKX.BaseURL = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Storage.PostgresDSN = v
		c.Storage.UseMemory = false
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		c.Storage.ClickhouseDSN = v
		c.Storage.UseMemory = false
	}
}
