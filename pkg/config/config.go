// Package config loads and validates the server configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is everything the server needs at startup. It is loaded once;
// after Load returns, nothing mutates it.
type Config struct {
	Name              string   `yaml:"name"`
	Version           string   `yaml:"version"`
	Description       string   `yaml:"description"`
	SandboxPath       string   `yaml:"sandbox_path"`
	MaxFileSize       int64    `yaml:"max_file_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	ReadOnly          bool     `yaml:"read_only"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Gateway GatewayConfig `yaml:"gateway"`
	HTTP    HTTPConfig    `yaml:"http"`
}

type GatewayConfig struct {
	Address      string   `yaml:"address"`
	MaxSessions  int      `yaml:"max_sessions"`
	AllowedAddrs []string `yaml:"allowed_addrs"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
	Token   string `yaml:"token"`
}

// Load reads the configuration file, applies environment overrides and
// validates the result. Any missing or malformed field is an error; the
// caller treats that as fatal before serving begins.
func Load(path string) (*Config, error) {
	cfg := &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Gateway:   GatewayConfig{Address: "127.0.0.1:8750"},
		HTTP:      HTTPConfig{Address: "127.0.0.1:8751"},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("CAGEFS_SANDBOX_PATH"); v != "" {
		cfg.SandboxPath = v
	}
	if v := os.Getenv("CAGEFS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CAGEFS_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("config: name is required")
	}
	if c.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	if c.Description == "" {
		return fmt.Errorf("config: description is required")
	}
	if c.SandboxPath == "" {
		return fmt.Errorf("config: sandbox_path is required")
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("config: max_file_size must be positive")
	}
	for _, ext := range c.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("config: allowed extension %q must include its leading dot", ext)
		}
	}
	return nil
}

// DefaultPath returns the config file location: the CAGEFS_CONFIG
// environment variable, or config.yaml in the working directory.
func DefaultPath() string {
	if path := os.Getenv("CAGEFS_CONFIG"); path != "" {
		return path
	}
	return "config.yaml"
}
