// Package config loads callmap settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"callmap/internal/project"
	"callmap/internal/scanner"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = ".callmap.yaml"

// Config holds all settings.
type Config struct {
	Language         string      `yaml:"language"`
	Output           string      `yaml:"output"`
	RespectGitignore *bool       `yaml:"respect_gitignore"`
	Exclude          []string    `yaml:"exclude"`
	SQLite           string      `yaml:"sqlite"`
	MetricsAddr      string      `yaml:"metrics_addr"`
	Watch            WatchConfig `yaml:"watch"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Load reads path (or DefaultFile if path is empty and it exists), applies
// environment overrides and fills defaults. A .env file in the working
// directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
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
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CALLMAP_LANGUAGE"); v != "" {
		c.Language = v
	}
	if v := os.Getenv("CALLMAP_OUTPUT"); v != "" {
		c.Output = v
	}
	if v := os.Getenv("CALLMAP_SQLITE"); v != "" {
		c.SQLite = v
	}
	if v := os.Getenv("CALLMAP_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
}

func (c *Config) applyDefaults() {
	if c.Language == "" {
		c.Language = "python"
	}
	if c.Output == "" {
		c.Output = "graph.dot"
	}
	if c.RespectGitignore == nil {
		respect := true
		c.RespectGitignore = &respect
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = 300 * time.Millisecond
	}
}

// Validate checks that the configured language is supported.
func (c *Config) Validate() error {
	if _, err := scanner.Lookup(c.Language); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("invalid config: watch.debounce must not be negative")
	}
	return nil
}

// ProjectOptions converts the config into discovery options.
func (c *Config) ProjectOptions() (project.Options, error) {
	lang, err := scanner.Lookup(c.Language)
	if err != nil {
		return project.Options{}, err
	}
	return project.Options{
		Language:         lang,
		RespectGitignore: c.RespectGitignore == nil || *c.RespectGitignore,
		Exclude:          c.Exclude,
	}, nil
}
