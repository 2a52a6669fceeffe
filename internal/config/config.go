/*
PURPOSE:
  Defines the configuration structure and loading logic for the PFR console.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Allow configuration of the solver URL, request timeout and output location.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - The bounds policy for out-of-range inputs is an operator decision, so it is configurable.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine, internal/server
  - Dependencies: gopkg.in/yaml.v3 (standard for Go config)

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default files fall back to defaults.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults should be sensible (e.g., 60s timeout).

USAGE:
  cfg, err := config.Load("pfr_console.yaml")

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update DefaultConfig().

RELATED FILES:
  - internal/cli/root.go
*/

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/daryltucker/pfr-console/internal/model"
	"github.com/daryltucker/pfr-console/internal/params"
)

// DefaultFiles are searched, in order, when no --config is given.
var DefaultFiles = []string{"pfr_console.yaml", "pfr.yaml"}

// Config represents the full configuration for the PFR console.
type Config struct {
	SolverURL      string        `yaml:"solver_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	OutputDir      string        `yaml:"output_dir"`
	// RunLog is the JSON Lines file (inside OutputDir) that receives a record per run. Empty disables it.
	RunLog       string `yaml:"run_log"`
	BoundsPolicy string `yaml:"bounds_policy"`
	LogLevel     string `yaml:"log_level"`
	ListenAddr   string `yaml:"listen_addr"`
	// AllowAnyOrigin lets pages from other origins open the operator websocket.
	AllowAnyOrigin bool `yaml:"allow_any_origin"`

	InitialParameters model.SimulationParameters `yaml:"initial_parameters"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		SolverURL:         "http://localhost:8000",
		RequestTimeout:    60 * time.Second,
		OutputDir:         ".",
		RunLog:            "pfr_runs.jsonl",
		BoundsPolicy:      string(params.PolicyPass),
		LogLevel:          "info",
		ListenAddr:        ":9000",
		InitialParameters: params.Standard,
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches DefaultFiles in order.
// If no file found, returns default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		found := false
		for _, name := range DefaultFiles {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				found = true
				break
			}
		}
		if !found {
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values that would only fail later, mid-session.
func (c *Config) Validate() error {
	if c.SolverURL == "" {
		return fmt.Errorf("solver_url must not be empty")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	if _, err := params.ParsePolicy(c.BoundsPolicy); err != nil {
		return err
	}
	return nil
}

// Policy returns the parsed bounds policy. Call Validate first.
func (c *Config) Policy() params.Policy {
	p, _ := params.ParsePolicy(c.BoundsPolicy)
	return p
}
