// Package config loads the optional project configuration from config.yml
// under the project base directory.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veriflow/veriflowcc/internal/model"
)

// GatingMode controls how a sprint reacts to a failed stage.
const (
	GatingHard = "hard" // halt the sprint on any non-success stage
	GatingSoft = "soft" // record the failure and continue
)

// Config is the top-level structure parsed from config.yml.
type Config struct {
	VModel VModel                   `yaml:"v_model"`
	Agents map[string]AgentOverride `yaml:"agents"`
}

// VModel holds pipeline-level settings.
type VModel struct {
	GatingMode string `yaml:"gating_mode"`
}

// AgentOverride holds per-agent model call overrides. Zero values leave the
// agent's defaults in place.
type AgentOverride struct {
	Model      string `yaml:"model"`
	MaxTokens  int    `yaml:"max_tokens"`
	Timeout    string `yaml:"timeout"`
	MaxRetries int    `yaml:"max_retries"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		VModel: VModel{GatingMode: GatingHard},
		Agents: map[string]AgentOverride{},
	}
}

// Load reads and parses a config file. A missing file is not an error: the
// defaults are returned. A present but malformed file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills in pipeline-level defaults for fields the file omits and
// normalizes the gating mode.
func applyDefaults(cfg *Config) {
	if cfg.VModel.GatingMode != GatingSoft {
		cfg.VModel.GatingMode = GatingHard
	}
	if cfg.Agents == nil {
		cfg.Agents = map[string]AgentOverride{}
	}
}

// OptionsFor merges the override for agentKey into base. Unset override fields
// leave the base value untouched.
func (c *Config) OptionsFor(agentKey string, base model.Options) model.Options {
	ov, ok := c.Agents[agentKey]
	if !ok {
		return base
	}
	if ov.Model != "" {
		base.Model = ov.Model
	}
	if ov.MaxTokens > 0 {
		base.MaxTokens = ov.MaxTokens
	}
	if ov.MaxRetries > 0 {
		base.MaxRetries = ov.MaxRetries
	}
	if ov.Timeout != "" {
		if d, err := time.ParseDuration(ov.Timeout); err == nil {
			base.Timeout = d
		}
	}
	return base
}
