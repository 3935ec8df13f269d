// Package config loads and hot-reloads the single Config document that
// drives every component's tunables (spec.md §4.13), mirroring hector's
// config.Config/config.Validate layering.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/arcflow/substrate/internal/valueobjects"
)

// ToolConfig is the tool engine's directory and hot-reload tunables
// (spec.md §4.5).
type ToolConfig struct {
	Directory  string `yaml:"directory"`
	HotReload  bool   `yaml:"hot_reload"`
	Concurrency int   `yaml:"concurrency"`
}

// CanvasConfig is the fabric's reliability tunables (spec.md §4.10).
type CanvasConfig struct {
	AckTimeoutSeconds int `yaml:"ack_timeout_seconds"`
	MaxRetries        int `yaml:"max_retries"`
	DedupRingSize     int `yaml:"dedup_ring_size"`
}

// SchedulerConfig is the lifecycle manager's admission quotas (spec.md §4.9).
type SchedulerConfig struct {
	Policy              valueobjects.SchedulerPolicy `yaml:"policy"`
	MaxConcurrentAgents int                          `yaml:"max_concurrent_agents"`
	MaxCPUCores         float64                      `yaml:"max_cpu_cores"`
	MaxMemoryMB         int                          `yaml:"max_memory_mb"`
	MaxGPUMemMB         int                          `yaml:"max_gpu_mem_mb"`
}

// LMConfig selects and configures the language-model client (spec.md §4.3,
// §6). APIKey/BaseURL come from the environment, not this file, per
// spec.md's "the two environment variables named in §6".
type LMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "genai"
	Model    string `yaml:"model"`
}

// RepositoryConfig selects the persistence backend for workflows/tools
// (spec.md §4.13's domain-stack wiring).
type RepositoryConfig struct {
	Driver string `yaml:"driver"` // "mysql" or "etcd"
	DSN    string `yaml:"dsn"`
}

// Config is the single document this package loads (spec.md §4.13).
type Config struct {
	Tool       ToolConfig       `yaml:"tool"`
	Canvas     CanvasConfig     `yaml:"canvas"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	LM         LMConfig         `yaml:"lm"`
	Repository RepositoryConfig `yaml:"repository"`
}

// Load reads and parses the YAML document at path, matching hector's
// config.Load behavior of reading the whole file before unmarshalling.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrInvalidRequest, fmt.Errorf("read config %q: %w", path, err))
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, valueobjects.Wrap(valueobjects.ErrParse, fmt.Errorf("parse config %q: %w", path, err))
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Canvas.AckTimeoutSeconds == 0 {
		c.Canvas.AckTimeoutSeconds = 5
	}
	if c.Canvas.MaxRetries == 0 {
		c.Canvas.MaxRetries = 3
	}
	if c.Canvas.DedupRingSize == 0 {
		c.Canvas.DedupRingSize = 1000
	}
	if c.Scheduler.Policy == "" {
		c.Scheduler.Policy = valueobjects.PolicyFIFO
	}
	if c.Tool.Concurrency == 0 {
		c.Tool.Concurrency = 4
	}
}

// Validate collects every configuration problem rather than stopping at
// the first, matching hector's config.Validate chain-of-errors convention
// (spec.md §4.2's "collect into a slice" behavior generalized here).
func (c *Config) Validate() error {
	var problems []string
	if c.Tool.Directory == "" {
		problems = append(problems, "tool.directory is required")
	}
	if c.Scheduler.MaxConcurrentAgents < 0 {
		problems = append(problems, "scheduler.max_concurrent_agents must be >= 0")
	}
	if c.LM.Provider != "" && c.LM.Provider != "openai" && c.LM.Provider != "genai" {
		problems = append(problems, fmt.Sprintf("lm.provider %q is not one of openai, genai", c.LM.Provider))
	}
	if c.Repository.Driver != "" && c.Repository.Driver != "mysql" && c.Repository.Driver != "etcd" {
		problems = append(problems, fmt.Sprintf("repository.driver %q is not one of mysql, etcd", c.Repository.Driver))
	}
	if len(problems) == 0 {
		return nil
	}
	return valueobjects.Wrap(valueobjects.ErrValidation, fmt.Errorf("%d config problem(s): %v", len(problems), problems))
}
