// Package config loads the server configuration from a YAML file with an
// environment overlay for credentials. Every field has a usable default so a
// missing file yields a runnable config (credentials aside).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider names accepted in the model section.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Trigger modes accepted in the cycle section. The two modes are mutually
// exclusive per deployment.
const (
	ModeTimer = "timer"
	ModeEvent = "event"
)

// Memory backend names accepted in the memory section.
const (
	BackendInMemory = "inmemory"
	BackendSQLite   = "sqlite"
)

type Config struct {
	ListenAddr string       `yaml:"listen_addr"`
	World      WorldConfig  `yaml:"world"`
	Cycle      CycleConfig  `yaml:"cycle"`
	Model      ModelConfig  `yaml:"model"`
	Memory     MemoryConfig `yaml:"memory"`
}

type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type CycleConfig struct {
	Mode             string        `yaml:"mode"`
	DecisionInterval time.Duration `yaml:"decision_interval"`
	WindowCapacity   int           `yaml:"window_capacity"`
	MaxDisplacement  float64       `yaml:"max_displacement"`
	MaxMessageChars  int           `yaml:"max_message_chars"`
}

type ModelConfig struct {
	Provider string `yaml:"provider"`
	Name     string `yaml:"name"`

	// Populated from OPENAI_API_KEY / ANTHROPIC_API_KEY, never from the file.
	APIKey string `yaml:"-"`
}

type MemoryConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

func defaults() Config {
	return Config{
		ListenAddr: ":8000",
		World: WorldConfig{
			Width:  1280,
			Height: 1280,
		},
		Cycle: CycleConfig{
			Mode:             ModeTimer,
			DecisionInterval: 30 * time.Second,
			WindowCapacity:   10,
			MaxDisplacement:  300,
			MaxMessageChars:  300,
		},
		Model: ModelConfig{
			Provider: ProviderOpenAI,
		},
		Memory: MemoryConfig{
			Backend: BackendInMemory,
			Path:    "tinyworld.db",
		},
	}
}

// Load reads the config at path, applies the environment overlay and
// validates the result. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	switch c.Model.Provider {
	case ProviderAnthropic:
		c.Model.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	default:
		c.Model.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world bounds must be > 0")
	}
	switch c.Cycle.Mode {
	case ModeTimer, ModeEvent:
	default:
		return fmt.Errorf("unknown cycle mode: %q", c.Cycle.Mode)
	}
	if c.Cycle.DecisionInterval <= 0 {
		return fmt.Errorf("cycle decision_interval must be > 0")
	}
	if c.Cycle.WindowCapacity <= 0 {
		return fmt.Errorf("cycle window_capacity must be > 0")
	}
	if c.Cycle.MaxDisplacement <= 0 {
		return fmt.Errorf("cycle max_displacement must be > 0")
	}
	if c.Cycle.MaxMessageChars <= 0 {
		return fmt.Errorf("cycle max_message_chars must be > 0")
	}
	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown model provider: %q", c.Model.Provider)
	}
	switch c.Memory.Backend {
	case BackendInMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.Memory.Path) == "" {
			return fmt.Errorf("memory path required for sqlite backend")
		}
	default:
		return fmt.Errorf("unknown memory backend: %q", c.Memory.Backend)
	}
	return nil
}

// RequireCredential fails when the configured provider has no API key. Called
// at startup so a misconfigured server dies immediately instead of emitting
// fallback reflections forever.
func (c Config) RequireCredential() error {
	if strings.TrimSpace(c.Model.APIKey) != "" {
		return nil
	}
	switch c.Model.Provider {
	case ProviderAnthropic:
		return fmt.Errorf("ANTHROPIC_API_KEY is not set")
	default:
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}
}
