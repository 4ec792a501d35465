// Package config loads the engine configuration: builder limits, default
// strategies, logging and metrics.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
)

// Config is the engine configuration.
type Config struct {
	Conversation ConversationConfig `yaml:"conversation"`
	Bullets      BulletsConfig      `yaml:"bullets"`
	Codeblock    CodeblockConfig    `yaml:"codeblock"`
	Defaults     DefaultsConfig     `yaml:"defaults"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// ConversationConfig bounds conversational slides.
type ConversationConfig struct {
	MinTurns           int     `yaml:"min_turns"`
	MaxTurns           int     `yaml:"max_turns"`
	MaxTurnChars       int     `yaml:"max_turn_chars"`       // Mobile-legible bound
	MaxCodeLines       int     `yaml:"max_code_lines"`       // Per attached excerpt
	ReadingRate        float64 `yaml:"reading_rate_seconds_per_char"`
	MinDurationSeconds float64 `yaml:"min_duration_seconds"`
	MaxDurationSeconds float64 `yaml:"max_duration_seconds"`
}

// BulletsConfig bounds bullet-list slides.
type BulletsConfig struct {
	MaxItems     int `yaml:"max_items"`
	MaxItemChars int `yaml:"max_item_chars"`
	MaxDepth     int `yaml:"max_depth"`
}

// CodeblockConfig bounds code excerpt slides.
type CodeblockConfig struct {
	MaxLines         int      `yaml:"max_lines"`
	AllowedLanguages []string `yaml:"allowed_languages"` // Empty allows any
}

// DefaultsConfig names the strategies used when a tenant declares none.
type DefaultsConfig struct {
	Style  string `yaml:"style"`
	Layout string `yaml:"layout"`
}

// MetricsConfig toggles the Prometheus recorder.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Conversation: ConversationConfig{
			MinTurns:           2,
			MaxTurns:           12,
			MaxTurnChars:       280,
			MaxCodeLines:       15,
			ReadingRate:        0.05,
			MinDurationSeconds: 0,
			MaxDurationSeconds: 90,
		},
		Bullets:   BulletsConfig{MaxItems: 6, MaxItemChars: 120, MaxDepth: 2},
		Codeblock: CodeblockConfig{MaxLines: 25},
		Defaults:  DefaultsConfig{Style: "minimal", Layout: "standard"},
		Logging:   LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Metrics:   MetricsConfig{Namespace: "slidebuilder"},
	}
}

// Parse decodes YAML over the defaults. ${VAR} references are expanded from
// the environment first.
func Parse(data []byte) (*Config, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a configuration file. Variables from .env/.env.local are loaded
// first (the existing environment wins) and SLIDEBUILDER_* overrides are
// applied after decoding. A malformed env file fails the load.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte) (*Config, error) {
	cfg := Default()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Build()
	}
	return cfg, nil
}

func (c *Config) finish() error {
	if err := c.normalize(); err != nil {
		return err
	}
	return c.Validate()
}

func (c *Config) normalize() error {
	c.Defaults.Style = strings.TrimSpace(c.Defaults.Style)
	c.Defaults.Layout = strings.TrimSpace(c.Defaults.Layout)
	c.Metrics.Namespace = strings.TrimSpace(c.Metrics.Namespace)

	langs := make([]string, 0, len(c.Codeblock.AllowedLanguages))
	for _, l := range c.Codeblock.AllowedLanguages {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" && !slices.Contains(langs, l) {
			langs = append(langs, l)
		}
	}
	c.Codeblock.AllowedLanguages = langs

	return c.Logging.normalize()
}

// Validate checks bounds and required values.
func (c *Config) Validate() error {
	conv := c.Conversation
	switch {
	case conv.MinTurns < 1:
		return invalid("conversation.min_turns must be at least 1")
	case conv.MaxTurns < conv.MinTurns:
		return invalid("conversation.max_turns must not be below min_turns")
	case conv.MaxTurnChars < 1:
		return invalid("conversation.max_turn_chars must be positive")
	case conv.MaxCodeLines < 1:
		return invalid("conversation.max_code_lines must be positive")
	case conv.ReadingRate < 0:
		return invalid("conversation.reading_rate_seconds_per_char must not be negative")
	case conv.MinDurationSeconds < 0:
		return invalid("conversation.min_duration_seconds must not be negative")
	case conv.MaxDurationSeconds < conv.MinDurationSeconds:
		return invalid("conversation.max_duration_seconds must not be below min_duration_seconds")
	}
	if c.Bullets.MaxItems < 1 || c.Bullets.MaxItemChars < 1 || c.Bullets.MaxDepth < 1 {
		return invalid("bullets limits must be positive")
	}
	if c.Codeblock.MaxLines < 1 {
		return invalid("codeblock.max_lines must be positive")
	}
	if c.Defaults.Style == "" || c.Defaults.Layout == "" {
		return invalid("defaults.style and defaults.layout are required")
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return invalid("metrics.namespace is required when metrics are enabled")
	}
	return nil
}

func invalid(msg string) error {
	return errors.ConfigError(msg).Build()
}
