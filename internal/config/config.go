package config

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dshills/keyrelay/internal/channel"
	"github.com/dshills/keyrelay/internal/framework"
	"github.com/dshills/keyrelay/internal/input/responder"
	"github.com/dshills/keyrelay/internal/logging"
)

// Config holds every keyrelay setting.
type Config struct {
	Logging   LoggingConfig   `toml:"logging" yaml:"logging"`
	Input     InputConfig     `toml:"input" yaml:"input"`
	Channel   ChannelConfig   `toml:"channel" yaml:"channel"`
	Framework FrameworkConfig `toml:"framework" yaml:"framework"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// InputConfig configures the input pipeline.
type InputConfig struct {
	// MaxPendingEvents is the ledger depth above which every new event
	// logs a warning.
	MaxPendingEvents int `toml:"max_pending_events" yaml:"max_pending_events"`

	// DeadKeys lists the characters the terminal treats as dead-key
	// accents. Each entry is a single character.
	DeadKeys []string `toml:"dead_keys" yaml:"dead_keys"`
}

// ChannelConfig configures the key event channel.
type ChannelConfig struct {
	Name   string `toml:"name" yaml:"name"`
	Keymap string `toml:"keymap" yaml:"keymap"`
}

// FrameworkConfig configures the Lua runtime.
type FrameworkConfig struct {
	// Script is the Lua file to load. Empty selects the built-in script.
	Script string `toml:"script" yaml:"script"`

	// Watch reloads Script when it changes on disk.
	Watch bool `toml:"watch" yaml:"watch"`

	// QueueSize bounds the executor queue.
	QueueSize int `toml:"queue_size" yaml:"queue_size"`

	// CallTimeoutMS bounds a single on_key call. Zero disables the bound.
	CallTimeoutMS int `toml:"call_timeout_ms" yaml:"call_timeout_ms"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Input: InputConfig{
			MaxPendingEvents: responder.DefaultMaxPendingEvents,
		},
		Channel: ChannelConfig{
			Name:   channel.DefaultName,
			Keymap: channel.DefaultKeymap,
		},
		Framework: FrameworkConfig{
			QueueSize:     framework.DefaultQueueSize,
			CallTimeoutMS: int(framework.DefaultCallTimeout / time.Millisecond),
		},
	}
}

// LogLevel returns the parsed logging level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}

// CallTimeout returns the on_key call bound.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Framework.CallTimeoutMS) * time.Millisecond
}

// DeadKeyRunes returns the configured dead keys. Validate must have
// accepted the configuration.
func (c *Config) DeadKeyRunes() []rune {
	runes := make([]rune, 0, len(c.Input.DeadKeys))
	for _, s := range c.Input.DeadKeys {
		r, _ := utf8.DecodeRuneInString(s)
		runes = append(runes, r)
	}
	return runes
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return &ValidationError{Path: "logging.level", Message: "unknown level", Value: c.Logging.Level}
	}
	if c.Input.MaxPendingEvents <= 0 {
		return &ValidationError{Path: "input.max_pending_events", Message: "must be positive", Value: c.Input.MaxPendingEvents}
	}
	for i, s := range c.Input.DeadKeys {
		if utf8.RuneCountInString(s) != 1 {
			return &ValidationError{
				Path:    fmt.Sprintf("input.dead_keys[%d]", i),
				Message: "must be a single character",
				Value:   s,
			}
		}
	}
	if c.Channel.Name == "" {
		return &ValidationError{Path: "channel.name", Message: "must not be empty", Value: c.Channel.Name}
	}
	if c.Channel.Keymap == "" {
		return &ValidationError{Path: "channel.keymap", Message: "must not be empty", Value: c.Channel.Keymap}
	}
	if c.Framework.QueueSize <= 0 {
		return &ValidationError{Path: "framework.queue_size", Message: "must be positive", Value: c.Framework.QueueSize}
	}
	if c.Framework.CallTimeoutMS < 0 {
		return &ValidationError{Path: "framework.call_timeout_ms", Message: "must not be negative", Value: c.Framework.CallTimeoutMS}
	}
	return nil
}
