package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "KEYRELAY_"

// LookupFunc reads an environment variable, like os.LookupEnv.
type LookupFunc func(name string) (string, bool)

// envSetters maps environment variables to the setting they override.
var envSetters = map[string]func(c *Config, v string) error{
	EnvPrefix + "LOG_LEVEL": func(c *Config, v string) error {
		c.Logging.Level = v
		return nil
	},
	EnvPrefix + "MAX_PENDING_EVENTS": func(c *Config, v string) error {
		return setInt(&c.Input.MaxPendingEvents, v)
	},
	EnvPrefix + "DEAD_KEYS": func(c *Config, v string) error {
		c.Input.DeadKeys = splitChars(v)
		return nil
	},
	EnvPrefix + "CHANNEL": func(c *Config, v string) error {
		c.Channel.Name = v
		return nil
	},
	EnvPrefix + "KEYMAP": func(c *Config, v string) error {
		c.Channel.Keymap = v
		return nil
	},
	EnvPrefix + "FRAMEWORK_SCRIPT": func(c *Config, v string) error {
		c.Framework.Script = v
		return nil
	},
	EnvPrefix + "FRAMEWORK_WATCH": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Framework.Watch = b
		return nil
	},
	EnvPrefix + "FRAMEWORK_QUEUE_SIZE": func(c *Config, v string) error {
		return setInt(&c.Framework.QueueSize, v)
	},
	EnvPrefix + "FRAMEWORK_CALL_TIMEOUT_MS": func(c *Config, v string) error {
		return setInt(&c.Framework.CallTimeoutMS, v)
	},
}

// EnvVars returns the recognized environment variables, sorted.
func EnvVars() []string {
	names := make([]string, 0, len(envSetters))
	for name := range envSetters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyEnv overlays environment overrides read through lookup.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	for name, set := range envSetters {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := set(c, v); err != nil {
			return fmt.Errorf("environment %s=%q: %w", name, v, err)
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

// splitChars turns "^´`" or "^,´,`" into one entry per character.
func splitChars(v string) []string {
	var out []string
	for _, r := range v {
		if r == ',' || r == ' ' {
			continue
		}
		out = append(out, string(r))
	}
	return out
}
