// Package config loads keyrelay settings.
//
// Settings come from three places, later ones winning:
//
//  1. built-in defaults
//  2. a configuration file, TOML or YAML chosen by extension
//  3. KEYRELAY_* environment variables
//
// Command line flags are applied by the caller on top of the result.
//
// A minimal TOML file:
//
//	[logging]
//	level = "debug"
//
//	[input]
//	max_pending_events = 500
//	dead_keys = ["^", "´"]
//
//	[framework]
//	script = "~/.config/keyrelay/keys.lua"
//	watch = true
package config
