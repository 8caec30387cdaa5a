// Package config loads the ambient settings for the wezmux command
// binaries. The core mux/domain/tab packages never read files or
// environment variables themselves; a Config value is constructed once
// at startup and handed down explicitly.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the settings a cmd/ binary needs to assemble a Mux.
type Config struct {
	// Listen is the address the server binds, e.g. "unix:///tmp/wezmux.sock"
	// or "tcp://127.0.0.1:4242".
	Listen string `yaml:"listen,omitempty"`

	// Shell is the default program LocalDomain spawns when a Spawn
	// request carries no explicit command.
	Shell string `yaml:"shell,omitempty"`

	// ScrollbackLines bounds the terminal's retained scrollback.
	ScrollbackLines int `yaml:"scrollback_lines,omitempty"`

	// GUIChannelCapacity is the bounded channel size for cross-thread
	// work submitted to the GUI executor (spec default: 12).
	GUIChannelCapacity int `yaml:"gui_channel_capacity,omitempty"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level,omitempty"`

	// LogFile, if set, additionally writes log output there.
	LogFile string `yaml:"log_file,omitempty"`
}

// Default returns the built-in settings used when no config file is present.
func Default() *Config {
	return &Config{
		Listen:             "unix:///tmp/wezmux.sock",
		Shell:              defaultShell(),
		ScrollbackLines:    3500,
		GUIChannelCapacity: 12,
		LogLevel:           "info",
	}
}

func defaultShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh
	}
	return "/bin/sh"
}

// Load reads a YAML config file at path, falling back to Default() values
// for any field left unset. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	merge(cfg, loaded)
	return cfg, nil
}

func merge(base, override *Config) {
	if override.Listen != "" {
		base.Listen = override.Listen
	}
	if override.Shell != "" {
		base.Shell = override.Shell
	}
	if override.ScrollbackLines != 0 {
		base.ScrollbackLines = override.ScrollbackLines
	}
	if override.GUIChannelCapacity != 0 {
		base.GUIChannelCapacity = override.GUIChannelCapacity
	}
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	if override.LogFile != "" {
		base.LogFile = override.LogFile
	}
}
