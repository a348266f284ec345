// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

// Package config loads wsh's settings from a YAML file, environment
// variables, and command-line flags, merged in that order so flags win
// over env, env wins over file, and file wins over the built-in default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds every setting wsh's daemon needs at startup. TLS has no
// field here: terminating TLS is explicitly out of scope, left to a
// reverse proxy in front of the daemon.
type Config struct {
	Listen            string        `yaml:"listen"`
	Token             string        `yaml:"token"`
	ScrollbackLines   int           `yaml:"scrollback_lines"`
	IdleThreshold     time.Duration `yaml:"idle_threshold"`
	ParserCapacity    int           `yaml:"parser_capacity"`
	BroadcastCapacity int           `yaml:"broadcast_capacity"`
	MaxWaitDefault    time.Duration `yaml:"max_wait_default"`

	// ColorProfile is the default color profile ("truecolor", "ansi256",
	// "ansi", or "ascii") overlay/panel SGR spans are downgraded to before
	// an attaching client negotiates a narrower one of its own.
	ColorProfile string `yaml:"color_profile"`
}

// Default returns the built-in baseline every other layer is merged onto.
func Default() Config {
	return Config{
		Listen:            "127.0.0.1:7777",
		Token:             "",
		ScrollbackLines:   10000,
		IdleThreshold:     1 * time.Second,
		ParserCapacity:    4096,
		BroadcastCapacity: 64,
		MaxWaitDefault:    30 * time.Second,
		ColorProfile:      "truecolor",
	}
}

// Load builds a Config by merging, in increasing order of precedence: the
// built-in default, the YAML file at path (if it exists — a missing file
// is not an error), environment variables, and any flags in fs that were
// explicitly set on the command line. path may be empty, in which case
// the file layer is skipped entirely.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	cfg.applyEnv()
	if fs != nil {
		if err := cfg.applyFlags(fs); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	return &cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("WSH_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("WSH_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("WSH_SCROLLBACK_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ScrollbackLines = n
		}
	}
	if v := os.Getenv("WSH_IDLE_THRESHOLD_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.IdleThreshold = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("WSH_PARSER_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ParserCapacity = n
		}
	}
	if v := os.Getenv("WSH_BROADCAST_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BroadcastCapacity = n
		}
	}
	if v := os.Getenv("WSH_MAX_WAIT_MS_DEFAULT"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxWaitDefault = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("WSH_COLOR_PROFILE"); v != "" {
		c.ColorProfile = v
	}
}

// applyFlags runs a setter for each flag name this package understands,
// invoked only when the flag was explicitly passed on the command line,
// so an untouched flag never clobbers a value already set by env or file.
func (c *Config) applyFlags(fs *pflag.FlagSet) error {
	var firstErr error
	get := func(name string, fn func(string) error) {
		if firstErr != nil || !fs.Changed(name) {
			return
		}
		v, err := fs.GetString(name)
		if err != nil {
			firstErr = fmt.Errorf("flag %s: %w", name, err)
			return
		}
		if err := fn(v); err != nil {
			firstErr = fmt.Errorf("flag %s: %w", name, err)
		}
	}

	get("listen", func(v string) error { c.Listen = v; return nil })
	get("token", func(v string) error { c.Token = v; return nil })
	get("scrollback-lines", func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.ScrollbackLines = n
		return nil
	})
	get("idle-threshold-ms", func(v string) error {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.IdleThreshold = time.Duration(ms) * time.Millisecond
		return nil
	})
	get("parser-capacity", func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.ParserCapacity = n
		return nil
	})
	get("broadcast-capacity", func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.BroadcastCapacity = n
		return nil
	})
	get("max-wait-ms-default", func(v string) error {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.MaxWaitDefault = time.Duration(ms) * time.Millisecond
		return nil
	})
	get("color-profile", func(v string) error { c.ColorProfile = v; return nil })
	return firstErr
}

// RegisterFlags adds every flag applyFlags knows how to read to fs, with
// defaults left blank/zero: presence (fs.Changed) is what matters, not
// the flag's own default, since the merge already happened via file/env
// before flags are read.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("listen", "", "address to listen on, e.g. 127.0.0.1:7777")
	fs.String("token", "", "bearer token required for non-loopback clients")
	fs.String("scrollback-lines", "", "scrollback line retention per session")
	fs.String("idle-threshold-ms", "", "milliseconds of quiet before a session is considered idle")
	fs.String("parser-capacity", "", "buffered capacity of the per-session parser channel")
	fs.String("broadcast-capacity", "", "buffered capacity of each streaming client's channel")
	fs.String("max-wait-ms-default", "", "default await_quiesce wait ceiling in milliseconds")
	fs.String("color-profile", "", "default color profile for overlay/panel rendering: truecolor, ansi256, ansi, or ascii")
}
