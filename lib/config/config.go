// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/pageant/lib/pageant"
)

// EnvironmentVariable names the file Load reads.
const EnvironmentVariable = "PAGEANT_BRIDGE_CONFIG"

// Segment naming schemes accepted by agent.segment_names.
const (
	SequentialNames = "sequential"
	RandomNames     = "random"
)

// Config is the complete pageant-bridge configuration.
type Config struct {
	// Agent configures how the agent is found and reached.
	Agent AgentSection `yaml:"agent"`

	// Bridge configures the listening sockets.
	Bridge BridgeSection `yaml:"bridge"`

	// Log configures structured logging.
	Log LogSection `yaml:"log"`
}

// AgentSection configures the Pageant transport.
type AgentSection struct {
	// WindowClass and WindowTitle identify the agent window.
	// Default: Pageant / Pageant
	WindowClass string `yaml:"window_class"`
	WindowTitle string `yaml:"window_title"`

	// Timeout bounds each WM_COPYDATA notification.
	// Default: 5s
	Timeout time.Duration `yaml:"timeout"`

	// MaxMessageLength is the shared memory segment capacity,
	// including the 4-byte length prefix.
	// Default: 8192
	MaxMessageLength int `yaml:"max_message_length"`

	// SegmentNames selects the segment naming scheme: "sequential"
	// (process id plus counter) or "random" (UUID).
	// Default: sequential
	SegmentNames string `yaml:"segment_names"`
}

// BridgeSection configures the sockets the bridge serves.
type BridgeSection struct {
	// Network is "unix" or "tcp".
	// Default: unix
	Network string `yaml:"network"`

	// Listen is a socket path for unix or a host:port for tcp.
	// Default: ${HOME}/.pageant/agent.sock
	Listen string `yaml:"listen"`

	// ControlSocket is the Unix socket answering status queries.
	// Empty disables the control socket.
	// Default: ${HOME}/.pageant/control.sock
	ControlSocket string `yaml:"control_socket"`
}

// LogSection configures logging.
type LogSection struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the configuration used for any value the file does
// not set.
func Default() *Config {
	return &Config{
		Agent: AgentSection{
			WindowClass:      pageant.DefaultWindow.Class,
			WindowTitle:      pageant.DefaultWindow.Title,
			Timeout:          pageant.DefaultTimeout,
			MaxMessageLength: pageant.DefaultMaxMessageLength,
			SegmentNames:     SequentialNames,
		},
		Bridge: BridgeSection{
			Network:       "unix",
			Listen:        filepath.Join("${HOME}", ".pageant", "agent.sock"),
			ControlSocket: filepath.Join("${HOME}", ".pageant", "control.sock"),
		},
		Log: LogSection{
			Level: "info",
		},
	}
}

// Load reads the file named by PAGEANT_BRIDGE_CONFIG. It fails if the
// variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your pageant-bridge.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile reads the YAML file at path over the defaults, expands
// variables in path fields, and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.ExpandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ExpandVariables expands ${VAR} and ${VAR:-default} in path fields.
// Callers that build a Config from Default without LoadFile call this
// before using the paths.
func (c *Config) ExpandVariables() {
	vars := map[string]string{}
	if home, err := os.UserHomeDir(); err == nil {
		vars["HOME"] = home
	}

	if c.Bridge.Network == "unix" {
		c.Bridge.Listen = expandVars(c.Bridge.Listen, vars)
	}
	c.Bridge.ControlSocket = expandVars(c.Bridge.ControlSocket, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}, consulting vars
// before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name, defaultValue := parts[1], parts[2]
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error

	if c.Agent.WindowClass == "" {
		errs = append(errs, errors.New("agent.window_class is required"))
	}
	if c.Agent.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("agent.timeout must be positive, got %v", c.Agent.Timeout))
	}
	if c.Agent.MaxMessageLength < 64 || c.Agent.MaxMessageLength > 1<<20 {
		errs = append(errs, fmt.Errorf("agent.max_message_length must be between 64 and %d, got %d",
			1<<20, c.Agent.MaxMessageLength))
	}
	if c.Agent.SegmentNames != SequentialNames && c.Agent.SegmentNames != RandomNames {
		errs = append(errs, fmt.Errorf("agent.segment_names must be %q or %q, got %q",
			SequentialNames, RandomNames, c.Agent.SegmentNames))
	}

	if c.Bridge.Network != "unix" && c.Bridge.Network != "tcp" {
		errs = append(errs, fmt.Errorf("bridge.network must be unix or tcp, got %q", c.Bridge.Network))
	}
	if c.Bridge.Listen == "" {
		errs = append(errs, errors.New("bridge.listen is required"))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LogSection) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(l.Level))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// AgentConfig builds the pageant.Config described by the agent section.
// The caller supplies the logger; the platform is the native one for
// the configured window.
func (c *Config) AgentConfig(logger *slog.Logger) pageant.Config {
	names := pageant.SequentialNames()
	if c.Agent.SegmentNames == RandomNames {
		names = pageant.RandomNames()
	}
	return pageant.Config{
		Platform: pageant.NativePlatform(pageant.Window{
			Class: c.Agent.WindowClass,
			Title: c.Agent.WindowTitle,
		}),
		Names:            names,
		Timeout:          c.Agent.Timeout,
		MaxMessageLength: c.Agent.MaxMessageLength,
		Logger:           logger,
	}
}
