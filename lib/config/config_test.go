// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pageant-bridge.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Agent.WindowClass != "Pageant" || cfg.Agent.WindowTitle != "Pageant" {
		t.Errorf("expected window Pageant/Pageant, got %s/%s", cfg.Agent.WindowClass, cfg.Agent.WindowTitle)
	}
	if cfg.Agent.Timeout != 5*time.Second {
		t.Errorf("expected timeout=5s, got %v", cfg.Agent.Timeout)
	}
	if cfg.Agent.MaxMessageLength != 8192 {
		t.Errorf("expected max_message_length=8192, got %d", cfg.Agent.MaxMessageLength)
	}
	if cfg.Bridge.Network != "unix" {
		t.Errorf("expected network=unix, got %s", cfg.Bridge.Network)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresEnvironmentVariable(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when PAGEANT_BRIDGE_CONFIG not set, got nil")
	}
	if !strings.HasPrefix(err.Error(), "PAGEANT_BRIDGE_CONFIG environment variable not set") {
		t.Errorf("unexpected error message: %q", err)
	}
}

func TestLoad_WithEnvironmentVariable(t *testing.T) {
	path := writeConfig(t, `
agent:
  timeout: 750ms
`)
	t.Setenv(EnvironmentVariable, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Agent.Timeout != 750*time.Millisecond {
		t.Errorf("expected timeout=750ms, got %v", cfg.Agent.Timeout)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
agent:
  window_class: KeeAgent
  window_title: KeeAgent
  max_message_length: 262144
  segment_names: random

bridge:
  network: tcp
  listen: 127.0.0.1:4242
  control_socket: /custom/control.sock

log:
  level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Agent.WindowClass != "KeeAgent" {
		t.Errorf("expected window_class=KeeAgent, got %s", cfg.Agent.WindowClass)
	}
	if cfg.Agent.Timeout != 5*time.Second {
		t.Errorf("unset timeout should keep its default, got %v", cfg.Agent.Timeout)
	}
	if cfg.Agent.MaxMessageLength != 262144 {
		t.Errorf("expected max_message_length=262144, got %d", cfg.Agent.MaxMessageLength)
	}
	if cfg.Bridge.Listen != "127.0.0.1:4242" {
		t.Errorf("expected listen=127.0.0.1:4242, got %s", cfg.Bridge.Listen)
	}
	if cfg.Bridge.ControlSocket != "/custom/control.sock" {
		t.Errorf("expected control_socket=/custom/control.sock, got %s", cfg.Bridge.ControlSocket)
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("expected debug level, got %v (err %v)", level, err)
	}
}

func TestLoadFile_ExpandsPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	t.Setenv("PAGEANT_TEST_RUNTIME", "/run/user/1000")
	path := writeConfig(t, `
bridge:
  listen: ${PAGEANT_TEST_RUNTIME}/agent.sock
  control_socket: ${PAGEANT_TEST_MISSING:-/tmp}/control.sock
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Bridge.Listen != "/run/user/1000/agent.sock" {
		t.Errorf("expected expanded listen, got %s", cfg.Bridge.Listen)
	}
	if cfg.Bridge.ControlSocket != "/tmp/control.sock" {
		t.Errorf("expected default-expanded control socket, got %s", cfg.Bridge.ControlSocket)
	}

	defaults := Default()
	defaults.ExpandVariables()
	if !strings.HasPrefix(defaults.Bridge.Listen, home) {
		t.Errorf("default listen %s should start with home %s", defaults.Bridge.Listen, home)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFile(writeConfig(t, "agent: [unclosed")); err == nil {
		t.Error("expected error for malformed YAML")
	}
	if _, err := LoadFile(writeConfig(t, "agent:\n  timeout: -1s\n")); err == nil {
		t.Error("expected validation error for negative timeout")
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{"${HOME}/.pageant", map[string]string{"HOME": "/home/user"}, "/home/user/.pageant"},
		{"${PAGEANT_TEST_UNSET:-fallback}", map[string]string{}, "fallback"},
		{"${PRESENT:-fallback}", map[string]string{"PRESENT": "value"}, "value"},
		{"${A}/${B}", map[string]string{"A": "first", "B": "second"}, "first/second"},
		{"no variables here", map[string]string{}, "no variables here"},
	}

	for _, tt := range tests {
		if result := expandVars(tt.input, tt.vars); result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default config", func(c *Config) {}, false},
		{"empty window class", func(c *Config) { c.Agent.WindowClass = "" }, true},
		{"zero timeout", func(c *Config) { c.Agent.Timeout = 0 }, true},
		{"capacity too small", func(c *Config) { c.Agent.MaxMessageLength = 16 }, true},
		{"capacity too large", func(c *Config) { c.Agent.MaxMessageLength = 1<<20 + 1 }, true},
		{"unknown naming", func(c *Config) { c.Agent.SegmentNames = "thread" }, true},
		{"unknown network", func(c *Config) { c.Bridge.Network = "udp" }, true},
		{"empty listen", func(c *Config) { c.Bridge.Listen = "" }, true},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, true},
		{"no control socket", func(c *Config) { c.Bridge.ControlSocket = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAgentConfig(t *testing.T) {
	cfg := Default()
	cfg.Agent.Timeout = 2 * time.Second
	cfg.Agent.MaxMessageLength = 4096
	cfg.Agent.SegmentNames = RandomNames

	agentConfig := cfg.AgentConfig(slog.Default())
	if agentConfig.Timeout != 2*time.Second || agentConfig.MaxMessageLength != 4096 {
		t.Errorf("AgentConfig did not carry limits: %+v", agentConfig)
	}
	if agentConfig.Names == nil || !strings.HasPrefix(agentConfig.Names(), "PageantRequest") {
		t.Error("AgentConfig did not install a segment name generator")
	}
	if agentConfig.Platform.Locator == nil {
		t.Error("AgentConfig did not install a platform")
	}
}
