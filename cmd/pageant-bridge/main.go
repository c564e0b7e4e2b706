// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/bureau-foundation/pageant/bridge"
	"github.com/bureau-foundation/pageant/lib/config"
	"github.com/bureau-foundation/pageant/lib/pageant"
	"github.com/bureau-foundation/pageant/lib/process"
	"github.com/bureau-foundation/pageant/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

// options holds the parsed command line.
type options struct {
	configPath string
	listen     string
	network    string
	control    string
	timeout    time.Duration
	verbose    bool
	list       bool
	status     bool
	help       bool
	version    bool

	flagSet *pflag.FlagSet
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	flagSet := pflag.NewFlagSet("pageant-bridge", pflag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to pageant-bridge.yaml (default: $"+config.EnvironmentVariable+")")
	flagSet.StringVarP(&opts.listen, "listen", "l", "", "socket path or host:port to serve the agent on")
	flagSet.StringVar(&opts.network, "network", "", "listener network: unix or tcp")
	flagSet.StringVar(&opts.control, "control", "", "control socket path; empty string disables it")
	flagSet.DurationVar(&opts.timeout, "timeout", 0, "how long to wait for Pageant to answer one request")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "enable per-connection debug logging")
	flagSet.BoolVar(&opts.list, "list", false, "list the keys held by Pageant and exit")
	flagSet.BoolVar(&opts.status, "status", false, "query a running bridge over its control socket and exit")
	flagSet.BoolVar(&opts.version, "version", false, "print version information and exit")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "show help")
	opts.flagSet = flagSet

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			opts.help = true
			return opts, nil
		}
		return nil, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if opts.list && opts.status {
		return nil, fmt.Errorf("--list and --status are mutually exclusive")
	}
	return opts, nil
}

// loadConfig reads the configuration file named by --config or the
// environment, falling back to defaults, then applies flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case opts.configPath != "":
		cfg, err = config.LoadFile(opts.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
		cfg.ExpandVariables()
	}
	if err != nil {
		return nil, err
	}

	changed := opts.flagSet.Changed
	if changed("network") {
		cfg.Bridge.Network = opts.network
	}
	if changed("listen") {
		cfg.Bridge.Listen = opts.listen
	}
	if changed("control") {
		cfg.Bridge.ControlSocket = opts.control
	}
	if changed("timeout") {
		cfg.Agent.Timeout = opts.timeout
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	cfg.ExpandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.help {
		printHelp(opts.flagSet)
		return nil
	}
	if opts.version {
		version.Print("pageant-bridge")
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	level, _ := cfg.Log.SlogLevel()
	logger := newLogger(level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case opts.list:
		return listKeys(os.Stdout, cfg.AgentConfig(logger))
	case opts.status:
		return printStatus(ctx, os.Stdout, cfg.Bridge.ControlSocket)
	}
	return serve(ctx, cfg, logger)
}

// serve runs the bridge and its control socket until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	agentConfig := cfg.AgentConfig(logger)
	agentBridge := &bridge.Bridge{
		Network:    cfg.Bridge.Network,
		ListenAddr: cfg.Bridge.Listen,
		Open: func() (*pageant.Conn, error) {
			return pageant.Open("", agentConfig)
		},
		Logger: logger,
	}
	if err := agentBridge.Start(ctx); err != nil {
		return err
	}
	defer agentBridge.Stop()

	if cfg.Bridge.ControlSocket != "" {
		control := &bridge.Control{
			SocketPath: cfg.Bridge.ControlSocket,
			Bridge:     agentBridge,
			Logger:     logger,
		}
		if err := control.Start(); err != nil {
			return err
		}
		defer control.Stop()
	}

	if cfg.Bridge.Network == "unix" {
		fmt.Fprintf(os.Stderr, "SSH_AUTH_SOCK=%s; export SSH_AUTH_SOCK;\n", agentBridge.Addr())
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// listKeys prints one line per key held by the agent: fingerprint,
// comment, and key type.
func listKeys(w io.Writer, agentConfig pageant.Config) error {
	conn, err := pageant.Open("", agentConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	keys, err := agent.NewClient(conn).List()
	if err != nil {
		return fmt.Errorf("listing keys: %w", err)
	}
	if len(keys) == 0 {
		fmt.Fprintln(w, "The agent has no identities.")
		return nil
	}
	for _, key := range keys {
		fmt.Fprintf(w, "%s %s (%s)\n", ssh.FingerprintSHA256(key), key.Comment, key.Type())
	}
	return nil
}

func printStatus(ctx context.Context, w io.Writer, socketPath string) error {
	if socketPath == "" {
		return fmt.Errorf("no control socket configured; set bridge.control_socket or pass --control")
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status, err := bridge.QueryStatus(ctx, socketPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "listen:       %s\n", status.Listen)
	fmt.Fprintf(w, "started:      %s\n", time.Unix(status.StartedAt, 0).Format(time.RFC3339))
	fmt.Fprintf(w, "connections:  %d (%d active)\n", status.Connections, status.Active)
	fmt.Fprintf(w, "round trips:  %d\n", status.RoundTrips)
	fmt.Fprintf(w, "failures:     %d\n", status.Failures)
	fmt.Fprintf(w, "bytes:        %d in, %d out\n", status.BytesIn, status.BytesOut)
	if status.LastError != "" {
		fmt.Fprintf(w, "last error:   %s\n", status.LastError)
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `pageant-bridge - serve Pageant keys on an ssh-agent socket

Usage:
  pageant-bridge [flags]
  pageant-bridge --list
  pageant-bridge --status

Configuration is read from --config, or from the file named by
$%s, or defaults to serving on ~/.pageant/agent.sock.
Flags override the configuration file.

Examples:
  # Serve on the default socket
  pageant-bridge

  # Serve on a TCP port for a WSL or container client
  pageant-bridge --network tcp --listen 127.0.0.1:8643

  # Show which keys Pageant holds
  pageant-bridge --list

Flags:
`, config.EnvironmentVariable)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
