// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/pageant/lib/clock"
	"github.com/bureau-foundation/pageant/lib/ipc"
	"github.com/bureau-foundation/pageant/lib/netutil"
	"github.com/bureau-foundation/pageant/lib/pageant"
)

// agentFailureReply is a complete SSH_AGENT_FAILURE message.
var agentFailureReply = []byte{0, 0, 0, 1, 5}

// readBufferSize covers the largest message Pageant accepts in one
// read; larger messages simply take several reads.
const readBufferSize = 16 << 10

// Bridge forwards ssh-agent connections to Pageant.
type Bridge struct {
	// Network is "unix" or "tcp". Defaults to "unix".
	Network string

	// ListenAddr is the socket path (unix) or host:port (tcp).
	ListenAddr string

	// Open returns a new pageant.Conn for one client connection.
	// Typically a closure over pageant.Open with the configured
	// platform.
	Open func() (*pageant.Conn, error)

	// Logger receives structured log output. If nil, slog.Default()
	// is used. Per-connection events are logged at Debug level;
	// failures and lifecycle events at Warn/Info.
	Logger *slog.Logger

	// Clock stamps the start time reported in status. Defaults to
	// clock.Real.
	Clock clock.Clock

	listener    net.Listener
	cancel      context.CancelFunc
	done        chan struct{}
	connections sync.WaitGroup
	startedAt   time.Time

	accepted   atomic.Uint64
	active     atomic.Int64
	roundTrips atomic.Uint64
	failures   atomic.Uint64
	bytesIn    atomic.Uint64
	bytesOut   atomic.Uint64
	lastError  atomic.Pointer[string]
}

func (b *Bridge) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *Bridge) network() string {
	if b.Network == "" {
		return "unix"
	}
	return b.Network
}

// Start binds the listener and begins serving in the background. It
// probes the agent once and logs a warning if none is running; clients
// connecting before Pageant starts receive SSH_AGENT_FAILURE replies.
func (b *Bridge) Start(ctx context.Context) error {
	if b.ListenAddr == "" {
		return errors.New("bridge: ListenAddr is required")
	}
	if b.Open == nil {
		return errors.New("bridge: Open is required")
	}

	if probe, err := b.Open(); err != nil {
		b.logger().Warn("pageant not reachable yet", "error", err)
	} else {
		probe.Close()
	}

	listener, err := b.listen()
	if err != nil {
		return err
	}
	b.listener = listener

	if b.Clock == nil {
		b.Clock = clock.Real()
	}
	b.startedAt = b.Clock.Now()

	ctx, b.cancel = context.WithCancel(ctx)
	b.done = make(chan struct{})

	go func() {
		defer close(b.done)
		b.acceptLoop(ctx)
	}()

	b.logger().Info("bridge started",
		"network", b.network(),
		"listen_addr", listener.Addr().String(),
	)
	return nil
}

// listen binds the socket. A Unix socket is created with owner-only
// permissions, replacing a stale socket left by a previous run.
func (b *Bridge) listen() (net.Listener, error) {
	network := b.network()
	switch network {
	case "tcp":
		listener, err := net.Listen("tcp", b.ListenAddr)
		if err != nil {
			return nil, fmt.Errorf("bridge: failed to listen on %s: %w", b.ListenAddr, err)
		}
		return listener, nil
	case "unix":
	default:
		return nil, fmt.Errorf("bridge: unsupported network %q", network)
	}

	if err := os.MkdirAll(filepath.Dir(b.ListenAddr), 0o700); err != nil {
		return nil, fmt.Errorf("bridge: creating socket directory: %w", err)
	}
	if info, err := os.Lstat(b.ListenAddr); err == nil {
		if info.Mode()&os.ModeSocket == 0 {
			return nil, fmt.Errorf("bridge: %s exists and is not a socket", b.ListenAddr)
		}
		if err := os.Remove(b.ListenAddr); err != nil {
			return nil, fmt.Errorf("bridge: removing stale socket: %w", err)
		}
	}
	listener, err := net.Listen("unix", b.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("bridge: failed to listen on %s: %w", b.ListenAddr, err)
	}
	if err := os.Chmod(b.ListenAddr, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("bridge: restricting socket permissions: %w", err)
	}
	return listener, nil
}

// Addr returns the listener's address, useful when binding to port 0.
// Returns nil if the bridge has not been started.
func (b *Bridge) Addr() net.Addr {
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

// Stop shuts down the bridge, closing the listener and waiting for all
// in-flight connections to drain.
func (b *Bridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.listener != nil {
		b.listener.Close()
	}
	if b.done != nil {
		<-b.done
	}
}

// Wait blocks until the bridge has stopped.
func (b *Bridge) Wait() {
	if b.done != nil {
		<-b.done
	}
}

// Status returns a snapshot of the bridge counters.
func (b *Bridge) Status() ipc.Status {
	status := ipc.Status{
		StartedAt:   b.startedAt.Unix(),
		Connections: b.accepted.Load(),
		Active:      b.active.Load(),
		RoundTrips:  b.roundTrips.Load(),
		Failures:    b.failures.Load(),
		BytesIn:     b.bytesIn.Load(),
		BytesOut:    b.bytesOut.Load(),
	}
	if address := b.Addr(); address != nil {
		status.Listen = address.String()
	}
	if lastError := b.lastError.Load(); lastError != nil {
		status.LastError = *lastError
	}
	return status
}

func (b *Bridge) recordFailure(err error) {
	b.failures.Add(1)
	message := err.Error()
	b.lastError.Store(&message)
}

// acceptLoop accepts connections until the context is cancelled, then
// waits for in-flight connections so that closing done signals full
// quiescence.
func (b *Bridge) acceptLoop(ctx context.Context) {
	for {
		connection, err := b.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				b.connections.Wait()
				return
			default:
				b.logger().Error("accept failed", "error", err)
				continue
			}
		}

		connectionID := b.accepted.Add(1)
		b.connections.Add(1)
		go func() {
			defer b.connections.Done()
			b.handleConnection(ctx, connection, connectionID)
		}()
	}
}

func (b *Bridge) handleConnection(ctx context.Context, client net.Conn, connectionID uint64) {
	defer client.Close()
	b.active.Add(1)
	defer b.active.Add(-1)

	// Unblock the read below when the bridge stops.
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	logger := b.logger().With("connection_id", connectionID)
	logger.Debug("connection accepted")

	var agentConn *pageant.Conn
	defer func() {
		if agentConn != nil {
			agentConn.Close()
		}
	}()

	// Messages are framed here rather than in the Conn so that a Conn
	// dropped after a failure never takes a partial message with it.
	var requests pageant.Assembler
	buffer := make([]byte, readBufferSize)
	for {
		count, readError := client.Read(buffer)
		if count > 0 {
			b.bytesIn.Add(uint64(count))
			requests.Feed(buffer[:count])
		}
		for {
			payload, ok := requests.Next()
			if !ok {
				break
			}
			reply, err := b.forward(&agentConn, payload)
			if err != nil {
				b.recordFailure(err)
				logger.Warn("agent request failed", "error", err)
				reply = agentFailureReply
			}
			if _, err := client.Write(reply); err != nil {
				if !netutil.IsExpectedCloseError(err) {
					logger.Debug("writing reply failed", "error", err)
				}
				return
			}
			b.bytesOut.Add(uint64(len(reply)))
		}
		if readError != nil {
			if !netutil.IsExpectedCloseError(readError) {
				logger.Debug("client read error", "error", readError)
			}
			if pending := requests.Buffered(); pending > 0 {
				logger.Debug("client left an incomplete message", "pending_bytes", pending)
			}
			logger.Debug("connection closed")
			return
		}
	}
}

// forward exchanges one request payload through the connection's
// pageant.Conn, opening it on first use, and returns the reply
// envelope. After a failure the Conn is dropped so the next request
// locates the agent afresh.
func (b *Bridge) forward(agentConn **pageant.Conn, payload []byte) ([]byte, error) {
	if *agentConn == nil {
		conn, err := b.Open()
		if err != nil {
			return nil, err
		}
		*agentConn = conn
	}

	conn := *agentConn
	if _, err := conn.Send(pageant.AppendEnvelope(nil, payload)); err != nil {
		conn.Close()
		*agentConn = nil
		return nil, err
	}
	b.roundTrips.Add(1)
	return conn.Drain(), nil
}
