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
	"sync"
	"time"

	"github.com/bureau-foundation/pageant/lib/codec"
	"github.com/bureau-foundation/pageant/lib/ipc"
	"github.com/bureau-foundation/pageant/lib/netutil"
)

// controlTimeout bounds one control request on either side.
const controlTimeout = 5 * time.Second

// Control answers CBOR status queries about a Bridge on a Unix socket.
type Control struct {
	// SocketPath is where the control socket is created.
	SocketPath string

	// Bridge is the bridge being reported on.
	Bridge *Bridge

	// Logger receives structured log output. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	listener net.Listener
	done     chan struct{}
	requests sync.WaitGroup
}

func (c *Control) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Start creates the socket and serves requests in the background.
func (c *Control) Start() error {
	if c.SocketPath == "" {
		return errors.New("bridge: control SocketPath is required")
	}
	if c.Bridge == nil {
		return errors.New("bridge: control Bridge is required")
	}

	if err := os.Remove(c.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("bridge: removing stale control socket: %w", err)
	}
	listener, err := net.Listen("unix", c.SocketPath)
	if err != nil {
		return fmt.Errorf("bridge: failed to listen on control socket %s: %w", c.SocketPath, err)
	}
	if err := os.Chmod(c.SocketPath, 0o600); err != nil {
		listener.Close()
		return fmt.Errorf("bridge: restricting control socket permissions: %w", err)
	}
	c.listener = listener
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		for {
			connection, err := listener.Accept()
			if err != nil {
				c.requests.Wait()
				return
			}
			c.requests.Add(1)
			go func() {
				defer c.requests.Done()
				c.serve(connection)
			}()
		}
	}()

	c.logger().Info("control socket started", "socket_path", c.SocketPath)
	return nil
}

// Stop closes the control socket and waits for in-flight requests.
func (c *Control) Stop() {
	if c.listener != nil {
		c.listener.Close()
	}
	if c.done != nil {
		<-c.done
	}
}

func (c *Control) serve(connection net.Conn) {
	defer connection.Close()
	connection.SetDeadline(time.Now().Add(controlTimeout))

	var request ipc.Request
	if err := codec.NewDecoder(connection).Decode(&request); err != nil {
		if !netutil.IsExpectedCloseError(err) {
			c.logger().Debug("decoding control request failed", "error", err)
		}
		return
	}

	response := c.handle(request)
	if err := codec.NewEncoder(connection).Encode(response); err != nil {
		c.logger().Debug("writing control response failed", "action", request.Action, "error", err)
	}
}

func (c *Control) handle(request ipc.Request) ipc.Response {
	switch request.Action {
	case ipc.ActionPing:
		return ipc.Response{OK: true}
	case ipc.ActionStatus:
		status := c.Bridge.Status()
		return ipc.Response{OK: true, Status: &status}
	default:
		return ipc.Response{Error: fmt.Sprintf("unknown action %q", request.Action)}
	}
}

// Call sends request to the control socket at socketPath and returns
// the response. A response with OK false is returned as an error.
func Call(ctx context.Context, socketPath string, request ipc.Request) (*ipc.Response, error) {
	var dialer net.Dialer
	connection, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("bridge: connecting to control socket: %w", err)
	}
	defer connection.Close()

	deadline := time.Now().Add(controlTimeout)
	if contextDeadline, ok := ctx.Deadline(); ok && contextDeadline.Before(deadline) {
		deadline = contextDeadline
	}
	connection.SetDeadline(deadline)

	if err := codec.NewEncoder(connection).Encode(request); err != nil {
		return nil, fmt.Errorf("bridge: sending %s request: %w", request.Action, err)
	}
	var response ipc.Response
	if err := codec.NewDecoder(connection).Decode(&response); err != nil {
		return nil, fmt.Errorf("bridge: reading %s response: %w", request.Action, err)
	}
	if !response.OK {
		return &response, fmt.Errorf("bridge: %s failed: %s", request.Action, response.Error)
	}
	return &response, nil
}

// QueryStatus asks the bridge behind socketPath for its status.
func QueryStatus(ctx context.Context, socketPath string) (*ipc.Status, error) {
	response, err := Call(ctx, socketPath, ipc.Request{Action: ipc.ActionStatus})
	if err != nil {
		return nil, err
	}
	if response.Status == nil {
		return nil, errors.New("bridge: status response carried no status")
	}
	return response.Status, nil
}
