// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/pageant/lib/ipc"
	"github.com/bureau-foundation/pageant/lib/pageant"
	"github.com/bureau-foundation/pageant/lib/testutil"
)

func startControl(t *testing.T, bridge *Bridge) string {
	t.Helper()
	control := &Control{
		SocketPath: filepath.Join(testutil.SocketDir(t), "control.sock"),
		Bridge:     bridge,
	}
	if err := control.Start(); err != nil {
		t.Fatalf("control Start: %v", err)
	}
	t.Cleanup(control.Stop)
	return control.SocketPath
}

func TestQueryStatus(t *testing.T) {
	bridge := startBridge(t, keyringAgent(t), pageant.Config{})
	socketPath := startControl(t, bridge)

	if _, err := dialAgent(t, bridge).List(); err != nil {
		t.Fatalf("List: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	status, err := QueryStatus(ctx, socketPath)
	if err != nil {
		t.Fatalf("QueryStatus: %v", err)
	}
	if status.Listen != bridge.Addr().String() {
		t.Errorf("Listen = %q, want %q", status.Listen, bridge.Addr().String())
	}
	if status.Connections != 1 || status.RoundTrips != 1 {
		t.Errorf("status = %+v, want 1 connection and 1 round trip", status)
	}
	if status.StartedAt == 0 {
		t.Error("StartedAt not reported")
	}
}

func TestControlPingAndUnknownAction(t *testing.T) {
	bridge := startBridge(t, keyringAgent(t), pageant.Config{})
	socketPath := startControl(t, bridge)
	ctx := context.Background()

	if _, err := Call(ctx, socketPath, ipc.Request{Action: ipc.ActionPing}); err != nil {
		t.Fatalf("ping: %v", err)
	}

	response, err := Call(ctx, socketPath, ipc.Request{Action: "reboot"})
	if err == nil {
		t.Fatal("unknown action succeeded")
	}
	if response == nil || !strings.Contains(response.Error, "unknown action") {
		t.Errorf("response = %+v, want an unknown action error", response)
	}
}

func TestControlRequiresBridge(t *testing.T) {
	control := &Control{SocketPath: filepath.Join(testutil.SocketDir(t), "control.sock")}
	if err := control.Start(); err == nil {
		control.Stop()
		t.Fatal("Start succeeded without a bridge")
	}
}

func TestQueryStatusWithoutServer(t *testing.T) {
	_, err := QueryStatus(context.Background(), filepath.Join(testutil.SocketDir(t), "absent.sock"))
	if err == nil {
		t.Fatal("QueryStatus succeeded with nothing listening")
	}
}
