// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Pageant-bridge exposes a running Pageant as an ssh-agent socket, so
// OpenSSH clients and libraries that speak SSH_AUTH_SOCK can use keys
// held by Pageant. Each client connection gets its own pageant.Conn;
// every complete agent message is relayed through a shared memory
// round trip.
//
// Besides serving, it can list the agent's keys directly (--list) and
// report the counters of a running bridge over its control socket
// (--status).
package main
