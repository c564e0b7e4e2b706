// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge exposes a Pageant agent as an ssh-agent stream socket.
//
// OpenSSH, git, and anything else built on the ssh-agent protocol
// expect SSH_AUTH_SOCK to name a socket. Pageant has no socket: it is
// reached one message at a time through shared memory and window
// messages (see package pageant). The bridge listens on a Unix socket
// (or a loopback TCP port) and gives every accepted connection its own
// pageant.Conn. Bytes read from the client are passed to Send, and the
// reply envelopes Send produces are written straight back.
//
//	SSH_AUTH_SOCK=$HOME/.pageant/agent.sock ssh host
//
// When a round trip fails (the agent timed out waiting for the user,
// or quit), the client receives SSH_AGENT_FAILURE for that request and
// the connection stays open, so a later request can still succeed.
//
// [Bridge] follows the same lifecycle as the other servers in this
// module: Start binds and returns, Stop closes the listener and waits
// for connections to drain, Wait blocks until the bridge has stopped,
// and Addr reports the bound address.
//
// [Control] serves CBOR status queries about a running bridge on a
// separate Unix socket; [QueryStatus] is its client.
package bridge
