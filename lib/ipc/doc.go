// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ipc defines the CBOR-encoded messages exchanged on the
// bridge's control socket. The bridge (package bridge) serves them and
// cmd/pageant-bridge --status sends them, so the wire types are defined
// once here.
//
// A client connects, writes one [Request], reads one [Response], and
// the server closes the connection.
package ipc
