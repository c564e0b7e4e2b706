// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [SocketDir] makes a short directory under /tmp for Unix sockets,
// whose paths are limited to 108 bytes. [RequireReceive] and
// [RequireClosed] wrap the select-with-deadline pattern so tests that
// wait on goroutines fail instead of hanging.
//
// Helpers call t.Fatalf rather than returning errors.
package testutil
