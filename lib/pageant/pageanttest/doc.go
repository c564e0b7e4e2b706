// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pageanttest provides an in-memory Pageant for tests.
//
// [Agent] implements all three platform capabilities of package
// pageant: it locates itself, hands out heap-backed segments, and
// answers notifications by reading the request envelope from the named
// segment, running a handler, and writing the reply envelope back. It
// records every segment it creates and releases, so tests can assert
// that no segment outlives its round trip.
//
// [KeyringHandler] serves requests from a golang.org/x/crypto/ssh/agent
// keyring, which lets an agent.Client run end to end over a
// pageant.Conn without Windows.
package pageanttest
