// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pageant talks to a running PuTTY Pageant agent as though it
// were an ssh-agent stream socket.
//
// Pageant has no socket. A client hands it one request at a time: the
// request is written into a named shared memory segment, the agent
// window is sent a WM_COPYDATA message naming that segment, and once
// the message is acknowledged the reply is read back out of the same
// segment. [Conn] hides this behind Write and Read so that
// golang.org/x/crypto/ssh/agent.NewClient can run on top of it:
//
//	conn, err := pageant.Open("", pageant.Config{})
//	if err != nil {
//	    return err
//	}
//	defer conn.Close()
//	keys, err := agent.NewClient(conn).List()
//
// The package is built in three layers:
//
//   - [Assembler] buffers bytes written by the caller and pulls out
//     complete length-prefixed agent messages, regardless of how the
//     writes were chunked.
//   - [Transport] performs one round trip per message: create a
//     segment, write the request envelope, notify the agent, read the
//     reply envelope, release the segment. Release happens on every
//     path, including failures.
//   - [Conn] glues the two together and buffers replies for reading.
//
// The operating system is reached only through the [Locator],
// [SegmentProvider], and [Notifier] capabilities bundled in
// [Platform]. [DefaultPlatform] returns the Win32 implementation on
// Windows. On other systems it returns a platform whose locator always
// reports [ErrAgentUnavailable]. Package pageanttest provides an
// in-memory agent implementing all three capabilities.
//
// Each Conn is synchronous and is not safe for concurrent use. Separate
// Conns may run concurrently against the same agent; segment names
// produced by [SequentialNames] or [RandomNames] are unique within the
// process, which keeps their round trips apart.
package pageant
