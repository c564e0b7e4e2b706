// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pageant

import (
	"errors"
	"fmt"
	"net"
)

var (
	// ErrAgentUnavailable means no agent window could be found, or the
	// handle stopped referring to a live window.
	ErrAgentUnavailable = errors.New("pageant: agent not running")

	// ErrMapping means a shared memory segment could not be created,
	// mapped, or written.
	ErrMapping = errors.New("pageant: shared memory mapping failed")

	// ErrTimeout means the agent did not acknowledge a notification
	// within the configured bound.
	ErrTimeout = errors.New("pageant: agent did not respond in time")

	// ErrRejected means the agent received the notification but
	// reported failure.
	ErrRejected = errors.New("pageant: agent rejected request")

	// ErrProtocol means a request or reply did not fit the framing
	// rules: an implausible reply length or a truncated segment.
	ErrProtocol = errors.New("pageant: protocol error")

	// ErrMessageTooLarge is returned for a request whose envelope does
	// not fit in a segment. It matches ErrProtocol under errors.Is.
	ErrMessageTooLarge = fmt.Errorf("%w: message exceeds segment capacity", ErrProtocol)

	// ErrClosed is returned by Send and Write after Close. It matches
	// net.ErrClosed under errors.Is.
	ErrClosed = fmt.Errorf("pageant: %w", net.ErrClosed)
)
