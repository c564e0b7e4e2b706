// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pageant

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bureau-foundation/pageant/lib/clock"
)

// Exchanger performs one request/reply round trip. *Transport is the
// production implementation.
type Exchanger interface {
	Exchange(payload []byte) ([]byte, error)
}

// Config controls how Open reaches the agent. The zero value uses the
// platform default with PuTTY's standard limits.
type Config struct {
	// Platform supplies the locator, segments, and notifier. If all
	// three are nil, DefaultPlatform() is used.
	Platform Platform

	// Names generates segment names. Defaults to SequentialNames.
	Names NameFunc

	// Timeout bounds each notification. Defaults to DefaultTimeout.
	Timeout time.Duration

	// MaxMessageLength is the segment capacity. Defaults to
	// DefaultMaxMessageLength.
	MaxMessageLength int

	// Clock times round trips. Defaults to clock.Real.
	Clock clock.Clock

	// Logger receives transport diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Conn is a pseudo stream socket to the agent. Bytes written to it are
// grouped into agent messages; each complete message is exchanged with
// the agent immediately, and the reply envelopes are buffered for
// Read, Next, and Drain in the order the messages were written.
//
// A Conn is not safe for concurrent use.
type Conn struct {
	exchanger Exchanger
	input     Assembler
	output    bytes.Buffer
	exchanged int
	closed    bool
}

// Open locates the running agent and returns a Conn to it. The
// location argument is ignored; it exists so Open can stand in for a
// socket dialer. Open fails with ErrAgentUnavailable when no agent is
// running, before any segment is created.
func Open(location string, config Config) (*Conn, error) {
	platform := config.Platform
	if platform.Locator == nil && platform.Segments == nil && platform.Notifier == nil {
		platform = DefaultPlatform()
	}
	if !platform.complete() {
		return nil, errors.New("pageant: platform must provide a locator, segment provider, and notifier")
	}

	handle, err := platform.Locator.Locate()
	if err != nil {
		if !errors.Is(err, ErrAgentUnavailable) {
			err = fmt.Errorf("%w: %w", ErrAgentUnavailable, err)
		}
		return nil, err
	}

	return NewConn(&Transport{
		Agent:            handle,
		Segments:         platform.Segments,
		Notifier:         platform.Notifier,
		Names:            config.Names,
		Timeout:          config.Timeout,
		MaxMessageLength: config.MaxMessageLength,
		Clock:            config.Clock,
		Logger:           config.Logger,
	}), nil
}

// NewConn returns a Conn that sends every complete message through
// exchanger.
func NewConn(exchanger Exchanger) *Conn {
	return &Conn{exchanger: exchanger}
}

// Send buffers data and exchanges every message it completes, blocking
// until each round trip finishes. It reports all of data as accepted,
// including a trailing partial message that stays buffered for the
// next call.
//
// If a round trip fails, Send returns 0 and the error. Replies to
// messages exchanged earlier in the same call remain readable, and the
// rest of the buffered input is discarded: once a reply is missing the
// caller can no longer pair requests with replies.
func (c *Conn) Send(data []byte) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	c.input.Feed(data)
	for {
		payload, ok := c.input.Next()
		if !ok {
			return len(data), nil
		}
		reply, err := c.exchanger.Exchange(payload)
		if err != nil {
			c.input.Reset()
			return 0, err
		}
		c.output.Write(reply)
		c.exchanged++
	}
}

// Write is Send, making Conn an io.Writer.
func (c *Conn) Write(data []byte) (int, error) {
	return c.Send(data)
}

// Read copies buffered reply bytes into p. It returns io.EOF when no
// reply bytes are buffered; it never blocks, since replies are produced
// synchronously by Send.
func (c *Conn) Read(p []byte) (int, error) {
	if c.output.Len() == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	return c.output.Read(p)
}

// Next removes and returns up to n buffered reply bytes. It returns
// fewer than n when fewer are buffered.
func (c *Conn) Next(n int) []byte {
	if n <= 0 {
		return nil
	}
	return bytes.Clone(c.output.Next(n))
}

// Drain removes and returns every buffered reply byte.
func (c *Conn) Drain() []byte {
	return c.Next(c.output.Len())
}

// Buffered returns the number of reply bytes waiting to be read.
func (c *Conn) Buffered() int {
	return c.output.Len()
}

// Pending returns the number of written bytes that do not yet form a
// complete message.
func (c *Conn) Pending() int {
	return c.input.Buffered()
}

// RoundTrips returns the number of messages successfully exchanged.
func (c *Conn) RoundTrips() int {
	return c.exchanged
}

// Close discards both buffers. Segments never outlive a round trip, so
// there is nothing else to release. Close is idempotent and always
// returns nil.
func (c *Conn) Close() error {
	c.closed = true
	c.input.Reset()
	c.output.Reset()
	return nil
}
