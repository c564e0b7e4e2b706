// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pageant

import (
	"io"
	"time"
)

// Handle is an opaque reference to a running agent. On Windows it is
// the agent's window handle.
type Handle uintptr

// Locator finds the running agent.
type Locator interface {
	// Locate returns a handle to the agent, or an error wrapping
	// ErrAgentUnavailable when none is running.
	Locate() (Handle, error)
}

// Segment is a named shared memory region restricted to the current
// user. Offsets are relative to the start of the region; reads and
// writes past its end return a short count and an error.
type Segment interface {
	io.ReaderAt
	io.WriterAt

	// Name returns the name the agent uses to open the segment.
	Name() string

	// Size returns the capacity of the segment in bytes.
	Size() int

	// Release unmaps the segment and closes its handle. It is called
	// exactly once per segment.
	Release() error
}

// SegmentProvider creates shared memory segments.
type SegmentProvider interface {
	// Create returns a new segment of the given size. Errors should
	// wrap ErrMapping.
	Create(name string, size int) (Segment, error)
}

// Notifier delivers a request notification to the agent and waits for
// it to be acknowledged.
type Notifier interface {
	// Notify sends payload (an encoded notification, see
	// EncodeNotification) to the agent and blocks until the agent
	// acknowledges it or timeout elapses. Errors should wrap
	// ErrAgentUnavailable, ErrTimeout, or ErrRejected.
	Notify(agent Handle, payload []byte, timeout time.Duration) error
}

// Platform bundles the three operating system capabilities the
// transport needs.
type Platform struct {
	Locator  Locator
	Segments SegmentProvider
	Notifier Notifier
}

func (p Platform) complete() bool {
	return p.Locator != nil && p.Segments != nil && p.Notifier != nil
}

// Window identifies the agent's message window by class and title.
type Window struct {
	Class string
	Title string
}

// DefaultWindow is the window PuTTY's Pageant registers.
var DefaultWindow = Window{Class: "Pageant", Title: "Pageant"}

// DefaultPlatform returns NativePlatform(DefaultWindow).
func DefaultPlatform() Platform {
	return NativePlatform(DefaultWindow)
}
