// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pageanttest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bureau-foundation/pageant/lib/clock"
	"github.com/bureau-foundation/pageant/lib/pageant"
)

// Handle is the handle an Agent reports from Locate.
const Handle pageant.Handle = 0x50414745

// Handler computes the reply payload for a request payload. Both are
// without their length prefixes.
type Handler func(request []byte) []byte

// Echo replies with the request unchanged.
func Echo(request []byte) []byte {
	return request
}

// Agent is an in-memory Pageant. The zero value is a running agent
// that echoes requests. Configure fields before handing the agent's
// Platform to pageant.Open; they must not change while requests are in
// flight.
type Agent struct {
	// Handler answers requests. Defaults to Echo.
	Handler Handler

	// Stopped makes Locate and Notify fail with ErrAgentUnavailable.
	Stopped bool

	// Unresponsive makes Notify wait out the timeout on Clock and then
	// fail with ErrTimeout.
	Unresponsive bool

	// RawReply, when non-nil, is written verbatim at offset 0 of the
	// segment instead of a well-formed reply envelope.
	RawReply []byte

	// CreateError, when non-nil, is returned by Create.
	CreateError error

	// Clock is waited on by an Unresponsive agent. Defaults to
	// clock.Real.
	Clock clock.Clock

	mu            sync.Mutex
	segments      map[string]*Segment
	created       []string
	requests      [][]byte
	notifications [][]byte
}

// Platform returns the capabilities backed by this agent.
func (a *Agent) Platform() pageant.Platform {
	return pageant.Platform{Locator: a, Segments: a, Notifier: a}
}

// Locate returns Handle unless the agent is stopped.
func (a *Agent) Locate() (pageant.Handle, error) {
	if a.Stopped {
		return 0, fmt.Errorf("%w: test agent stopped", pageant.ErrAgentUnavailable)
	}
	return Handle, nil
}

// Create returns a heap-backed segment and records it as live.
func (a *Agent) Create(name string, size int) (pageant.Segment, error) {
	if a.CreateError != nil {
		return nil, a.CreateError
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: segment size %d", pageant.ErrMapping, size)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.segments == nil {
		a.segments = make(map[string]*Segment)
	}
	if _, exists := a.segments[name]; exists {
		return nil, fmt.Errorf("%w: segment %s already exists", pageant.ErrMapping, name)
	}
	segment := &Segment{agent: a, name: name, memory: make([]byte, size)}
	a.segments[name] = segment
	a.created = append(a.created, name)
	return segment, nil
}

// Notify answers a request as Pageant would: it opens the named
// segment, reads the request envelope, and writes the reply envelope
// over it.
func (a *Agent) Notify(agent pageant.Handle, payload []byte, timeout time.Duration) error {
	a.mu.Lock()
	a.notifications = append(a.notifications, append([]byte(nil), payload...))
	a.mu.Unlock()

	if a.Stopped || agent != Handle {
		return fmt.Errorf("%w: no test agent at handle %#x", pageant.ErrAgentUnavailable, agent)
	}
	name, err := pageant.ParseNotification(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", pageant.ErrRejected, err)
	}
	if a.Unresponsive {
		<-a.clock().After(timeout)
		return fmt.Errorf("%w after %v", pageant.ErrTimeout, timeout)
	}

	a.mu.Lock()
	segment := a.segments[name]
	a.mu.Unlock()
	if segment == nil {
		return fmt.Errorf("%w: segment %s is not open", pageant.ErrRejected, name)
	}

	request, err := segment.request()
	if err != nil {
		return fmt.Errorf("%w: %w", pageant.ErrRejected, err)
	}
	a.mu.Lock()
	a.requests = append(a.requests, request)
	a.mu.Unlock()

	if a.RawReply != nil {
		segment.WriteAt(a.RawReply, 0)
		return nil
	}
	handler := a.Handler
	if handler == nil {
		handler = Echo
	}
	reply := handler(request)
	envelope := binary.BigEndian.AppendUint32(nil, uint32(len(reply)))
	segment.WriteAt(append(envelope, reply...), 0)
	return nil
}

func (a *Agent) clock() clock.Clock {
	if a.Clock != nil {
		return a.Clock
	}
	return clock.Real()
}

// Created returns the names of every segment created so far, in order.
func (a *Agent) Created() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.created...)
}

// Live returns the number of segments created but not yet released.
func (a *Agent) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.segments)
}

// Requests returns the request payloads the agent has answered.
func (a *Agent) Requests() [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]byte(nil), a.requests...)
}

// Notifications returns every notification payload received, including
// ones that were refused.
func (a *Agent) Notifications() [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([][]byte(nil), a.notifications...)
}

// Segment is a heap-backed pageant.Segment.
type Segment struct {
	agent    *Agent
	name     string
	memory   []byte
	released bool
}

// Name returns the segment name.
func (s *Segment) Name() string { return s.name }

// Size returns the segment capacity.
func (s *Segment) Size() int { return len(s.memory) }

// WriteAt copies p into the segment, stopping at its end.
func (s *Segment) WriteAt(p []byte, offset int64) (int, error) {
	if offset < 0 || offset > int64(len(s.memory)) {
		return 0, fmt.Errorf("offset %d outside segment of %d bytes", offset, len(s.memory))
	}
	written := copy(s.memory[offset:], p)
	if written < len(p) {
		return written, io.ErrShortWrite
	}
	return written, nil
}

// ReadAt copies from the segment into p, stopping at its end.
func (s *Segment) ReadAt(p []byte, offset int64) (int, error) {
	if offset < 0 || offset > int64(len(s.memory)) {
		return 0, fmt.Errorf("offset %d outside segment of %d bytes", offset, len(s.memory))
	}
	read := copy(p, s.memory[offset:])
	if read < len(p) {
		return read, io.EOF
	}
	return read, nil
}

// Release removes the segment from the agent. A second Release fails.
func (s *Segment) Release() error {
	s.agent.mu.Lock()
	defer s.agent.mu.Unlock()
	if s.released {
		return errors.New("pageanttest: segment released twice")
	}
	s.released = true
	delete(s.agent.segments, s.name)
	return nil
}

// request decodes the request envelope at the start of the segment.
func (s *Segment) request() ([]byte, error) {
	if len(s.memory) < 4 {
		return nil, fmt.Errorf("segment %s too small for a request", s.name)
	}
	length := binary.BigEndian.Uint32(s.memory[:4])
	if uint64(length)+4 > uint64(len(s.memory)) {
		return nil, fmt.Errorf("request in %s declares %d bytes, segment holds %d", s.name, length, len(s.memory))
	}
	return append([]byte(nil), s.memory[4:4+length]...), nil
}
