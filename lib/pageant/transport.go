// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pageant

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/pageant/lib/clock"
)

const (
	// DefaultMaxMessageLength is the segment capacity PuTTY defines
	// as AGENT_MAX_MSGLEN. Requests and replies, including their
	// length prefixes, must fit.
	DefaultMaxMessageLength = 8192

	// DefaultTimeout bounds how long a notification may wait for the
	// agent to acknowledge it.
	DefaultTimeout = 5 * time.Second
)

// Transport performs request/reply round trips with the agent, one
// message at a time. A Transport holds no per-request state, so it may
// be shared by several Conns provided Names yields distinct names.
type Transport struct {
	// Agent is the handle returned by the platform's Locator.
	Agent Handle

	// Segments creates the shared memory for each round trip.
	Segments SegmentProvider

	// Notifier announces each request to the agent.
	Notifier Notifier

	// Names generates segment names. Defaults to SequentialNames.
	Names NameFunc

	// Timeout bounds each notification. Defaults to DefaultTimeout.
	Timeout time.Duration

	// MaxMessageLength is the segment capacity. Defaults to
	// DefaultMaxMessageLength.
	MaxMessageLength int

	// Clock times round trips for logging. Defaults to clock.Real.
	Clock clock.Clock

	// Logger receives a Debug record per round trip and a Warn record
	// when a segment cannot be released. Defaults to slog.Default().
	Logger *slog.Logger
}

func (t *Transport) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}

func (t *Transport) clock() clock.Clock {
	if t.Clock != nil {
		return t.Clock
	}
	return clock.Real()
}

func (t *Transport) capacity() int {
	if t.MaxMessageLength > 0 {
		return t.MaxMessageLength
	}
	return DefaultMaxMessageLength
}

func (t *Transport) timeout() time.Duration {
	if t.Timeout > 0 {
		return t.Timeout
	}
	return DefaultTimeout
}

var defaultNames = SequentialNames()

func (t *Transport) nextName() string {
	if t.Names != nil {
		return t.Names()
	}
	return defaultNames()
}

// Exchange sends one message payload to the agent and returns the
// agent's reply envelope: the 4-byte big-endian reply length followed
// by the reply bytes. The request is written into the segment with the
// same envelope. A zero-length payload is valid.
//
// The segment is released before Exchange returns, whatever the
// outcome. Errors wrap ErrMessageTooLarge, ErrMapping,
// ErrAgentUnavailable, ErrTimeout, ErrRejected, or ErrProtocol.
func (t *Transport) Exchange(payload []byte) (reply []byte, err error) {
	capacity := t.capacity()
	if lengthPrefixSize+len(payload) > capacity {
		return nil, fmt.Errorf("%w: request payload is %d bytes, segment holds %d including the %d-byte length",
			ErrMessageTooLarge, len(payload), capacity, lengthPrefixSize)
	}
	if t.Segments == nil || t.Notifier == nil {
		return nil, errors.New("pageant: transport has no segment provider or notifier")
	}

	name := t.nextName()
	started := t.clock().Now()

	segment, err := t.Segments.Create(name, capacity)
	if err != nil {
		return nil, fmt.Errorf("pageant: creating segment %s: %w", name, asMappingError(err))
	}
	defer func() {
		if releaseError := segment.Release(); releaseError != nil {
			t.logger().Warn("releasing shared memory segment failed",
				"segment", name,
				"error", releaseError,
			)
			if err == nil {
				reply = nil
				err = fmt.Errorf("pageant: releasing segment %s: %w", name, asMappingError(releaseError))
			}
		}
	}()

	request := AppendEnvelope(make([]byte, 0, lengthPrefixSize+len(payload)), payload)
	written, err := segment.WriteAt(request, 0)
	if err == nil && written != len(request) {
		err = fmt.Errorf("short write of %d/%d bytes", written, len(request))
	}
	if err != nil {
		return nil, fmt.Errorf("pageant: writing request to segment %s: %w", name, asMappingError(err))
	}

	if err := t.Notifier.Notify(t.Agent, EncodeNotification(name), t.timeout()); err != nil {
		return nil, fmt.Errorf("pageant: notifying agent of segment %s: %w", name, asNotifyError(err))
	}

	reply, err = readReply(segment, capacity)
	if err != nil {
		return nil, fmt.Errorf("pageant: reading reply from segment %s: %w", name, err)
	}

	t.logger().Debug("agent round trip",
		"segment", name,
		"request_bytes", len(payload),
		"reply_bytes", len(reply)-lengthPrefixSize,
		"duration", t.clock().Now().Sub(started),
	)
	return reply, nil
}

// readReply reads the reply envelope the agent left in segment.
func readReply(segment Segment, capacity int) ([]byte, error) {
	var header [lengthPrefixSize]byte
	if read, err := segment.ReadAt(header[:], 0); read != len(header) {
		return nil, fmt.Errorf("%w: reply header truncated after %d bytes: %v", ErrProtocol, read, err)
	}
	length := binary.BigEndian.Uint32(header[:])
	total := uint64(lengthPrefixSize) + uint64(length)
	if total > uint64(capacity) {
		return nil, fmt.Errorf("%w: reply declares %d bytes, segment holds %d", ErrProtocol, length, capacity)
	}

	envelope := make([]byte, total)
	if read, err := segment.ReadAt(envelope, 0); read != len(envelope) {
		return nil, fmt.Errorf("%w: reply truncated at %d of %d bytes: %v", ErrProtocol, read, total, err)
	}
	return envelope, nil
}

// asMappingError makes sure a segment failure matches ErrMapping.
func asMappingError(err error) error {
	if errors.Is(err, ErrMapping) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMapping, err)
}

// asNotifyError makes sure a notifier failure matches one of the
// notification sentinels. Unclassified failures count as rejections.
func asNotifyError(err error) error {
	if errors.Is(err, ErrAgentUnavailable) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrRejected) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRejected, err)
}
