// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

// Control actions.
const (
	ActionPing   = "ping"
	ActionStatus = "status"
)

// Request is a control socket request.
type Request struct {
	// Action is ActionPing or ActionStatus.
	Action string `cbor:"action"`
}

// Response answers one Request.
type Response struct {
	// OK is false when the request failed; Error then says why.
	OK    bool   `cbor:"ok"`
	Error string `cbor:"error,omitempty"`

	// Status is set for ActionStatus.
	Status *Status `cbor:"status,omitempty"`
}

// Status is a snapshot of bridge activity since it started.
type Status struct {
	// Listen is the bridge's bound address.
	Listen string `cbor:"listen"`

	// StartedAt is the bridge start time in Unix seconds.
	StartedAt int64 `cbor:"started_at"`

	// Connections counts accepted client connections; Active counts
	// the ones still open.
	Connections uint64 `cbor:"connections"`
	Active      int64  `cbor:"active"`

	// RoundTrips counts messages exchanged with the agent, and
	// Failures counts round trips or agent lookups that failed.
	RoundTrips uint64 `cbor:"round_trips"`
	Failures   uint64 `cbor:"failures"`

	// BytesIn and BytesOut count bytes read from and written to
	// clients.
	BytesIn  uint64 `cbor:"bytes_in"`
	BytesOut uint64 `cbor:"bytes_out"`

	// LastError is the most recent failure, if any.
	LastError string `cbor:"last_error,omitempty"`
}
