// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pageanttest

import (
	"bytes"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/ssh/agent"
)

// agentFailure is SSH_AGENT_FAILURE from the ssh-agent protocol.
const agentFailure = 5

// KeyringHandler answers requests with keyring, typically one made by
// agent.NewKeyring. Each request is served by agent.ServeAgent over an
// in-memory stream holding that single message.
func KeyringHandler(keyring agent.Agent) Handler {
	return func(request []byte) []byte {
		envelope := binary.BigEndian.AppendUint32(nil, uint32(len(request)))
		stream := &messageStream{input: bytes.NewReader(append(envelope, request...))}

		// ServeAgent returns once the single message is consumed and
		// the stream reports EOF.
		_ = agent.ServeAgent(keyring, stream)

		reply := stream.output.Bytes()
		if len(reply) < 4 {
			return []byte{agentFailure}
		}
		return reply[4:]
	}
}

type messageStream struct {
	input  io.Reader
	output bytes.Buffer
}

func (s *messageStream) Read(p []byte) (int, error)  { return s.input.Read(p) }
func (s *messageStream) Write(p []byte) (int, error) { return s.output.Write(p) }
