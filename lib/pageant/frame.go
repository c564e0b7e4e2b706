// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pageant

import "encoding/binary"

// lengthPrefixSize is the size of the big-endian length that precedes
// every agent message, in both directions.
const lengthPrefixSize = 4

// Assembler collects bytes written by a caller and splits them into
// complete agent messages. A message is a 4-byte big-endian length L
// followed by L bytes of payload. Bytes that do not yet form a whole
// message stay buffered until a later Feed completes them.
//
// The zero value is ready to use. Assembler does no size checking; the
// transport rejects messages that do not fit a segment.
type Assembler struct {
	buffer []byte
}

// Feed appends data to the buffer. The caller may reuse data after
// Feed returns.
func (a *Assembler) Feed(data []byte) {
	a.buffer = append(a.buffer, data...)
}

// Next removes the first complete message from the buffer and returns
// its payload without the length prefix. It returns ok=false, leaving
// the buffer untouched, when fewer than 4 bytes are buffered or the
// declared payload has not fully arrived.
func (a *Assembler) Next() (payload []byte, ok bool) {
	if len(a.buffer) < lengthPrefixSize {
		return nil, false
	}
	length := binary.BigEndian.Uint32(a.buffer[:lengthPrefixSize])
	total := uint64(lengthPrefixSize) + uint64(length)
	if uint64(len(a.buffer)) < total {
		return nil, false
	}

	payload = make([]byte, length)
	copy(payload, a.buffer[lengthPrefixSize:total])

	remaining := copy(a.buffer, a.buffer[total:])
	a.buffer = a.buffer[:remaining]
	return payload, true
}

// Buffered returns the number of bytes waiting for a complete message.
func (a *Assembler) Buffered() int {
	return len(a.buffer)
}

// Reset discards all buffered bytes.
func (a *Assembler) Reset() {
	a.buffer = nil
}

// AppendEnvelope appends the length-prefixed form of payload to dst,
// the inverse of Assembler.Next.
func AppendEnvelope(dst, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}
