// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pageant

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// AgentCopyDataID is the magic value Pageant expects in the dwData
// field of the WM_COPYDATA message announcing a request.
const AgentCopyDataID uint32 = 0x804e50ba

const notificationHeaderSize = 8

// EncodeNotification builds the notification payload announcing a
// request in the named segment: the 4-byte magic, the 4-byte length of
// the name including its terminating NUL, and the NUL-terminated name.
// Integers are little-endian, matching the COPYDATASTRUCT fields they
// populate.
func EncodeNotification(segmentName string) []byte {
	payload := make([]byte, 0, notificationHeaderSize+len(segmentName)+1)
	payload = binary.LittleEndian.AppendUint32(payload, AgentCopyDataID)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(len(segmentName)+1))
	payload = append(payload, segmentName...)
	return append(payload, 0)
}

// ParseNotification validates a payload built by EncodeNotification
// and returns the segment name it carries.
func ParseNotification(payload []byte) (string, error) {
	if len(payload) < notificationHeaderSize+1 {
		return "", fmt.Errorf("%w: notification is %d bytes, need at least %d",
			ErrProtocol, len(payload), notificationHeaderSize+1)
	}
	if magic := binary.LittleEndian.Uint32(payload[0:4]); magic != AgentCopyDataID {
		return "", fmt.Errorf("%w: notification magic %#08x, want %#08x", ErrProtocol, magic, AgentCopyDataID)
	}
	declared := binary.LittleEndian.Uint32(payload[4:8])
	name := payload[notificationHeaderSize:]
	if uint64(declared) != uint64(len(name)) {
		return "", fmt.Errorf("%w: notification declares %d name bytes, carries %d",
			ErrProtocol, declared, len(name))
	}
	if name[len(name)-1] != 0 {
		return "", fmt.Errorf("%w: segment name is not NUL-terminated", ErrProtocol)
	}
	name = name[:len(name)-1]
	if bytes.IndexByte(name, 0) >= 0 {
		return "", fmt.Errorf("%w: segment name contains an embedded NUL", ErrProtocol)
	}
	return string(name), nil
}
