// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type sampleMessage struct {
	Action string            `cbor:"action"`
	Count  uint64            `cbor:"count"`
	Labels map[string]string `cbor:"labels,omitempty"`
}

func encode(t *testing.T, value any) []byte {
	t.Helper()
	var buffer bytes.Buffer
	if err := NewEncoder(&buffer).Encode(value); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buffer.Bytes()
}

func TestEncodingIsDeterministic(t *testing.T) {
	message := sampleMessage{
		Action: "status",
		Count:  7,
		Labels: map[string]string{"zeta": "1", "alpha": "2", "mid": "3"},
	}

	first := encode(t, message)
	for range 20 {
		if again := encode(t, message); !bytes.Equal(first, again) {
			t.Fatal("Encode produced different bytes for the same value")
		}
	}
}

func TestStreamEncoding(t *testing.T) {
	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, action := range []string{"ping", "status"} {
		if err := encoder.Encode(sampleMessage{Action: action}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for _, want := range []string{"ping", "status"} {
		var message sampleMessage
		if err := decoder.Decode(&message); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if message.Action != want {
			t.Errorf("Action = %q, want %q", message.Action, want)
		}
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	data := encode(t, map[string]any{"action": "ping", "future_field": true})
	var message sampleMessage
	if err := NewDecoder(bytes.NewReader(data)).Decode(&message); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if message.Action != "ping" {
		t.Errorf("Action = %q, want ping", message.Action)
	}
}
