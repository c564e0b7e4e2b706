// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pageant

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeNotificationLayout(t *testing.T) {
	payload := EncodeNotification("PageantRequest00000001")
	want := append([]byte{0xba, 0x50, 0x4e, 0x80, 23, 0, 0, 0}, "PageantRequest00000001\x00"...)
	if !bytes.Equal(payload, want) {
		t.Fatalf("EncodeNotification = % x\nwant               % x", payload, want)
	}

	name, err := ParseNotification(payload)
	if err != nil {
		t.Fatalf("ParseNotification: %v", err)
	}
	if name != "PageantRequest00000001" {
		t.Errorf("name = %q", name)
	}
}

func TestParseNotificationRejects(t *testing.T) {
	valid := EncodeNotification("seg")

	badMagic := bytes.Clone(valid)
	badMagic[0] ^= 0xff

	badLength := bytes.Clone(valid)
	badLength[4] = 9

	missingNul := bytes.Clone(valid)
	missingNul[len(missingNul)-1] = 'x'

	embeddedNul := EncodeNotification("se\x00g")

	for name, payload := range map[string][]byte{
		"empty":        nil,
		"header only":  valid[:8],
		"bad magic":    badMagic,
		"bad length":   badLength,
		"missing nul":  missingNul,
		"embedded nul": embeddedNul,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseNotification(payload)
			if !errors.Is(err, ErrProtocol) {
				t.Errorf("ParseNotification error = %v, want ErrProtocol", err)
			}
		})
	}
}
