// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package pageant

import (
	"errors"
	"testing"
)

func TestOpenDefaultPlatformUnsupported(t *testing.T) {
	_, err := Open("", Config{})
	if !errors.Is(err, ErrAgentUnavailable) {
		t.Fatalf("Open error = %v, want ErrAgentUnavailable", err)
	}
	if !errors.Is(err, errors.ErrUnsupported) {
		t.Errorf("Open error = %v, want it to wrap errors.ErrUnsupported", err)
	}
}

func TestUnsupportedPlatformFailsEveryCapability(t *testing.T) {
	platform := NativePlatform(DefaultWindow)
	if _, err := platform.Segments.Create("PageantRequest0", 64); !errors.Is(err, ErrMapping) {
		t.Errorf("Create error = %v, want ErrMapping", err)
	}
	if err := platform.Notifier.Notify(1, EncodeNotification("x"), DefaultTimeout); !errors.Is(err, ErrAgentUnavailable) {
		t.Errorf("Notify error = %v, want ErrAgentUnavailable", err)
	}
}
