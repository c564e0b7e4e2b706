// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package pageant

import (
	"errors"
	"fmt"
	"time"
)

// NativePlatform returns a platform whose every operation fails:
// Pageant exists only on Windows. Locate reports ErrAgentUnavailable
// wrapping errors.ErrUnsupported.
func NativePlatform(window Window) Platform {
	unsupported := unsupportedPlatform{window: window}
	return Platform{Locator: unsupported, Segments: unsupported, Notifier: unsupported}
}

type unsupportedPlatform struct {
	window Window
}

func (u unsupportedPlatform) Locate() (Handle, error) {
	return 0, fmt.Errorf("%w: cannot look for window %q: %w", ErrAgentUnavailable, u.window.Class, errors.ErrUnsupported)
}

func (unsupportedPlatform) Create(name string, size int) (Segment, error) {
	return nil, fmt.Errorf("%w: %w", ErrMapping, errors.ErrUnsupported)
}

func (unsupportedPlatform) Notify(agent Handle, payload []byte, timeout time.Duration) error {
	return fmt.Errorf("%w: %w", ErrAgentUnavailable, errors.ErrUnsupported)
}
