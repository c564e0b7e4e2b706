// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pageant

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// segmentNamePrefix starts every segment name, as PuTTY's own clients
// do.
const segmentNamePrefix = "PageantRequest"

// NameFunc returns a segment name that no other in-flight request in
// this process is using.
type NameFunc func() string

var segmentCounter atomic.Uint32

// SequentialNames returns a NameFunc producing
// "PageantRequest<pid><counter>" with both parts as 8 hex digits. The
// counter is shared by every NameFunc in the process, so names only
// repeat after 2^32 requests.
func SequentialNames() NameFunc {
	pid := uint32(os.Getpid())
	return func() string {
		return fmt.Sprintf("%s%08x%08x", segmentNamePrefix, pid, segmentCounter.Add(1))
	}
}

// RandomNames returns a NameFunc producing "PageantRequest" followed by
// a random UUID in hex form.
func RandomNames() NameFunc {
	return func() string {
		return segmentNamePrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
}
