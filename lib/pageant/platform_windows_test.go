// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build windows

package pageant

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func testSegmentName(t *testing.T) string {
	return fmt.Sprintf("PageantRequestTest%08x%s", os.Getpid(), t.Name())
}

func TestFileMappingReadWrite(t *testing.T) {
	segment, err := fileMappings{}.Create(testSegmentName(t), 64)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer segment.Release()

	if _, err := segment.WriteAt([]byte{0, 0, 0, 2, 'o', 'k'}, 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	got := make([]byte, 6)
	if _, err := segment.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, []byte{0, 0, 0, 2, 'o', 'k'}) {
		t.Errorf("ReadAt = % x", got)
	}
	if _, err := segment.WriteAt(make([]byte, 65), 0); err == nil {
		t.Error("WriteAt past the end of the mapping succeeded")
	}
}

func TestFileMappingRefusesExistingName(t *testing.T) {
	name := testSegmentName(t)
	first, err := fileMappings{}.Create(name, 64)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer first.Release()

	second, err := fileMappings{}.Create(name, 64)
	if err == nil {
		second.Release()
		t.Fatal("Create opened a mapping that already existed")
	}
	if !errors.Is(err, ErrMapping) {
		t.Errorf("error = %v, want ErrMapping", err)
	}
}

func TestCopyDataNotifierInvalidWindow(t *testing.T) {
	err := copyDataNotifier{}.Notify(Handle(0xdead0), EncodeNotification("PageantRequestNone"), time.Second)
	if !errors.Is(err, ErrAgentUnavailable) && !errors.Is(err, ErrRejected) {
		t.Fatalf("error = %v, want ErrAgentUnavailable or ErrRejected", err)
	}
}
