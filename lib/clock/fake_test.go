// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	fakeClock := Fake(epoch)
	channel := fakeClock.After(5 * time.Second)

	fakeClock.Advance(4 * time.Second)
	select {
	case <-channel:
		t.Fatal("timer fired before its deadline")
	default:
	}

	fakeClock.Advance(time.Second)
	select {
	case fired := <-channel:
		if want := epoch.Add(5 * time.Second); !fired.Equal(want) {
			t.Errorf("fired at %v, want %v", fired, want)
		}
	default:
		t.Fatal("timer did not fire at its deadline")
	}
	if count := fakeClock.PendingCount(); count != 0 {
		t.Errorf("PendingCount = %d after firing, want 0", count)
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	fakeClock := Fake(epoch)
	select {
	case <-fakeClock.After(0):
	default:
		t.Fatal("After(0) should be ready immediately")
	}
	if count := fakeClock.PendingCount(); count != 0 {
		t.Errorf("PendingCount = %d, want 0", count)
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	fakeClock := Fake(epoch)
	done := make(chan time.Time)
	go func() {
		done <- <-fakeClock.After(time.Minute)
	}()

	fakeClock.WaitForTimers(1)
	fakeClock.Advance(time.Minute)

	select {
	case <-done:
	case <-time.After(5 * time.Second): //nolint:realclock test hang prevention
		t.Fatal("waiting goroutine never observed the timer")
	}
	if now := fakeClock.Now(); !now.Equal(epoch.Add(time.Minute)) {
		t.Errorf("Now = %v, want %v", now, epoch.Add(time.Minute))
	}
}
