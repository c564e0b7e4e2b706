// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The pageant transport reads the clock to time each round trip, and
// test agents wait on it to simulate an agent that never answers. Real
// returns the standard library behavior. Fake returns a clock that
// moves only when Advance is called, so timeout paths can be tested
// without sleeping:
//
//	fakeClock := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go func() { result <- transport.Exchange(payload) }()
//	fakeClock.WaitForTimers(1)
//	fakeClock.Advance(5 * time.Second)
package clock
