// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source used by every
// long-running loop in node-proxy: the system refresh loop, the
// reporter's check loop and retry delay, and the supervisor's liveness
// loop.
//
// Production code receives Real(). Tests receive Fake(), whose time
// only moves when Advance is called:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go loop.Run(ctx)             // loop calls c.After(5 * time.Second)
//	c.WaitForTimers(1)           // block until the loop is parked
//	c.Advance(5 * time.Second)   // release it deterministically
//
// WaitForTimers removes the race between a goroutine registering a
// wait and the test advancing time.
package clock
