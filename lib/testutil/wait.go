// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// TB is the part of testing.TB the helpers use.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// pollInterval separates Eventually's condition checks.
const pollInterval = 5 * time.Millisecond

// RequireReceive returns the next value on ch, failing the test if
// none arrives within timeout or ch is closed first.
//
//	err := testutil.RequireReceive(t, done, 5*time.Second, "Run returning")
func RequireReceive[T any](t TB, ch <-chan T, timeout time.Duration, what ...any) T {
	t.Helper()
	timer := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer timer.Stop()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed while %s", describe(what))
		}
		return v
	case <-timer.C:
		t.Fatalf("timed out after %v %s", timeout, describe(what))
	}
	var zero T
	return zero
}

// RequireClosed waits for ch to close (or deliver), failing the test
// after timeout. Use it for readiness channels.
//
//	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "command API ready")
func RequireClosed(t TB, ch <-chan struct{}, timeout time.Duration, what ...any) {
	t.Helper()
	timer := time.NewTimer(timeout) //nolint:realclock test hang prevention
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("timed out after %v %s", timeout, describe(what))
	}
}

// Eventually polls condition until it holds, failing the test after
// timeout. Use it for state owned by a background goroutine that
// exposes no channel to wait on.
//
//	testutil.Eventually(t, 5*time.Second, h.ready, "first update cycle")
func Eventually(t TB, timeout time.Duration, condition func() bool, what ...any) {
	t.Helper()
	deadline := time.Now().Add(timeout) //nolint:realclock test hang prevention
	for !condition() {
		if time.Now().After(deadline) { //nolint:realclock test hang prevention
			t.Fatalf("condition not met after %v %s", timeout, describe(what))
			return
		}
		time.Sleep(pollInterval) //nolint:realclock polling interval
	}
}

// describe renders the optional "what" arguments: nothing, a single
// value, or a format string and its arguments.
func describe(what []any) string {
	switch {
	case len(what) == 0:
		return "waiting"
	case len(what) == 1:
		return fmt.Sprintf("waiting for %v", what[0])
	}
	if format, ok := what[0].(string); ok {
		return "waiting for " + fmt.Sprintf(format, what[1:]...)
	}
	return fmt.Sprintf("waiting for %v", what)
}
