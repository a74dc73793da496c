// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

// recorder captures Fatalf instead of failing.
type recorder struct {
	failed  bool
	fatals  int
	message string
}

func (r *recorder) Helper() {}

func (r *recorder) Fatalf(format string, args ...any) {
	r.failed = true
	r.fatals++
	r.message = fmt.Sprintf(format, args...)
}

func TestRequireReceive(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	if got := RequireReceive(t, ch, time.Second); got != 7 {
		t.Errorf("got %d, want 7", got)
	}

	var r recorder
	RequireReceive(&r, make(chan int), time.Millisecond, "result %d", 3)
	if !r.failed || !strings.Contains(r.message, "waiting for result 3") {
		t.Errorf("timeout not reported: %+v", r)
	}
}

func TestRequireClosed(t *testing.T) {
	ch := make(chan struct{})
	close(ch)
	RequireClosed(t, ch, time.Second)

	var r recorder
	RequireClosed(&r, make(chan struct{}), time.Millisecond, "ready")
	if !r.failed {
		t.Error("timeout not reported")
	}
}

func TestEventually(t *testing.T) {
	calls := 0
	Eventually(t, time.Second, func() bool { calls++; return calls == 3 })
	if calls != 3 {
		t.Errorf("condition checked %d times, want 3", calls)
	}

	var r recorder
	Eventually(&r, 10*time.Millisecond, func() bool { return false }, "never")
	if !r.failed || !strings.Contains(r.message, "never") {
		t.Errorf("failure not reported: %+v", r)
	}
	// A TB whose Fatalf returns must still end the wait.
	if r.fatals != 1 {
		t.Errorf("Fatalf called %d times, want 1", r.fatals)
	}
}
