// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for node-proxy
// packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the
// timeout safety valve pattern (a select against a wall-clock timer) so
// that individual tests need no timers of their own.
// [Eventually] polls a condition owned by a background goroutine.
// These are the only place in the test suite where real wall-clock
// timeouts are used; everything else runs on a fake clock.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no node-proxy dependencies.
package testutil
