// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds the two credentials node-proxy keeps for its
// whole lifetime: the cephx key it presents to the manager and the
// out-of-band controller password it receives at bootstrap.
//
// A [Buffer] lives in an anonymous mmap region outside the Go heap,
// excluded from core dumps, and locked into RAM when the process's
// RLIMIT_MEMLOCK allows it. Close zeroes and unmaps the region; any
// later read panics.
package secret
