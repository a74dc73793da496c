// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package system collects hardware health from one controller and
// exposes the controller's physical actions.
//
// A [System] owns the resource graph, a table of components built once
// at construction, and the snapshot those components fill. Its update
// cycle runs under the System's mutex: identity (serial numbers) is
// refreshed first, then every component runs in its own goroutine and
// the cycle joins them before marking the snapshot ready. A component
// that fails or panics is logged as a [*ComponentError] and reported
// empty; its siblings are unaffected. Identity refresh failures end
// the run, since they mean the session or transport is gone.
//
// Vendors differ in two ways: spec overrides, which adjust where a
// component's data lives, and capabilities (LEDs, power actions). The
// generic implementation ([Base]) supports no capabilities and returns
// errors wrapping [ErrUnsupported]. [Dell] implements them against the
// iDRAC job service. Vendors are selected by name through the registry
// ([New], [Register]); unknown names fall back to generic.
//
// The mutex is exported through sync.Locker because the reporter must
// compare and record deliveries atomically with respect to update
// cycles. Methods with a Locked suffix require the caller to hold it.
package system
