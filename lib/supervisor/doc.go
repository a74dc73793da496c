// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor owns node-proxy's workers: the System's
// collection loop, the Reporter, and the command API.
//
// [Manager.Start] bootstraps the controller credentials from the
// manager, constructs a System for the configured vendor, and starts
// every worker on its own goroutine. A liveness loop then checks the
// workers on an interval that grows by a backoff factor while anything
// is wrong and resets once a check finds every worker running:
//
//   - a worker that returned nil without being asked to stop is
//     restarted on its own;
//   - a worker that returned an error or panicked triggers a full
//     reinitialization: every worker is stopped, the old System's
//     session is logged out, and a fresh System and Reporter are built
//     and started, which re-logs in and re-discovers the controller.
//
// [Manager.Shutdown] marks the System as shutting down before stopping
// the workers so that no new controller request begins, then logs out
// of the Redfish session.
package supervisor
