// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the node-proxy entrypoint's error exit. It is
// the one place that writes to stderr directly, for errors that occur
// before the structured logger exists or after it can no longer be
// trusted.
package process
