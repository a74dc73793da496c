// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports node-proxy build information.
//
// Three variables are injected at build time with -ldflags -X, for
// example:
//
//	go build -ldflags "-X github.com/bureau-foundation/node-proxy/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// They default to "unknown" and "0.1.0-dev" in development builds and
// tests. [Info] is printed by --version and logged at startup;
// [UserAgent] identifies the daemon to the manager.
package version
