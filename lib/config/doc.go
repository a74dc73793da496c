// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads node-proxy's two configuration inputs.
//
// The bootstrap file ([LoadBootstrap]) is the JSON document cephadm
// writes when it deploys the daemon. It names the manager endpoint,
// the cephx identity, the CA bundle to pin, and the listener
// certificate for the command API. Every key except node_proxy_config
// is required; a missing key is a [*Error].
//
// The tuning file ([LoadFile]) is optional YAML. Values it sets are
// laid over [Default]; a file that does not exist yields the defaults
// unchanged. Intervals accept either plain seconds (20, 1.5) or Go
// duration strings ("20s"). logging.level accepts level names or the
// numeric levels (10, 20, 30, 40, 50) older deployments use.
package config
