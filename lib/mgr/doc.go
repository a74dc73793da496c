// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mgr talks to the cephadm manager's agent endpoint.
//
// Two calls exist. [Client.FetchOOB] asks for the out-of-band
// controller's address and credentials; it runs once per System
// initialization. [Client.Push] delivers a snapshot. Both POST JSON
// carrying the cephx identity, over TLS verified against the CA bundle
// from the bootstrap document. Every request carries an X-Request-Id
// so a failed delivery can be found in the manager's log.
package mgr
