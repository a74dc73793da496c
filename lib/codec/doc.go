// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds node-proxy's CBOR configuration.
//
// JSON is the wire format toward the controller and the manager. CBOR
// is used where byte-exact output matters: snapshot fingerprints are
// BLAKE3 digests of the snapshot's Core Deterministic Encoding (RFC
// 8949 §4.2: sorted map keys, smallest integer encoding, no
// indefinite-length items), and the command API serves the same
// encoding to clients that ask for application/cbor.
//
// Generic values decode with string-keyed maps so that a decoded
// snapshot compares equal to the JSON-decoded original.
package codec
