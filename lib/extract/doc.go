// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package extract turns raw Redfish resource payloads into the
// normalized component records node-proxy reports.
//
// A [Spec] names where a component lives in the resource graph (a root
// collection plus a path below each collection member) and which
// fields to keep. Vendors adjust a Spec with an [Override], which
// replaces only the fields it sets.
//
// [Project] handles the two payload shapes controllers use:
//
//   - a mapping of instance id to instance object, as produced by
//     walking a collection's members;
//   - a single object with an embedded array of instances, each
//     carrying its own MemberId (Thermal.Fans, for example).
//
// Both produce {instance id: {snake_field: value}}. Keys at every depth
// are snake_cased, JSON nulls and requested-but-absent fields become
// [Unknown], and instance ids are kept verbatim.
//
// The package performs no I/O.
package extract
