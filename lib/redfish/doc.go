// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package redfish discovers and walks a management controller's
// Redfish resource graph.
//
// [Graph.Discover] reads the service root once and registers every
// top-level resource reference (Systems, Chassis, UpdateService, ...)
// under its snake_case name. From a root, [Resource.Child] and
// [Resource.Resolve] walk down the tree, fetching each node on first
// access and caching it for the life of the Graph. Cached nodes give
// structure: collection membership and child links. Values are always
// re-read: [Resource.MembersData] and [Resource.Refresh] issue fresh
// requests on every call.
//
// All network access goes through the [Client] interface.
// [GofishClient] implements it over github.com/stmcginnis/gofish;
// package redfishtest provides an in-memory fake.
//
// Failure handling follows the graph's shape. A failed read of the
// service root or of a root resource is a [*DiscoveryError] and leaves
// the Graph as it was. A failed node read is logged as a [*FetchError]
// and yields an empty payload that is not cached, so one unreachable
// resource never aborts a walk and is retried on the next access. Callers that must
// see failures use [Graph.Get].
package redfish
