// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package api is node-proxy's command surface: an HTTPS endpoint the
// manager uses to read the current snapshot and to drive the
// controller's physical actions.
//
//	GET   /data              current snapshot (JSON, or CBOR on Accept: application/cbor)
//	POST  /flush             clear the snapshot and the delivery record
//	GET   /led/chassis       chassis identification LED state
//	PATCH /led/chassis       {"state": "on"|"off"}
//	GET   /led/drive/{id}    drive identification LED state
//	PATCH /led/drive/{id}    {"state": "on"|"off"}
//	POST  /shutdown          {"force": bool}
//	POST  /powercycle
//	POST  /reboot-jobs                {"type": <Dell RebootJobType>}, returns the job id
//	POST  /reboot-jobs/{id}/schedule  queue a created job to start now
//	GET   /health            worker and System state
//	GET   /metrics           Prometheus exposition
//
// Every route except /health and /metrics requires HTTP basic auth
// with the cephx name and secret. Responses are gzip-compressed when
// the client accepts it.
//
// Capability errors map to statuses: an operation the vendor does not
// offer is 501, an unknown drive 404, a pending shutdown 503, and any
// controller failure 502.
package api
