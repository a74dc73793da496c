// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Node-proxy runs on a storage host and relays its baseboard
// management controller's hardware health to the cluster manager.
//
// On startup:
//  1. Reads the cephadm bootstrap document named by --config and the
//     tuning file it points at.
//  2. Asks the manager for the controller's address and credentials.
//  3. Logs in to the controller over Redfish and discovers its
//     resources.
//  4. Polls the controller every refresh interval, delivering the
//     snapshot to the manager whenever it changes.
//  5. Serves the command API (snapshot reads, LEDs, power actions) on
//     the listener certificate.
//
// SIGTERM or SIGINT stops controller traffic, stops the workers, and
// logs out of the controller session. A configuration error exits 2;
// any other startup failure exits 1.
package main
