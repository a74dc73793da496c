// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package snapshot compares and describes System snapshots.
//
// Equality is decided on fingerprints: the BLAKE3 digest of a
// snapshot's deterministic CBOR encoding. Two snapshots with the same
// content produce the same bytes whatever their map iteration order,
// so the reporter can skip a delivery without walking both trees.
package snapshot

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/node-proxy/lib/codec"
)

// MaxDeltaLog bounds a formatted delta.
const MaxDeltaLog = 2048

// Fingerprint identifies a snapshot's content.
type Fingerprint [32]byte

func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// Sum fingerprints snapshot.
func Sum(snapshot map[string]any) (Fingerprint, error) {
	encoded, err := codec.Marshal(snapshot)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("encoding snapshot: %w", err)
	}
	return blake3.Sum256(encoded), nil
}

// Equal reports whether a and b have the same content. A nil snapshot
// equals only another nil snapshot. Snapshots that cannot be encoded
// are compared structurally.
func Equal(a, b map[string]any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	left, err := Sum(a)
	if err != nil {
		return reflect.DeepEqual(a, b)
	}
	right, err := Sum(b)
	if err != nil {
		return reflect.DeepEqual(a, b)
	}
	return left == right
}

// Diff returns the keys of current that differ from previous: new and
// changed keys carry current's value, removed keys map to nil. Nested
// maps are diffed recursively. Diff returns nil when nothing changed.
func Diff(previous, current map[string]any) map[string]any {
	delta := map[string]any{}
	for _, key := range slices.Sorted(maps.Keys(current)) {
		old, existed := previous[key]
		if !existed {
			delta[key] = current[key]
			continue
		}
		if changed, ok := diffValue(old, current[key]); ok {
			delta[key] = changed
		}
	}
	for key := range previous {
		if _, ok := current[key]; !ok {
			delta[key] = nil
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffValue(old, current any) (any, bool) {
	oldMap, oldIsMap := old.(map[string]any)
	currentMap, currentIsMap := current.(map[string]any)
	if oldIsMap && currentIsMap {
		delta := Diff(oldMap, currentMap)
		return delta, delta != nil
	}
	if reflect.DeepEqual(old, current) {
		return nil, false
	}
	return current, true
}

// FormatDelta renders delta as indented JSON, truncated to MaxDeltaLog
// bytes with a marker.
func FormatDelta(delta map[string]any) string {
	if delta == nil {
		delta = map[string]any{}
	}
	encoded, err := json.MarshalIndent(delta, "", "  ")
	if err != nil {
		return fmt.Sprintf("unencodable delta: %v", err)
	}
	if len(encoded) > MaxDeltaLog {
		return string(encoded[:MaxDeltaLog]) + "\n... (truncated)"
	}
	return string(encoded)
}
