// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
)

// Constructor builds a System for one vendor.
type Constructor func(Params) System

// Generic is the vendor name used when no other matches.
const Generic = "generic"

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{
		Generic:   func(p Params) System { return NewGeneric(p) },
		"dell":    func(p Params) System { return NewDell(p) },
		"atollon": func(p Params) System { return NewAtollon(p) },
	}
)

// Register adds or replaces a vendor implementation. It panics on an
// empty name or nil constructor.
func Register(vendor string, constructor Constructor) {
	if vendor == "" || constructor == nil {
		panic(fmt.Sprintf("system: invalid registration for vendor %q", vendor))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[vendor] = constructor
}

// Lookup returns the constructor registered for vendor.
func Lookup(vendor string) (Constructor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	constructor, ok := registry[vendor]
	return constructor, ok
}

// Vendors lists registered vendor names, sorted.
func Vendors() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return slices.Sorted(maps.Keys(registry))
}

// New builds the System for vendor, falling back to generic with a
// warning when vendor is not registered.
func New(vendor string, params Params) System {
	constructor, ok := Lookup(vendor)
	if !ok {
		logger := params.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("unknown vendor; using the generic implementation", "vendor", vendor, "known", Vendors())
		constructor, _ = Lookup(Generic)
	}
	return constructor(params)
}
