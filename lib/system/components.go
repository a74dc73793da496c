// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"log/slog"
	"slices"

	"github.com/bureau-foundation/node-proxy/lib/extract"
)

var (
	networkFields   = []string{"Description", "Name", "SpeedMbps", "Status"}
	processorFields = []string{"Description", "TotalCores", "TotalThreads", "ProcessorType", "Model", "Status", "Manufacturer"}
	memoryFields    = []string{"Description", "MemoryDeviceType", "CapacityMiB", "Status"}
	powerFields     = []string{"Name", "Model", "Manufacturer", "Status"}
	fanFields       = []string{"Name", "PhysicalContext", "Status"}
	firmwareFields  = []string{"Name", "Description", "ReleaseDate", "Version", "Updateable", "Status"}
	storageFields   = []string{"Description", "CapacityBytes", "Model", "Protocol", "LocationIndicatorActive", "SerialNumber", "Status", "PhysicalLocation"}
)

// updater collects one component. The returned map is used even when
// err is non-nil.
type updater func(ctx context.Context, b *Base, c *component) (map[string]any, error)

type component struct {
	name    string
	specs   []extract.Spec
	flatten bool
	update  updater
}

// componentTable is the built-in component list, in collection order.
var componentTable = []component{
	{name: "memory", specs: []extract.Spec{
		{Collection: "systems", Path: "Memory", Fields: memoryFields},
	}},
	{name: "power", specs: []extract.Spec{
		{Collection: "chassis", Path: "PowerSubsystem/PowerSupplies", Fields: powerFields},
	}},
	{name: "fans", specs: []extract.Spec{
		{Collection: "chassis", Path: "Thermal", Fields: fanFields, Attribute: "Fans"},
	}},
	{name: "network", specs: []extract.Spec{
		{Collection: "systems", Path: "EthernetInterfaces", Fields: networkFields},
		{Collection: "systems", Path: "NetworkInterfaces", Fields: networkFields},
	}},
	{name: "processors", specs: []extract.Spec{
		{Collection: "systems", Path: "Processors", Fields: processorFields},
	}},
	{name: "storage", specs: []extract.Spec{
		{Collection: "systems", Path: "Storage", Fields: storageFields},
	}, update: updateStorage},
	{name: "firmwares", specs: []extract.Spec{
		{Collection: "update_service", Path: "FirmwareInventory", Fields: firmwareFields},
	}, flatten: true},
}

// buildComponents selects the configured components from the table and
// applies overrides. An empty selection means every component.
func buildComponents(selected []string, overrides map[string]extract.Override, logger *slog.Logger) []*component {
	for _, name := range selected {
		if !slices.ContainsFunc(componentTable, func(d component) bool { return d.name == name }) {
			logger.Warn("ignoring unknown component", "collector", name)
		}
	}

	var components []*component
	for _, def := range componentTable {
		if len(selected) > 0 && !slices.Contains(selected, def.name) {
			continue
		}
		c := &component{name: def.name, flatten: def.flatten, update: def.update}
		if c.update == nil {
			c.update = updateSpecs
		}
		override, overridden := overrides[def.name]
		for _, spec := range def.specs {
			if overridden {
				spec = spec.With(override)
			}
			c.specs = append(c.specs, spec)
		}
		logger.Debug("component configured", "collector", c.name, "specs", len(c.specs))
		components = append(components, c)
	}
	return components
}

// EffectiveSpecs returns the specs a component will be collected with
// after overrides, or nil when the component is not configured.
func (b *Base) EffectiveSpecs(name string) []extract.Spec {
	for _, c := range b.components {
		if c.name == name {
			return slices.Clone(c.specs)
		}
	}
	return nil
}
