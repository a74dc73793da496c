// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/bureau-foundation/node-proxy/lib/extract"
	"github.com/bureau-foundation/node-proxy/lib/redfish"
)

// Aggregate collects spec from every member of its collection and
// returns {member name: records}. A collection root that is not itself
// a collection (UpdateService) is read directly and its records are
// keyed by the root's ID.
//
// A member that cannot be projected is skipped and its error joined
// into the returned error; the other members are still returned.
func Aggregate(ctx context.Context, graph *redfish.Graph, spec extract.Spec) (map[string]extract.Records, error) {
	root, err := graph.Root(spec.Collection)
	if err != nil {
		return nil, err
	}

	out := map[string]extract.Records{}
	if !root.IsCollection() {
		records, err := collectNode(ctx, root, spec)
		if err != nil {
			return out, fmt.Errorf("%s: %w", spec, err)
		}
		out[root.ID()] = records
		return out, nil
	}

	members := root.MemberURLs()
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(members)) {
		member, err := root.Child(ctx, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records, err := collectNode(ctx, member, spec)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s member %s: %w", spec, name, err))
			continue
		}
		out[name] = records
	}
	return out, errors.Join(errs...)
}

func collectNode(ctx context.Context, node *redfish.Resource, spec extract.Spec) (extract.Records, error) {
	target, err := node.Resolve(ctx, spec.Path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if spec.Attribute == "" {
		raw = target.MembersData(ctx)
	} else {
		raw = target.Refresh(ctx)
	}
	return extract.Project(raw, spec.Fields, spec.Attribute)
}

// updateSpecs is the updater for table-driven components. With more
// than one spec, instance keys are prefixed by the spec's KeyPrefix so
// that instances from different paths cannot collide.
func updateSpecs(ctx context.Context, b *Base, c *component) (map[string]any, error) {
	bySystem := map[string]extract.Records{}
	prefixed := len(c.specs) > 1

	var errs []error
	for _, spec := range c.specs {
		result, err := Aggregate(ctx, b.graph, spec)
		if err != nil {
			errs = append(errs, err)
		}
		for systemID, records := range result {
			merged, ok := bySystem[systemID]
			if !ok {
				merged = extract.Records{}
				bySystem[systemID] = merged
			}
			for id, record := range records {
				if prefixed {
					id = spec.KeyPrefix() + "_" + id
				}
				merged[id] = record
			}
		}
	}

	if c.flatten {
		return extract.Flatten(bySystem), errors.Join(errs...)
	}
	out := make(map[string]any, len(bySystem))
	for systemID, records := range bySystem {
		out[systemID] = records.Any()
	}
	return out, errors.Join(errs...)
}
